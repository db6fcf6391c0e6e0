package api

import (
	"context"  // Context errors
	"errors"   // Error comparison
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework

	"ledger_service/internal/domain" // Ledger error taxonomy
)

// Stable error codes returned in every error body
const (
	CodeInvalidRequest     = "invalid_request"
	CodeInvalidAmount      = "invalid_amount"
	CodeAccountNotFound    = "account_not_found"
	CodeDuplicateAccount   = "duplicate_account"
	CodeInsufficientFunds  = "insufficient_funds"
	CodeStorageUnavailable = "storage_unavailable"
	CodeTimeout            = "timeout"
	CodeInternal           = "internal_error"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"` // Human readable message
	Code  string `json:"code"`  // Stable machine readable code
}

// statusFor maps a ledger error to its HTTP status and code
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest, CodeInvalidAmount
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, CodeAccountNotFound
	case errors.Is(err, domain.ErrDuplicateAccount):
		return http.StatusConflict, CodeDuplicateAccount
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, CodeInsufficientFunds
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, CodeTimeout
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, CodeStorageUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// respondError writes the error body; server-side failures are attached to the
// context for the request logger and their cause is not echoed to the client
func respondError(c *gin.Context, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		_ = c.Error(err) // Picked up by the request logger
		msg = http.StatusText(status)
		if code == CodeStorageUnavailable {
			msg = "Storage unavailable, retry later"
		}
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg, Code: code})
}

// respondBindError reports a request that could not be parsed. A malformed
// amount is reported as invalid_amount, anything else as invalid_request.
func respondBindError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrInvalidAmount) {
		respondError(c, err)
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request: " + err.Error(), Code: CodeInvalidRequest})
}
