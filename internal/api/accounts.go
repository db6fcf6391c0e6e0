package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"github.com/gin-gonic/gin" // Gin web framework

	"ledger_service/internal/domain" // Ledger domain types
	"ledger_service/internal/ledger" // Ledger engine
)

// AccountView is one account in the listing
type AccountView struct {
	ID      uint64        `json:"id"`      // Account ID
	Name    string        `json:"name"`    // Display name
	Email   string        `json:"email"`   // Canonical email
	Balance domain.Amount `json:"balance"` // Current balance
}

// ListAccountsHandler returns accounts page by page
func ListAccountsHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := 1      // Default page number
		pageSize := 20 // Default page size
		if p := c.Query("page"); p != "" {
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v // Set page if valid
			}
		}
		// Check and set page size within limits
		if ps := c.Query("page_size"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
				pageSize = v // Set page size
			}
		}
		accounts, total, err := engine.ListAccounts(c.Request.Context(), page, pageSize)
		if err != nil {
			respondError(c, err)
			return
		}
		totalPages := (int(total) + pageSize - 1) / pageSize // Calculate total pages
		resp := make([]AccountView, len(accounts))
		// Map accounts to response format
		for i, a := range accounts {
			resp[i] = AccountView{ID: a.ID, Name: a.Name, Email: a.Email, Balance: a.Balance}
		}
		c.JSON(http.StatusOK, gin.H{
			"accounts":    resp,       // List of accounts
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total number of accounts
			"total_pages": totalPages, // Total pages
		})
	}
}
