package domain

import "errors"

// Ledger error taxonomy. Callers compare with errors.Is.
var (
	// ErrInvalidAmount is returned for non-positive, negative opening or malformed amounts
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrAccountNotFound is returned when no account matches the email
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateAccount is returned when the email is already registered
	ErrDuplicateAccount = errors.New("account with this email already exists")

	// ErrInsufficientFunds is returned when a withdrawal exceeds the balance at commit time
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrStorageUnavailable wraps any failure of the underlying store; it is retryable
	ErrStorageUnavailable = errors.New("storage unavailable")
)
