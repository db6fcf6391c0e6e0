package domain

import "time" // Timestamps

// Kind is the direction of a journal entry
type Kind string

const (
	KindDeposit  Kind = "deposit"  // Balance increased
	KindWithdraw Kind = "withdraw" // Balance decreased
)

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	return k == KindDeposit || k == KindWithdraw
}

// Transaction Model, one immutable journal entry per committed mutation
type Transaction struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`                          // Primary key, ordering key for history
	Reference string    `gorm:"uniqueIndex;size:36;not null" json:"reference"` // Public UUID reference
	AccountID uint64    `gorm:"index;not null" json:"account_id"`              // Foreign key to Account
	Kind      Kind      `gorm:"size:16;not null" json:"kind"`                  // Transaction kind: deposit, withdraw
	Amount    Amount    `gorm:"not null" json:"amount"`                        // Always positive, direction is Kind
	CreatedAt time.Time `json:"created_at"`                                    // Timestamp of creation
}
