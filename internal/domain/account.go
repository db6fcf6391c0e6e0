package domain

import (
	"strings" // Email canonicalization
	"time"    // Timestamps
)

// Account Model
type Account struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`                       // Primary key, assigned by storage
	Name           string    `gorm:"not null" json:"name"`                       // Display name
	Email          string    `gorm:"uniqueIndex;size:320;not null" json:"email"` // Canonical email, unique
	Balance        Amount    `gorm:"not null;default:0" json:"balance"`          // Current balance in minor units
	OpeningBalance Amount    `gorm:"not null;default:0" json:"opening_balance"`  // Balance the account was created with
	CreatedAt      time.Time `json:"created_at"`                                 // Creation time
	UpdatedAt      time.Time `json:"updated_at"`                                 // Last mutation time
}

// CanonicalEmail returns the lookup key for an email: trimmed and lower-cased
func CanonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
