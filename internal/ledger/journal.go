package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ledger_service/internal/domain"
)

// Journal is the append-only transaction log. Entries are never updated or deleted.
type Journal struct{}

// NewJournal creates a transaction journal
func NewJournal() *Journal {
	return &Journal{}
}

// Append records one mutation. The store assigns the global, increasing ID.
func (j *Journal) Append(tx *gorm.DB, accountID uint64, kind domain.Kind, amount domain.Amount) (*domain.Transaction, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown transaction kind %q", kind)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}
	entry := domain.Transaction{
		Reference: uuid.NewString(),
		AccountID: accountID,
		Kind:      kind,
		Amount:    amount,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, storageError(err)
	}
	return &entry, nil
}

// History returns every entry for the account, most recent first
func (j *Journal) History(tx *gorm.DB, accountID uint64) ([]domain.Transaction, error) {
	entries := make([]domain.Transaction, 0)
	if err := tx.Where("account_id = ?", accountID).Order("id desc").Find(&entries).Error; err != nil {
		return nil, storageError(err)
	}
	return entries, nil
}
