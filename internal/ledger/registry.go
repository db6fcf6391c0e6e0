package ledger

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ledger_service/internal/db"
	"ledger_service/internal/domain"
)

// Registry owns account identity: the email to account mapping.
// Methods take the handle to run on so the engine can scope them to a transaction.
type Registry struct{}

// NewRegistry creates an account registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Create persists a new account holding the opening balance. Email uniqueness
// is enforced by the store's unique index, not by a prior existence check.
func (r *Registry) Create(tx *gorm.DB, name, email string, opening domain.Amount) (*domain.Account, error) {
	if opening < 0 {
		return nil, fmt.Errorf("%w: opening balance must not be negative", domain.ErrInvalidAmount)
	}
	acct := domain.Account{
		Name:           name,
		Email:          domain.CanonicalEmail(email),
		Balance:        opening,
		OpeningBalance: opening,
	}
	if err := tx.Create(&acct).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrDuplicateAccount
		}
		return nil, storageError(err)
	}
	return &acct, nil
}

// Lookup finds an account by exact match on the canonical email
func (r *Registry) Lookup(tx *gorm.DB, email string) (*domain.Account, error) {
	var acct domain.Account
	err := tx.Where("email = ?", domain.CanonicalEmail(email)).Take(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, storageError(err)
	}
	return &acct, nil
}

// GetBalance returns the committed balance for email
func (r *Registry) GetBalance(tx *gorm.DB, email string) (domain.Amount, error) {
	acct, err := r.Lookup(tx, email)
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

// List returns one page of accounts ordered by ID, plus the total count
func (r *Registry) List(tx *gorm.DB, offset, limit int) ([]domain.Account, int64, error) {
	var total int64
	if err := tx.Model(&domain.Account{}).Count(&total).Error; err != nil {
		return nil, 0, storageError(err)
	}
	accounts := make([]domain.Account, 0, limit)
	if err := tx.Order("id asc").Offset(offset).Limit(limit).Find(&accounts).Error; err != nil {
		return nil, 0, storageError(err)
	}
	return accounts, total, nil
}

func storageError(err error) error {
	if errors.Is(err, domain.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
}
