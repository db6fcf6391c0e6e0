package ledger

import (
	"fmt"
	"math"

	"gorm.io/gorm"

	"ledger_service/internal/domain"
)

// Mutator applies balance changes to a single account. Each change is one
// conditional UPDATE, so the balance check and the write happen in the same
// storage operation and hold the row lock until the surrounding transaction ends.
type Mutator struct{}

// NewMutator creates a balance mutator
func NewMutator() *Mutator {
	return &Mutator{}
}

// ApplyDeposit adds amount to the balance and returns the new balance
func (m *Mutator) ApplyDeposit(tx *gorm.DB, accountID uint64, amount domain.Amount) (domain.Amount, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}
	res := tx.Model(&domain.Account{}).
		Where("id = ? AND balance <= ?", accountID, math.MaxInt64-int64(amount)).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return 0, storageError(res.Error)
	}
	if res.RowsAffected == 0 {
		if err := m.mustExist(tx, accountID); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("%w: balance would overflow", domain.ErrInvalidAmount)
	}
	return m.balance(tx, accountID)
}

// ApplyWithdraw subtracts amount iff the balance covers it, and returns the new balance
func (m *Mutator) ApplyWithdraw(tx *gorm.DB, accountID uint64, amount domain.Amount) (domain.Amount, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}
	res := tx.Model(&domain.Account{}).
		Where("id = ? AND balance >= ?", accountID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return 0, storageError(res.Error)
	}
	if res.RowsAffected == 0 {
		if err := m.mustExist(tx, accountID); err != nil {
			return 0, err
		}
		return 0, domain.ErrInsufficientFunds
	}
	return m.balance(tx, accountID)
}

func (m *Mutator) mustExist(tx *gorm.DB, accountID uint64) error {
	var count int64
	if err := tx.Model(&domain.Account{}).Where("id = ?", accountID).Count(&count).Error; err != nil {
		return storageError(err)
	}
	if count == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (m *Mutator) balance(tx *gorm.DB, accountID uint64) (domain.Amount, error) {
	var acct domain.Account
	if err := tx.Select("id", "balance").Take(&acct, accountID).Error; err != nil {
		return 0, storageError(err)
	}
	return acct.Balance, nil
}
