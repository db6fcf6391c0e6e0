// Package ledger implements the account ledger: registry, balance mutator,
// transaction journal and the engine that composes them into atomic operations.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ledger_service/internal/domain"
)

// Receipt describes one committed deposit or withdrawal
type Receipt struct {
	AccountID     uint64        `json:"account_id"`
	TransactionID uint64        `json:"transaction_id"`
	Reference     string        `json:"reference"`
	Kind          domain.Kind   `json:"kind"`
	Amount        domain.Amount `json:"amount"`
	Balance       domain.Amount `json:"balance"`
}

// History is a point-in-time snapshot of an account and its journal
type History struct {
	Account      domain.Account
	Transactions []domain.Transaction // Most recent first
}

// AuditReport compares the stored balance against the one rebuilt from the journal.
// Totals are decimal major units: a busy account's lifetime deposits can exceed
// what an Amount holds even though every balance along the way fits.
type AuditReport struct {
	Email          string          `json:"email"`
	OpeningBalance domain.Amount   `json:"opening_balance"`
	Deposits       decimal.Decimal `json:"deposits"`
	Withdrawals    decimal.Decimal `json:"withdrawals"`
	Entries        int             `json:"entries"`
	Balance        domain.Amount   `json:"balance"`
	Computed       decimal.Decimal `json:"computed"`
	Consistent     bool            `json:"consistent"`
}

// Engine is the public face of the ledger. Every operation runs in its own
// store transaction borrowed from the pool; there is no engine-wide lock, so
// only mutations of the same account row contend with each other.
type Engine struct {
	db       *gorm.DB
	registry *Registry
	mutator  *Mutator
	journal  *Journal
	log      logrus.FieldLogger
}

// NewEngine builds an engine on top of an open store
func NewEngine(db *gorm.DB, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		db:       db,
		registry: NewRegistry(),
		mutator:  NewMutator(),
		journal:  NewJournal(),
		log:      log,
	}
}

// CreateAccount registers a new account. The opening balance is stored on the
// account row and is not journaled.
func (e *Engine) CreateAccount(ctx context.Context, name, email string, opening domain.Amount) (*domain.Account, error) {
	acct, err := e.registry.Create(e.db.WithContext(ctx), name, email, opening)
	if err != nil {
		return nil, e.fail(ctx, err, logrus.Fields{"op": "create_account", "email": domain.CanonicalEmail(email)})
	}
	e.log.WithFields(logrus.Fields{
		"account_id":      acct.ID,
		"email":           acct.Email,
		"opening_balance": acct.OpeningBalance.String(),
	}).Info("Account created")
	return acct, nil
}

// Deposit credits the account and journals the credit as one atomic unit
func (e *Engine) Deposit(ctx context.Context, email string, amount domain.Amount) (*Receipt, error) {
	return e.mutate(ctx, email, domain.KindDeposit, amount)
}

// Withdraw debits the account iff the balance covers amount at commit time,
// journaling the debit in the same atomic unit
func (e *Engine) Withdraw(ctx context.Context, email string, amount domain.Amount) (*Receipt, error) {
	return e.mutate(ctx, email, domain.KindWithdraw, amount)
}

func (e *Engine) mutate(ctx context.Context, email string, kind domain.Kind, amount domain.Amount) (*Receipt, error) {
	fields := logrus.Fields{"op": string(kind), "email": domain.CanonicalEmail(email), "amount": amount.String()}
	if amount <= 0 {
		return nil, e.fail(ctx, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount), fields)
	}

	var receipt Receipt
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acct, err := e.registry.Lookup(tx, email)
		if err != nil {
			return err
		}

		var balance domain.Amount
		switch kind {
		case domain.KindDeposit:
			balance, err = e.mutator.ApplyDeposit(tx, acct.ID, amount)
		case domain.KindWithdraw:
			balance, err = e.mutator.ApplyWithdraw(tx, acct.ID, amount)
		}
		if err != nil {
			return err
		}

		entry, err := e.journal.Append(tx, acct.ID, kind, amount)
		if err != nil {
			return err // Rolls back the balance change
		}

		receipt = Receipt{
			AccountID:     acct.ID,
			TransactionID: entry.ID,
			Reference:     entry.Reference,
			Kind:          kind,
			Amount:        amount,
			Balance:       balance,
		}
		return nil
	})
	if err != nil {
		return nil, e.fail(ctx, err, fields)
	}

	e.log.WithFields(logrus.Fields{
		"account_id":     receipt.AccountID,
		"transaction_id": receipt.TransactionID,
		"reference":      receipt.Reference,
		"type":           string(kind),
		"amount":         amount.String(),
		"balance":        receipt.Balance.String(),
	}).Info("Ledger transaction committed")
	return &receipt, nil
}

// GetBalance returns the committed balance for email
func (e *Engine) GetBalance(ctx context.Context, email string) (domain.Amount, error) {
	balance, err := e.registry.GetBalance(e.db.WithContext(ctx), email)
	if err != nil {
		return 0, e.fail(ctx, err, logrus.Fields{"op": "balance", "email": domain.CanonicalEmail(email)})
	}
	return balance, nil
}

// GetHistory returns the account and all its journal entries, most recent first.
// Both reads share one transaction so the snapshot is internally consistent.
func (e *Engine) GetHistory(ctx context.Context, email string) (*History, error) {
	var history History
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acct, err := e.registry.Lookup(tx, email)
		if err != nil {
			return err
		}
		entries, err := e.journal.History(tx, acct.ID)
		if err != nil {
			return err
		}
		history = History{Account: *acct, Transactions: entries}
		return nil
	})
	if err != nil {
		return nil, e.fail(ctx, err, logrus.Fields{"op": "history", "email": domain.CanonicalEmail(email)})
	}
	return &history, nil
}

// Audit rebuilds the balance from the opening balance and the journal and
// compares it with the stored balance
func (e *Engine) Audit(ctx context.Context, email string) (*AuditReport, error) {
	history, err := e.GetHistory(ctx, email)
	if err != nil {
		return nil, err
	}
	report := AuditReport{
		Email:          history.Account.Email,
		OpeningBalance: history.Account.OpeningBalance,
		Deposits:       decimal.Zero,
		Withdrawals:    decimal.Zero,
		Entries:        len(history.Transactions),
		Balance:        history.Account.Balance,
	}
	for _, entry := range history.Transactions {
		switch entry.Kind {
		case domain.KindDeposit:
			report.Deposits = report.Deposits.Add(entry.Amount.Decimal())
		case domain.KindWithdraw:
			report.Withdrawals = report.Withdrawals.Add(entry.Amount.Decimal())
		}
	}
	report.Computed = report.OpeningBalance.Decimal().Add(report.Deposits).Sub(report.Withdrawals)
	report.Consistent = report.Computed.Equal(report.Balance.Decimal())
	if !report.Consistent {
		e.log.WithFields(logrus.Fields{
			"email":    report.Email,
			"balance":  report.Balance.String(),
			"computed": report.Computed.StringFixed(domain.AmountScale),
		}).Error("Ledger audit mismatch")
	}
	return &report, nil
}

// ListAccounts returns one page of accounts (1-based page) and the total count
func (e *Engine) ListAccounts(ctx context.Context, page, pageSize int) ([]domain.Account, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	accounts, total, err := e.registry.List(e.db.WithContext(ctx), (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, e.fail(ctx, err, logrus.Fields{"op": "list_accounts", "page": page})
	}
	return accounts, total, nil
}

// fail normalizes an operation error: domain errors pass through, a done
// context surfaces the context error, anything else is a storage fault.
func (e *Engine) fail(ctx context.Context, err error, fields logrus.Fields) error {
	if IsDomainError(err) {
		e.log.WithFields(fields).WithError(err).Debug("Ledger operation rejected")
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		e.log.WithFields(fields).WithError(ctxErr).Warn("Ledger operation abandoned")
		return ctxErr
	}
	err = storageError(err)
	e.log.WithFields(fields).WithError(err).Error("Ledger operation failed")
	return err
}

// IsDomainError reports whether err is an expected, caller-recoverable ledger error
func IsDomainError(err error) bool {
	return errors.Is(err, domain.ErrInvalidAmount) ||
		errors.Is(err, domain.ErrAccountNotFound) ||
		errors.Is(err, domain.ErrDuplicateAccount) ||
		errors.Is(err, domain.ErrInsufficientFunds)
}
