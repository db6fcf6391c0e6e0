package api

import (
	"context"  // Context for cache operations
	"net/http" // HTTP status codes
	"time"     // Transaction timestamps

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library

	"ledger_service/internal/cache"  // Redis read cache
	"ledger_service/internal/domain" // Ledger domain types
	"ledger_service/internal/ledger" // Ledger engine
)

// CreateAccountRequest represents an account registration request
type CreateAccountRequest struct {
	Name           string        `json:"name" binding:"required"`        // Display name
	Email          string        `json:"email" binding:"required,email"` // Unique email
	InitialBalance domain.Amount `json:"initial_balance"`                // Opening balance, decimal >= 0
}

// MutationRequest represents a deposit or withdrawal request
type MutationRequest struct {
	Email  string        `json:"email" binding:"required,email"` // Account email
	Amount domain.Amount `json:"amount"`                         // Amount, decimal > 0
}

// EmailQuery is the query string of the read endpoints
type EmailQuery struct {
	Email string `form:"email" binding:"required,email"` // Account email
}

// MutationResponse is returned by deposit and withdraw
type MutationResponse struct {
	Message       string        `json:"message"`        // Outcome message
	Amount        domain.Amount `json:"amount"`         // Amount applied
	Balance       domain.Amount `json:"balance"`        // Balance after the mutation
	TransactionID uint64        `json:"transaction_id"` // Journal entry ID
	Reference     string        `json:"reference"`      // Journal entry reference
}

// BalanceResponse is returned by the balance endpoint
type BalanceResponse struct {
	Email   string        `json:"email"`   // Canonical email
	Balance domain.Amount `json:"balance"` // Committed balance
	Cached  bool          `json:"cached"`  // Served from cache
}

// TransactionView is one history entry
type TransactionView struct {
	ID        uint64        `json:"id"`         // Journal entry ID
	Reference string        `json:"reference"`  // Public reference
	Kind      domain.Kind   `json:"kind"`       // deposit or withdraw
	Amount    domain.Amount `json:"amount"`     // Positive amount
	CreatedAt time.Time     `json:"created_at"` // Commit time
}

// HistoryResponse is returned by the transactions endpoint
type HistoryResponse struct {
	Email          string            `json:"email"`           // Canonical email
	OpeningBalance domain.Amount     `json:"opening_balance"` // Balance at creation, not journaled
	Transactions   []TransactionView `json:"transactions"`    // Most recent first
	Cached         bool              `json:"cached"`          // Served from cache
}

// HealthHandler reports that the service is up
func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// CreateAccountHandler registers a new account
func CreateAccountHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateAccountRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err) // Malformed body or amount
			return
		}
		acct, err := engine.CreateAccount(c.Request.Context(), req.Name, req.Email, req.InitialBalance)
		if err != nil {
			respondError(c, err) // Duplicate, invalid amount or storage failure
			return
		}
		// Return created account ID
		c.JSON(http.StatusCreated, gin.H{"message": "Account created successfully", "account_id": acct.ID})
	}
}

// DepositHandler credits an account
func DepositHandler(engine *ledger.Engine, cc *cache.Cache, log logrus.FieldLogger) gin.HandlerFunc {
	return mutationHandler(engine.Deposit, cc, log, "Deposit successful")
}

// WithdrawHandler debits an account if the balance covers the amount
func WithdrawHandler(engine *ledger.Engine, cc *cache.Cache, log logrus.FieldLogger) gin.HandlerFunc {
	return mutationHandler(engine.Withdraw, cc, log, "Withdrawal successful")
}

// mutationHandler is shared by deposit and withdraw
func mutationHandler(apply func(context.Context, string, domain.Amount) (*ledger.Receipt, error), cc *cache.Cache, log logrus.FieldLogger, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req MutationRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		receipt, err := apply(c.Request.Context(), req.Email, req.Amount)
		if err != nil {
			respondError(c, err)
			return
		}
		// Invalidate cached reads for this account; the write already committed
		if err := cc.InvalidateAccount(context.Background(), req.Email); err != nil {
			log.WithFields(logrus.Fields{
				"email": domain.CanonicalEmail(req.Email), // Account email
				"error": err.Error(),                      // Error message
			}).Warn("Failed to invalidate cache")
		}
		// Return success response
		c.JSON(http.StatusOK, MutationResponse{
			Message:       message,
			Amount:        receipt.Amount,
			Balance:       receipt.Balance,
			TransactionID: receipt.TransactionID,
			Reference:     receipt.Reference,
		})
	}
}

// GetBalanceHandler returns the balance for an email
func GetBalanceHandler(engine *ledger.Engine, cc *cache.Cache, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q EmailQuery // Bind query string
		if err := c.ShouldBindQuery(&q); err != nil {
			respondBindError(c, err)
			return
		}
		ctx := c.Request.Context()
		cacheKey := cache.BalanceKey(q.Email) // Cache key for balance
		var resp BalanceResponse
		// If found in cache, return it
		if found, err := cc.Get(ctx, cacheKey, &resp); err == nil && found {
			resp.Cached = true
			c.JSON(http.StatusOK, resp)
			return
		}
		gen, genErr := cc.Generation(ctx, q.Email) // Taken before the store read
		balance, err := engine.GetBalance(ctx, q.Email)
		if err != nil {
			respondError(c, err)
			return
		}
		resp = BalanceResponse{Email: domain.CanonicalEmail(q.Email), Balance: balance}
		if genErr == nil {
			storeInCache(ctx, cc, log, q.Email, gen, cacheKey, resp)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// GetTransactionHistoryHandler returns all transactions for an email, most recent first
func GetTransactionHistoryHandler(engine *ledger.Engine, cc *cache.Cache, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q EmailQuery // Bind query string
		if err := c.ShouldBindQuery(&q); err != nil {
			respondBindError(c, err)
			return
		}
		ctx := c.Request.Context()
		cacheKey := cache.HistoryKey(q.Email) // Cache key for history
		var resp HistoryResponse
		// If found in cache, return it
		if found, err := cc.Get(ctx, cacheKey, &resp); err == nil && found {
			resp.Cached = true
			c.JSON(http.StatusOK, resp)
			return
		}
		gen, genErr := cc.Generation(ctx, q.Email) // Taken before the store read
		history, err := engine.GetHistory(ctx, q.Email)
		if err != nil {
			respondError(c, err)
			return
		}
		views := make([]TransactionView, len(history.Transactions))
		// Map journal entries to response format
		for i, t := range history.Transactions {
			views[i] = TransactionView{
				ID:        t.ID,
				Reference: t.Reference,
				Kind:      t.Kind,
				Amount:    t.Amount,
				CreatedAt: t.CreatedAt,
			}
		}
		resp = HistoryResponse{
			Email:          history.Account.Email,
			OpeningBalance: history.Account.OpeningBalance,
			Transactions:   views,
		}
		if genErr == nil {
			storeInCache(ctx, cc, log, q.Email, gen, cacheKey, resp)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// storeInCache caches a read unless the account was written since gen was taken
func storeInCache(ctx context.Context, cc *cache.Cache, log logrus.FieldLogger, email, gen, key string, value any) {
	if _, err := cc.SetIfCurrent(ctx, email, gen, key, value); err != nil {
		log.WithFields(logrus.Fields{
			"key":   key,         // Cache key
			"error": err.Error(), // Error message
		}).Warn("Failed to cache read")
	}
}

// AuditHandler rebuilds an account's balance from its journal and reports any mismatch
func AuditHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q EmailQuery // Bind query string
		if err := c.ShouldBindQuery(&q); err != nil {
			respondBindError(c, err)
			return
		}
		report, err := engine.Audit(c.Request.Context(), q.Email)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}
