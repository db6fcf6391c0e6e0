package api

import (
	"time" // Request timeout

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging

	"ledger_service/internal/cache"      // Redis read cache
	"ledger_service/internal/ledger"     // Ledger engine
	"ledger_service/internal/middleware" // Request middleware
)

// RouterOptions tunes the HTTP layer
type RouterOptions struct {
	RequestTimeout time.Duration      // Deadline applied to every request
	Logger         logrus.FieldLogger // Access log and handler warnings
	TrustedProxies []string           // Proxies allowed to set client IP headers
}

// NewRouter wires every ledger endpoint onto a gin engine
func NewRouter(engine *ledger.Engine, cc *cache.Cache, opts RouterOptions) (*gin.Engine, error) {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	r := gin.New() // Gin router instance
	r.Use(gin.Recovery(), middleware.RequestLogger(opts.Logger), middleware.Timeout(opts.RequestTimeout))

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}

	r.GET("/health", HealthHandler())                                             // Health check endpoint
	r.POST("/create-account", CreateAccountHandler(engine))                       // Account registration endpoint
	r.POST("/deposit", DepositHandler(engine, cc, opts.Logger))                   // Deposit endpoint
	r.POST("/withdraw", WithdrawHandler(engine, cc, opts.Logger))                 // Withdraw endpoint
	r.GET("/balance", GetBalanceHandler(engine, cc, opts.Logger))                 // Balance endpoint
	r.GET("/transactions", GetTransactionHistoryHandler(engine, cc, opts.Logger)) // Transaction history endpoint
	r.GET("/audit", AuditHandler(engine))                                         // Journal reconciliation endpoint
	r.GET("/accounts", ListAccountsHandler(engine))                               // Account listing endpoint
	return r, nil
}
