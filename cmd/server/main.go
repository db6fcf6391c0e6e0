package main

import (
	"context"   // Shutdown deadline
	"errors"    // Error comparison
	"fmt"       // Error wrapping
	"net/http"  // HTTP server
	"os"        // Exit codes
	"os/signal" // Signal handling
	"syscall"   // Termination signals
	"time"      // Timeouts

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"github.com/spf13/cobra"       // CLI flags

	"ledger_service/internal/api"    // HTTP handlers
	"ledger_service/internal/cache"  // Redis read cache
	"ledger_service/internal/config" // Configuration
	"ledger_service/internal/db"     // Storage
	"ledger_service/internal/ledger" // Ledger engine
)

func main() {
	var (
		port    string // --port override
		envFile string // --env-file override
	)
	cmd := &cobra.Command{
		Use:          "server",
		Short:        "Run the ledger HTTP service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg *config.Config
			if envFile != "" {
				cfg = config.LoadConfig(envFile)
			} else {
				cfg = config.LoadConfig()
			}
			if port != "" {
				cfg.AppPort = port
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides APP_PORT)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "env file to load instead of .env")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

// run sets up storage, cache and the router, and serves until ctx is done
func run(ctx context.Context, cfg *config.Config) error {
	setupLogger(cfg)

	// Connect to the ledger store
	store, err := db.Open(db.Options{
		Driver:          cfg.DBDriver,
		DSN:             cfg.MySQLDSN(),
		SQLitePath:      cfg.SQLitePath,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		LogLevel:        cfg.DBLogLevel,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to DB: %w", err)
	}
	defer db.Close(store)

	if cfg.AutoMigrate {
		if err := db.Migrate(store, cfg.DBDriver); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	// Setup Redis cache, disabled when no address is configured
	var readCache *cache.Cache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		defer redisClient.Close()
		readCache = cache.New(redisClient, cfg.CacheTTL)
		// Test Redis connection
		if err := readCache.Ping(ctx); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
	} else {
		logrus.Info("REDIS_ADDR not set, read cache disabled")
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := ledger.NewEngine(store, logrus.StandardLogger())
	router, err := api.NewRouter(engine, readCache, api.RouterOptions{
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logrus.StandardLogger(),
		TrustedProxies: []string{"127.0.0.1"},
	})
	if err != nil {
		return fmt.Errorf("failed to set up router: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("port", cfg.AppPort).Info("Server running") // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Drain in-flight requests; each one either commits or rolls back
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// setupLogger configures the global logrus logger
func setupLogger(cfg *config.Config) {
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
