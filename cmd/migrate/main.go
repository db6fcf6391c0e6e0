package main

import (
	"fmt" // Version output
	"os"  // Exit codes

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"github.com/spf13/cobra"     // Subcommands

	"ledger_service/internal/config" // Configuration
	"ledger_service/internal/db"     // Storage and migrations
)

// Main entry point for migration
func main() {
	var envFile string
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the ledger schema",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load instead of .env")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(envFile, func(mg *db.Migrator) error { return mg.Up() })
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(envFile, func(mg *db.Migrator) error { return mg.Down() })
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(envFile, func(mg *db.Migrator) error {
					version, dirty, err := mg.Version()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
					return nil
				})
			},
		},
	)

	if err := root.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

// withMigrator opens the configured store and runs fn against its migrations
func withMigrator(envFile string, fn func(*db.Migrator) error) error {
	var cfg *config.Config
	if envFile != "" {
		cfg = config.LoadConfig(envFile)
	} else {
		cfg = config.LoadConfig()
	}

	store, err := db.Open(db.Options{
		Driver:     cfg.DBDriver,
		DSN:        cfg.MySQLDSN(),
		SQLitePath: cfg.SQLitePath,
		LogLevel:   cfg.DBLogLevel,
	})
	if err != nil {
		return err
	}
	defer db.Close(store)

	mg, err := db.NewMigrator(store, cfg.DBDriver)
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := fn(mg); err != nil {
		return err
	}
	logrus.WithField("driver", cfg.DBDriver).Info("Migration command completed.")
	return nil
}
