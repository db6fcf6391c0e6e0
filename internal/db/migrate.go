package db

import (
	"embed"  // Embedded migration files
	"errors" // Error comparison
	"fmt"    // Error wrapping

	"github.com/golang-migrate/migrate/v4"                                // Versioned migrations
	"github.com/golang-migrate/migrate/v4/database"                       // Migration database driver interface
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"    // MySQL migration driver
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3" // SQLite migration driver
	"github.com/golang-migrate/migrate/v4/source/iofs"                    // io/fs migration source
	"github.com/sirupsen/logrus"                                          // Logging
	"gorm.io/gorm"                                                        // GORM ORM library
)

//go:embed migrations
var migrationsFS embed.FS

// Migrator runs the embedded migrations for one driver against an open store
type Migrator struct {
	m        *migrate.Migrate
	dbDriver database.Driver
	driver   string
}

// NewMigrator prepares the migrations matching the store's driver
func NewMigrator(db *gorm.DB, driver string) (*Migrator, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.db: %w", err)
	}

	var dbDriver database.Driver
	switch driver {
	case DriverMySQL:
		dbDriver, err = migratemysql.WithInstance(sqlDB, &migratemysql.Config{})
	case DriverSQLite:
		dbDriver, err = migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set up migrate driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs source driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, dbDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to set up migrate instance: %w", err)
	}
	return &Migrator{m: m, dbDriver: dbDriver, driver: driver}, nil
}

// Up applies all pending migrations
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migration(up): %w", err)
	}
	return nil
}

// Down rolls back every applied migration
func (mg *Migrator) Down() error {
	if err := mg.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migration(down): %w", err)
	}
	return nil
}

// Version reports the current schema version and whether it is dirty
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Close releases the migration driver. The sqlite3 driver closes the shared
// *sql.DB on Close, so only the MySQL driver (which pins one connection) is closed.
func (mg *Migrator) Close() error {
	if mg.driver == DriverMySQL {
		return mg.dbDriver.Close()
	}
	return nil
}

// Migrate brings the schema up to date
func Migrate(db *gorm.DB, driver string) error {
	mg, err := NewMigrator(db, driver)
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Up(); err != nil {
		return err
	}
	version, _, _ := mg.Version()
	logrus.WithField("version", version).Info("Migration completed.")
	return nil
}
