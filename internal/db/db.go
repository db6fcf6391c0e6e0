package db

import (
	"fmt"  // Error wrapping
	"time" // Pool lifetimes

	"gorm.io/driver/mysql"  // MySQL driver for GORM
	"gorm.io/driver/sqlite" // SQLite driver for GORM (mattn/go-sqlite3)
	"gorm.io/gorm"          // GORM ORM library
)

// Supported storage drivers
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// defaultSQLiteConns is the SQLite pool size when Options.MaxOpenConns is unset
const defaultSQLiteConns = 8

// Options holds what is needed to open the ledger store
type Options struct {
	Driver          string        // mysql or sqlite
	DSN             string        // MySQL data source name
	SQLitePath      string        // SQLite database file
	MaxOpenConns    int           // Pool: max open connections
	MaxIdleConns    int           // Pool: max idle connections
	ConnMaxLifetime time.Duration // Pool: max connection lifetime
	LogLevel        string        // GORM log level: silent, error, warn, info
}

// Open connects to the store and configures the connection pool.
// Every ledger operation borrows its own connection from this pool for the
// lifetime of one transaction, so unrelated requests never share a handle.
func Open(opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case DriverMySQL:
		dialector = mysql.Open(opts.DSN)
	case DriverSQLite:
		dialector = sqlite.Open(SQLiteDSN(opts.SQLitePath))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true, // Map unique violations to gorm.ErrDuplicatedKey
		Logger:         NewLogger(opts.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", opts.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.db: %w", err)
	}
	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 && opts.Driver == DriverSQLite {
		maxOpen = defaultSQLiteConns
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("%s ping failed: %w", opts.Driver, err)
	}
	return db, nil
}

// SQLiteDSN builds the mattn/go-sqlite3 DSN for a ledger file. WAL lets plain
// reads run on their own connection while a writer holds its transaction open;
// transactions begin IMMEDIATE so writers queue on the busy timeout instead of
// failing a lock upgrade halfway through.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"
}

// Close closes the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
