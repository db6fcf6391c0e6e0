package db_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ledger_service/internal/db"
	"ledger_service/internal/db/dbtest"
	"ledger_service/internal/domain"
)

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := db.Open(db.Options{Driver: "postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestMigrateIsIdempotent(t *testing.T) {
	store, err := db.Open(db.Options{
		Driver:     db.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "ledger.db"),
		LogLevel:   "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(store) })

	require.NoError(t, db.Migrate(store, db.DriverSQLite))
	require.NoError(t, db.Migrate(store, db.DriverSQLite))

	mg, err := db.NewMigrator(store, db.DriverSQLite)
	require.NoError(t, err)
	version, dirty, err := mg.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	assert.True(t, store.Migrator().HasTable("accounts"))
	assert.True(t, store.Migrator().HasTable("transactions"))
}

func TestMigrateDown(t *testing.T) {
	store := dbtest.New(t)

	mg, err := db.NewMigrator(store, db.DriverSQLite)
	require.NoError(t, err)
	require.NoError(t, mg.Down())

	version, _, err := mg.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, store.Migrator().HasTable("accounts"))
}

func TestSchemaEnforcesUniqueEmail(t *testing.T) {
	store := dbtest.New(t)

	require.NoError(t, store.Create(&domain.Account{Name: "Alice", Email: "a@x.com"}).Error)
	err := store.Create(&domain.Account{Name: "Other", Email: "a@x.com"}).Error
	require.Error(t, err)

	var count int64
	require.NoError(t, store.Model(&domain.Account{}).Where("email = ?", "a@x.com").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSchemaRejectsNegativeBalance(t *testing.T) {
	store := dbtest.New(t)

	acct := domain.Account{Name: "Alice", Email: "a@x.com", Balance: 100}
	require.NoError(t, store.Create(&acct).Error)

	err := store.Model(&acct).Update("balance", gorm.Expr("balance - ?", 101)).Error
	require.Error(t, err)

	var got domain.Account
	require.NoError(t, store.First(&got, acct.ID).Error)
	assert.Equal(t, domain.Amount(100), got.Balance)
}

func TestSchemaRejectsOrphanTransaction(t *testing.T) {
	store := dbtest.New(t)

	err := store.Create(&domain.Transaction{
		Reference: "00000000-0000-0000-0000-000000000001",
		AccountID: 42,
		Kind:      domain.KindDeposit,
		Amount:    10,
	}).Error
	require.Error(t, err)
}

func TestSQLiteStoreAllowsConcurrentConnections(t *testing.T) {
	store := dbtest.New(t)

	var mode string
	require.NoError(t, store.Raw("PRAGMA journal_mode").Scan(&mode).Error)
	assert.Equal(t, "wal", mode)

	sqlDB, err := store.DB()
	require.NoError(t, err)
	assert.Greater(t, sqlDB.Stats().MaxOpenConnections, 1)

	// A reader on another connection sees committed rows while a write transaction is open
	tx := store.Begin()
	require.NoError(t, tx.Error)
	defer tx.Rollback()
	require.NoError(t, tx.Create(&domain.Account{Name: "A", Email: "a@x.com"}).Error)

	var n int64
	require.NoError(t, store.Model(&domain.Account{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)
}
