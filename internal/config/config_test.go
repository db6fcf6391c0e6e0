package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir()) // No .env here

	cfg := LoadConfig()
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "ledger.db", cfg.SQLitePath)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.AutoMigrate)
	assert.False(t, cfg.IsProd)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadConfigFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REQUEST_TIMEOUT", "750ms")
	t.Setenv("IS_PROD", "true")

	cfg := LoadConfig()
	assert.Equal(t, "9090", cfg.AppPort)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 750*time.Millisecond, cfg.RequestTimeout)
	assert.True(t, cfg.IsProd)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "ledger.env")
	require.NoError(t, os.WriteFile(path, []byte("DB_NAME=books\nCACHE_TTL=1m\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("DB_NAME")
		os.Unsetenv("CACHE_TTL")
	})

	cfg := LoadConfig(path)
	assert.Equal(t, "books", cfg.DBName)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
}

func TestMySQLDSN(t *testing.T) {
	cfg := &Config{DBUser: "root", DBPassword: "secret", DBHost: "db", DBPort: "3306", DBName: "ledger"}
	assert.Equal(t, "root:secret@tcp(db:3306)/ledger?charset=utf8mb4&parseTime=true&loc=UTC", cfg.MySQLDSN())
}

// chdir switches the working directory for the duration of the test
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
