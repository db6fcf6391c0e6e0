package config

import (
	"fmt"  // DSN formatting
	"time" // Durations

	"github.com/joho/godotenv" // For loading .env files
	"github.com/spf13/viper"   // Environment lookup with defaults
)

// Config holds the application configuration
type Config struct {
	AppPort           string        // Application port
	DBDriver          string        // Storage driver: mysql or sqlite
	DBUser            string        // Database user
	DBPassword        string        // Database password
	DBHost            string        // Database host
	DBPort            string        // Database port
	DBName            string        // Database name
	SQLitePath        string        // SQLite database file
	DBMaxOpenConns    int           // Pool: max open connections
	DBMaxIdleConns    int           // Pool: max idle connections
	DBConnMaxLifetime time.Duration // Pool: max connection lifetime
	DBLogLevel        string        // GORM log level
	AutoMigrate       bool          // Run migrations on server start
	RedisAddr         string        // Redis server address, empty disables the cache
	RedisPass         string        // Redis password
	RedisDB           int           // Redis database number
	CacheTTL          time.Duration // Cached read lifetime
	RequestTimeout    time.Duration // Per-request deadline
	LogLevel          string        // Logrus level
	IsProd            bool          // Is production environment
}

// LoadConfig loads configuration from the environment, reading envFiles
// (or .env when none are given) first if present
func LoadConfig(envFiles ...string) *Config {
	_ = godotenv.Load(envFiles...) // Load .env file if present

	v := viper.New()
	v.AutomaticEnv() // Every key below is read from the environment variable of the same name
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_NAME", "ledger")
	v.SetDefault("SQLITE_PATH", "ledger.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	v.SetDefault("DB_LOG_LEVEL", "error")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", 30*time.Second)
	v.SetDefault("REQUEST_TIMEOUT", 5*time.Second)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("IS_PROD", false)

	return &Config{
		AppPort:           v.GetString("APP_PORT"),               // Application port
		DBDriver:          v.GetString("DB_DRIVER"),              // Storage driver
		DBUser:            v.GetString("DB_USER"),                // Database user
		DBPassword:        v.GetString("DB_PASSWORD"),            // Database password
		DBHost:            v.GetString("DB_HOST"),                // Database host
		DBPort:            v.GetString("DB_PORT"),                // Database port
		DBName:            v.GetString("DB_NAME"),                // Database name
		SQLitePath:        v.GetString("SQLITE_PATH"),            // SQLite file
		DBMaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),         // Pool size
		DBMaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),         // Idle pool size
		DBConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"), // Connection lifetime
		DBLogLevel:        v.GetString("DB_LOG_LEVEL"),           // GORM log level
		AutoMigrate:       v.GetBool("AUTO_MIGRATE"),             // Migrate on start
		RedisAddr:         v.GetString("REDIS_ADDR"),             // Redis server address
		RedisPass:         v.GetString("REDIS_PASS"),             // Redis password
		RedisDB:           v.GetInt("REDIS_DB"),                  // Redis database number
		CacheTTL:          v.GetDuration("CACHE_TTL"),            // Cache lifetime
		RequestTimeout:    v.GetDuration("REQUEST_TIMEOUT"),      // Request deadline
		LogLevel:          v.GetString("LOG_LEVEL"),              // Logrus level
		IsProd:            v.GetBool("IS_PROD"),                  // Is production environment
	}
}

// MySQLDSN builds the Data Source Name for the MySQL driver
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}
