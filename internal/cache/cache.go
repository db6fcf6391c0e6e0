package cache

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Error comparison
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client

	"ledger_service/internal/domain" // Email canonicalization
)

// Cache is a JSON read cache in Redis. A nil *Cache is a disabled cache:
// reads always miss and writes are no-ops.
type Cache struct {
	rdb *redis.Client // Redis client
	ttl time.Duration // Entry lifetime
}

// New wraps a Redis client; entries expire after ttl
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// BalanceKey is the cache key for an account's balance response
func BalanceKey(email string) string {
	return "ledger:balance:" + domain.CanonicalEmail(email)
}

// GenerationKey holds a counter bumped on every invalidation of the account
func GenerationKey(email string) string {
	return "ledger:gen:" + domain.CanonicalEmail(email)
}

// HistoryKey is the cache key for an account's history response
func HistoryKey(email string) string {
	return "ledger:history:" + domain.CanonicalEmail(email)
}

// Get retrieves a value and unmarshals it into dest
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil {
		return false, nil // Cache disabled
	}
	val, err := c.rdb.Get(ctx, key).Bytes() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal(val, dest) // Unmarshal JSON into dest
}

// Generation returns the account's current invalidation counter. Read it
// before loading from the store and hand it to SetIfCurrent.
func (c *Cache) Generation(ctx context.Context, email string) (string, error) {
	if c == nil {
		return "", nil
	}
	gen, err := c.rdb.Get(ctx, GenerationKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil // Never invalidated
	}
	return gen, err
}

// SetIfCurrent stores value only while the account's generation still equals
// gen, so a read that loaded before a write committed cannot cache its result
// after that write's invalidation. Reports whether the value was stored.
func (c *Cache) SetIfCurrent(ctx context.Context, email, gen, key string, value any) (bool, error) {
	if c == nil {
		return false, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	genKey := GenerationKey(email)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Result()
		if errors.Is(err, redis.Nil) {
			cur = "0"
		} else if err != nil {
			return err
		}
		if cur != gen {
			return redis.TxFailedErr // Invalidated since gen was read
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InvalidateAccount drops every cached read for the account and bumps its
// generation so in-flight reads do not repopulate it with older data
func (c *Cache) InvalidateAccount(ctx context.Context, email string) error {
	if c == nil {
		return nil
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey(email))
		pipe.Del(ctx, BalanceKey(email), HistoryKey(email))
		return nil
	})
	return err
}

// Ping checks the Redis connection
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}
