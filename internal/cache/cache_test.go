package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, 30*time.Second), mr
}

type balanceEntry struct {
	Email   string `json:"email"`
	Balance int64  `json:"balance"`
}

// put stores value under the account's current generation
func put(t *testing.T, c *Cache, email, key string, value any) {
	t.Helper()
	ctx := context.Background()
	gen, err := c.Generation(ctx, email)
	require.NoError(t, err)
	stored, err := c.SetIfCurrent(ctx, email, gen, key, value)
	require.NoError(t, err)
	require.True(t, stored)
}

func TestCacheRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	var got balanceEntry
	found, err := c.Get(ctx, BalanceKey("a@x.com"), &got)
	require.NoError(t, err)
	assert.False(t, found)

	put(t, c, "a@x.com", BalanceKey("a@x.com"), balanceEntry{Email: "a@x.com", Balance: 150})
	found, err = c.Get(ctx, BalanceKey("A@X.com"), &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(150), got.Balance)

	assert.Equal(t, 30*time.Second, mr.TTL(BalanceKey("a@x.com")))
	mr.FastForward(31 * time.Second)
	found, err = c.Get(ctx, BalanceKey("a@x.com"), &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheInvalidateAccount(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	put(t, c, "a@x.com", BalanceKey("a@x.com"), balanceEntry{Balance: 1})
	put(t, c, "a@x.com", HistoryKey("a@x.com"), []string{"deposit"})
	put(t, c, "b@x.com", BalanceKey("b@x.com"), balanceEntry{Balance: 2})

	require.NoError(t, c.InvalidateAccount(ctx, "A@x.com"))
	assert.False(t, mr.Exists(BalanceKey("a@x.com")))
	assert.False(t, mr.Exists(HistoryKey("a@x.com")))
	assert.True(t, mr.Exists(BalanceKey("b@x.com")))
}

func TestCacheRejectsReadFromBeforeInvalidation(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	// A reader takes the generation and loads balance 10 from the store
	gen, err := c.Generation(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "0", gen)

	// A deposit commits and invalidates before the reader writes back
	require.NoError(t, c.InvalidateAccount(ctx, "a@x.com"))

	stored, err := c.SetIfCurrent(ctx, "a@x.com", gen, BalanceKey("a@x.com"), balanceEntry{Balance: 10})
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, mr.Exists(BalanceKey("a@x.com")))

	// The next reader sees the new generation and may cache
	gen, err = c.Generation(ctx, "A@x.com")
	require.NoError(t, err)
	assert.Equal(t, "1", gen)
	stored, err = c.SetIfCurrent(ctx, "a@x.com", gen, BalanceKey("a@x.com"), balanceEntry{Balance: 15})
	require.NoError(t, err)
	assert.True(t, stored)

	var got balanceEntry
	found, err := c.Get(ctx, BalanceKey("a@x.com"), &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(15), got.Balance)
}

func TestCacheRedisDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	var got balanceEntry
	_, err := c.Get(context.Background(), BalanceKey("a@x.com"), &got)
	assert.Error(t, err)
	assert.Error(t, c.Ping(context.Background()))
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	gen, err := c.Generation(ctx, "a@x.com")
	require.NoError(t, err)
	stored, err := c.SetIfCurrent(ctx, "a@x.com", gen, "k", 1)
	require.NoError(t, err)
	assert.False(t, stored)
	var v int
	found, err := c.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.InvalidateAccount(ctx, "a@x.com"))
	assert.NoError(t, c.Ping(ctx))
}
