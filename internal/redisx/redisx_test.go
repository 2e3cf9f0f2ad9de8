package redisx

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ariefcatur/go-backoffice/internal/notify"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestStatusCacheRoundTrip(t *testing.T) {
	mr, rdb := newClient(t)
	ctx := context.Background()
	c := &StatusCache{RDB: rdb, Key: KeyOrderStatus}

	_, ok := c.Get(ctx, "o-1")
	assert.False(t, ok)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, c.Set(ctx, "o-1", "shipped", at))
	got, ok := c.Get(ctx, "o-1")
	require.True(t, ok)
	assert.Equal(t, "shipped", got.Status)
	assert.True(t, at.Equal(got.UpdatedAt))
	assert.Equal(t, TTLStatusCache, mr.TTL("order_status:o-1"))

	require.NoError(t, c.Invalidate(ctx, "o-1"))
	_, ok = c.Get(ctx, "o-1")
	assert.False(t, ok)
}

func TestNilStatusCache(t *testing.T) {
	var c *StatusCache
	_, ok := c.Get(context.Background(), "x")
	assert.False(t, ok)
	assert.NoError(t, c.Set(context.Background(), "x", "paid", time.Now()))
}

func TestAckStoreSurvivesReload(t *testing.T) {
	_, rdb := newClient(t)
	ctx := context.Background()
	store := &AckStore{RDB: rdb}

	state, err := notify.LoadAckState(ctx, store)
	require.NoError(t, err)
	require.NoError(t, state.Ack(ctx, "schema:orders.tax_rate"))
	require.NoError(t, state.Ack(ctx, "other"))

	reloaded, err := notify.LoadAckState(ctx, &AckStore{RDB: rdb})
	require.NoError(t, err)
	assert.True(t, reloaded.Acked("schema:orders.tax_rate"))
	assert.Equal(t, []string{"other", "schema:orders.tax_rate"}, reloaded.IDs())
}

func TestPing(t *testing.T) {
	mr, rdb := newClient(t)
	assert.NoError(t, Ping(context.Background(), rdb))

	mr.Close()
	assert.Error(t, Ping(context.Background(), rdb))
}
