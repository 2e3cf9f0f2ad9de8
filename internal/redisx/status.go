package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type CachedStatus struct {
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusCache is a read-through cache of document statuses. A nil *StatusCache
// is valid and caches nothing.
type StatusCache struct {
	RDB redis.Cmdable
	Key string // KeyOrderStatus or KeyInvoiceStatus
	TTL time.Duration
}

func (c *StatusCache) Get(ctx context.Context, id string) (CachedStatus, bool) {
	var cs CachedStatus
	if c == nil || c.RDB == nil {
		return cs, false
	}
	b, err := c.RDB.Get(ctx, fmt.Sprintf(c.Key, id)).Bytes()
	if err != nil {
		return cs, false
	}
	if err := json.Unmarshal(b, &cs); err != nil {
		return cs, false
	}
	return cs, true
}

func (c *StatusCache) Set(ctx context.Context, id, status string, at time.Time) error {
	if c == nil || c.RDB == nil {
		return nil
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = TTLStatusCache
	}
	b, _ := json.Marshal(CachedStatus{Status: status, UpdatedAt: at})
	return c.RDB.Set(ctx, fmt.Sprintf(c.Key, id), b, ttl).Err()
}

func (c *StatusCache) Invalidate(ctx context.Context, id string) error {
	if c == nil || c.RDB == nil {
		return nil
	}
	err := c.RDB.Del(ctx, fmt.Sprintf(c.Key, id)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
