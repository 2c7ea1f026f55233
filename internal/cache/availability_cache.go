// Package cache keeps computed availability reports in Redis.  Keys embed
// the reservation-set version, so a changed set never reads a stale entry;
// InvalidateProduct only reclaims space early.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/rental-availability/internal/config"
	"github.com/iliyamo/rental-availability/internal/model"
)

type AvailabilityCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewAvailabilityCache returns a cache over rdb.  A nil client or a
// disabled config gives a cache that stores nothing.
func NewAvailabilityCache(cfg config.CacheConfig, rdb *redis.Client) *AvailabilityCache {
	c := &AvailabilityCache{ttl: cfg.TTL, prefix: cfg.Prefix}
	if cfg.Enabled {
		c.rdb = rdb
	}
	if c.ttl <= 0 {
		c.ttl = 5 * time.Minute
	}
	if c.prefix == "" {
		c.prefix = "cache"
	}
	return c
}

// Enabled reports whether entries are actually stored.
func (c *AvailabilityCache) Enabled() bool { return c != nil && c.rdb != nil }

func (c *AvailabilityCache) productPrefix(productID uint64) string {
	return c.prefix + ":availability:" + strconv.FormatUint(productID, 10)
}

// Key identifies one report: the product, the stock it was computed with,
// the reservation-set version and the reference date.
func (c *AvailabilityCache) Key(productID uint64, initialStock int, version string, ref civil.Date) string {
	return fmt.Sprintf("%s:%d:%s:%s", c.productPrefix(productID), initialStock, version, ref)
}

// Get returns the cached report.  A miss is (nil, false, nil).
func (c *AvailabilityCache) Get(ctx context.Context, key string) (*model.AvailabilityReport, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}
	bs, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var rep model.AvailabilityReport
	if err := json.Unmarshal(bs, &rep); err != nil {
		// a corrupt entry is a miss; the caller overwrites it
		_ = c.rdb.Del(ctx, key).Err()
		return nil, false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return &rep, true, nil
}

func (c *AvailabilityCache) Set(ctx context.Context, key string, rep model.AvailabilityReport) error {
	if !c.Enabled() {
		return nil
	}
	bs, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, key, bs, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// InvalidateProduct deletes every entry of the product and returns how
// many were removed.
func (c *AvailabilityCache) InvalidateProduct(ctx context.Context, productID uint64) (int, error) {
	if !c.Enabled() {
		return 0, nil
	}
	var (
		cursor  uint64
		deleted int
	)
	match := c.productPrefix(productID) + ":*"
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("cache scan: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("cache del: %w", err)
			}
			deleted += int(n)
		}
		if next == 0 {
			return deleted, nil
		}
		cursor = next
	}
}
