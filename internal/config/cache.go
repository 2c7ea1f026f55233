package config

import "time"

// CacheConfig controls the Redis availability cache.  Entries are keyed by
// the reservation-set version so TTL only bounds how long stale versions
// linger in Redis.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

func LoadCacheConfig() CacheConfig {
	c := CacheConfig{
		Enabled: envBool("CACHE_ENABLED", true),
		TTL:     envDur("CACHE_TTL", 5*time.Minute),
		Prefix:  getenv("CACHE_PREFIX", "cache"),
	}
	if c.TTL <= 0 {
		c.TTL = time.Minute
	}
	return c
}
