// Package cache provides the byte caches that sit in front of slow vocabulary
// backends. Values are opaque; callers own their encoding.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Cache defines the interface for all cache backends
type Cache interface {
	// Get retrieves a value, returning ErrCacheMiss when the key is absent or expired
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL; zero means the configured default
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value
	Delete(ctx context.Context, key string) error

	// Clear removes every value under this cache's prefix
	Clear(ctx context.Context) error

	// Close releases the backend
	Close() error
}

// Config holds settings shared by all backends
type Config struct {
	// DefaultTTL applies when Set is called with a zero TTL
	DefaultTTL time.Duration
	// Prefix is prepended to all keys
	Prefix string
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() Config {
	return Config{
		DefaultTTL: 5 * time.Minute,
		Prefix:     "excellent:",
	}
}

// ErrCacheMiss is returned when a key is not found in the cache
type ErrCacheMiss struct {
	Key string
}

func (e ErrCacheMiss) Error() string {
	return "cache miss: " + e.Key
}

// IsCacheMiss checks if an error is a cache miss
func IsCacheMiss(err error) bool {
	var miss ErrCacheMiss
	return errors.As(err, &miss)
}

// Backend names accepted by New
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Options selects and configures a backend
type Options struct {
	Backend   string
	RedisAddr string
	RedisDB   int
	TTL       time.Duration
}

// New builds the backend named by opts. It returns (nil, nil) for BackendNone
// and an empty backend, meaning no caching.
func New(opts Options) (Cache, error) {
	config := DefaultConfig()
	if opts.TTL > 0 {
		config.DefaultTTL = opts.TTL
	}

	switch opts.Backend {
	case "", BackendNone:
		return nil, nil //nolint:nilnil // no cache configured
	case BackendMemory:
		return NewMemoryCacheWithConfig(config), nil
	case BackendRedis:
		redisCache, err := NewRedisCacheWithConfig(RedisConfig{
			Addr:   opts.RedisAddr,
			DB:     opts.RedisDB,
			Config: config,
		})
		if err != nil {
			return nil, err
		}
		return redisCache, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
