package vocabulary

import (
	"context"
	"encoding/json"
	"time"

	"github.com/conduit-lang/excellent/internal/cache"
	"go.uber.org/zap"
)

// CachedStore puts a cache in front of a slower store
type CachedStore struct {
	store  Store
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedStore wraps store with c. A zero ttl uses the cache's default.
func NewCachedStore(store Store, c cache.Cache, ttl time.Duration, logger *zap.Logger) *CachedStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedStore{store: store, cache: c, ttl: ttl, logger: logger}
}

// Children returns the entries below parent
func (s *CachedStore) Children(ctx context.Context, parent string) ([]Entry, error) {
	parent = NormalizePath(parent)
	return s.load(ctx, "vocab:children:"+parent, func() ([]Entry, error) {
		return s.store.Children(ctx, parent)
	})
}

// Functions returns the callable functions
func (s *CachedStore) Functions(ctx context.Context) ([]Entry, error) {
	return s.load(ctx, "vocab:functions", func() ([]Entry, error) {
		return s.store.Functions(ctx)
	})
}

// Invalidate drops every cached lookup
func (s *CachedStore) Invalidate(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

func (s *CachedStore) load(ctx context.Context, key string, fetch func() ([]Entry, error)) ([]Entry, error) {
	data, err := s.cache.Get(ctx, key)
	if err == nil {
		var entries []Entry
		if err := json.Unmarshal(data, &entries); err == nil {
			return entries, nil
		}
		s.logger.Warn("discarding undecodable vocabulary cache entry", zap.String("key", key))
	} else if !cache.IsCacheMiss(err) {
		// a broken cache shouldn't break completion
		s.logger.Warn("vocabulary cache unavailable", zap.String("key", key), zap.Error(err))
	}

	entries, err := fetch()
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(entries); err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			s.logger.Warn("failed to cache vocabulary", zap.String("key", key), zap.Error(err))
		}
	}

	return entries, nil
}
