package repository

import (
	"context"
	"encoding/json"

	"github.com/coocood/freecache"
	"github.com/mansoorceksport/hutraz/internal/domain"
	"github.com/sirupsen/logrus"
)

const megabyte = 1024 * 1024

// CachedStore wraps a store with an in-process read-through, write-through cache.
// Missing keys are not cached.
type CachedStore struct {
	next  domain.StateStore
	cache *freecache.Cache
}

// NewCachedStore creates a cache of sizeMB megabytes in front of next.
func NewCachedStore(next domain.StateStore, sizeMB int) *CachedStore {
	return &CachedStore{
		next:  next,
		cache: freecache.NewCache(sizeMB * megabyte),
	}
}

// Load tries the cache first, then the wrapped store.
func (r *CachedStore) Load(ctx context.Context, key string) (json.RawMessage, error) {
	if data, err := r.cache.Get([]byte(key)); err == nil {
		return data, nil
	}

	value, err := r.next.Load(ctx, key)
	if err != nil || value == nil {
		return value, err
	}

	// ignore cache errors, e.g. an entry larger than the cache allows
	if err := r.cache.Set([]byte(key), value, 0); err != nil {
		logrus.WithError(err).WithField("key", key).Debug("value not cached")
	}
	return value, nil
}

// Save writes to the wrapped store and refreshes the cached copy.
func (r *CachedStore) Save(ctx context.Context, key string, value json.RawMessage) error {
	if err := r.next.Save(ctx, key, value); err != nil {
		r.cache.Del([]byte(key))
		return err
	}
	if err := r.cache.Set([]byte(key), value, 0); err != nil {
		r.cache.Del([]byte(key))
	}
	return nil
}

// HitRate reports the fraction of loads served from the cache.
func (r *CachedStore) HitRate() float64 {
	return r.cache.HitRate()
}
