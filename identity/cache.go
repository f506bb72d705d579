package identity

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache is a time-bounded userID -> customerID cache in front of a Resolver.
// Expiry is lazy: stale entries are treated as absent on the next read, no
// background sweep. Concurrent misses for the same key are coalesced into a
// single upstream call.
type Cache struct {
	resolver Resolver
	store    Store
	ttl      time.Duration
	group    singleflight.Group
	logger   *zap.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Size   int    `json:"size"`
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// NewCache creates a Cache over resolver with the given store and TTL.
func NewCache(resolver Resolver, store Store, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{
		resolver: resolver,
		store:    store,
		ttl:      ttl,
		logger:   logger,
	}
}

// ResolveCustomerID implements Resolver. A fresh entry is returned without
// any network call; a miss or expired entry triggers one coalesced upstream
// lookup whose result (empty included) is cached. Failed lookups resolve to
// "" and are not cached.
func (c *Cache) ResolveCustomerID(ctx context.Context, userID string) (string, error) {
	if entry, ok := c.store.Get(userID); ok {
		if time.Since(entry.CreatedAt) < c.ttl {
			c.hits.Add(1)
			return entry.Value, nil
		}
		c.store.Delete(userID)
	}
	c.misses.Add(1)

	value, err, _ := c.group.Do(userID, func() (interface{}, error) {
		customerID, err := c.resolver.ResolveCustomerID(ctx, userID)
		if err != nil {
			c.logger.Warn("customer resolution failed, not caching",
				zap.String("user_id", userID),
				zap.Error(err))
			return "", err
		}
		c.store.Set(userID, Entry{Value: customerID, CreatedAt: time.Now()})
		return customerID, nil
	})
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// Stats returns current cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Size:   c.store.Len(),
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}
