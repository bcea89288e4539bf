package apicache

import (
	"context"
	"time"

	"github.com/therealutkarshpriyadarshi/curator/internal/logging"
	"github.com/therealutkarshpriyadarshi/curator/internal/metrics"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

// Store persists cache entries durably. Reads bump access counters; an
// expired entry reads as a miss.
type Store interface {
	GetCacheEntry(ctx context.Context, key string) (*models.CacheEntry, error)
	PutCacheEntry(ctx context.Context, key, cacheType string, payload []byte, ttl time.Duration) error
	SweepCache(ctx context.Context) (int64, error)
}

// Reserver admits upstream calls against a daily unit budget
type Reserver interface {
	Reserve(ctx context.Context, apiName string, unitCost int) (int, error)
}

// Cache fronts upstream API calls with a durable response cache and a
// quota ledger. The order is fixed: cache first, then quota, then the
// actual call. A cache hit consumes no quota.
type Cache struct {
	store  Store
	quota  Reserver
	logger *logging.Logger
}

// New creates a cache-fronted fetch layer
func New(store Store, quota Reserver, logger *logging.Logger) *Cache {
	return &Cache{store: store, quota: quota, logger: logger}
}

// Fetch returns the cached payload for key, or reserves unitCost quota
// units, invokes fn and caches its result under the given TTL. The second
// return reports whether the payload came from cache. A failed cache write
// does not fail the fetch: the payload is already paid for.
func (c *Cache) Fetch(ctx context.Context, key, cacheType, apiName string, unitCost int, ttl time.Duration, fn func(ctx context.Context) ([]byte, error)) ([]byte, bool, error) {
	entry, err := c.store.GetCacheEntry(ctx, key)
	if err != nil {
		// A broken cache read degrades to a miss rather than failing the call
		c.logger.WithError(err).WithField("key", key).Warn("Cache read failed, treating as miss")
	}
	if entry != nil {
		metrics.RecordCacheAccess(cacheType, true)
		return entry.Payload, true, nil
	}
	metrics.RecordCacheAccess(cacheType, false)

	if _, err := c.quota.Reserve(ctx, apiName, unitCost); err != nil {
		return nil, false, err
	}

	payload, err := fn(ctx)
	if err != nil {
		return nil, false, err
	}

	if err := c.store.PutCacheEntry(ctx, key, cacheType, payload, ttl); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
	}

	return payload, false, nil
}

// Sweep removes all expired cache rows and returns the count removed
func (c *Cache) Sweep(ctx context.Context) (int64, error) {
	removed, err := c.store.SweepCache(ctx)
	if err != nil {
		return 0, err
	}

	metrics.CacheSweptTotal.Add(float64(removed))
	if removed > 0 {
		c.logger.WithField("removed", removed).Info("Swept expired cache entries")
	}

	return removed, nil
}
