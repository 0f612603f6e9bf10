package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// QueryLoaderFunc loads the value for a query cache miss.
type QueryLoaderFunc func(ctx context.Context) (interface{}, error)

type queryEntry struct {
	value      interface{}
	fetchedAt  time.Time
	lastAccess time.Time
}

// QueryCache is the consumer-side cache. It is independent of the
// origin fetch cache and owns its own freshness policy: values are
// fresh for staleAfter (normally at least the origin TTL, so in-session
// reads skip the round trip entirely), and entries unused for gcAfter
// are evicted regardless of freshness. Concurrent loads for the same
// key coalesce to a single upstream call.
type QueryCache struct {
	mu         sync.Mutex
	entries    map[string]*queryEntry
	staleAfter time.Duration
	gcAfter    time.Duration
	group      singleflight.Group
	logger     *zap.Logger

	// now is overridable in tests
	now func() time.Time
}

// NewQueryCache creates a query cache with the given freshness and
// garbage-collection windows.
func NewQueryCache(staleAfter, gcAfter time.Duration, logger *zap.Logger) *QueryCache {
	return &QueryCache{
		entries:    make(map[string]*queryEntry),
		staleAfter: staleAfter,
		gcAfter:    gcAfter,
		logger:     logger,
		now:        time.Now,
	}
}

// GetOrLoad returns the cached value for key if it is still fresh,
// otherwise loads it. At most one loader runs per key at a time; all
// concurrent callers await its result.
func (qc *QueryCache) GetOrLoad(ctx context.Context, key string, loader QueryLoaderFunc) (interface{}, bool, error) {
	if value, ok := qc.get(key); ok {
		return value, true, nil
	}

	v, err, _ := qc.group.Do(key, func() (interface{}, error) {
		if value, ok := qc.get(key); ok {
			return value, nil
		}

		value, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}

		qc.set(key, value)
		return value, nil
	})
	if err != nil {
		return nil, false, err
	}

	return v, false, nil
}

// Invalidate drops the entry for key, if present
func (qc *QueryCache) Invalidate(key string) {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	delete(qc.entries, key)
}

// Sweep evicts entries that have not been accessed within the GC
// window and returns the number evicted.
func (qc *QueryCache) Sweep() int {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	now := qc.now()
	evicted := 0
	for key, e := range qc.entries {
		if now.Sub(e.lastAccess) > qc.gcAfter {
			delete(qc.entries, key)
			evicted++
		}
	}

	if evicted > 0 {
		qc.logger.Debug("query cache sweep evicted entries", zap.Int("evicted", evicted))
	}

	return evicted
}

// StartSweepJob runs Sweep periodically until the context is cancelled
func (qc *QueryCache) StartSweepJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			qc.logger.Info("stopping query cache sweep job")
			return
		case <-ticker.C:
			qc.Sweep()
		}
	}
}

// Len returns the number of cached entries
func (qc *QueryCache) Len() int {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	return len(qc.entries)
}

func (qc *QueryCache) get(key string) (interface{}, bool) {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	e, ok := qc.entries[key]
	if !ok {
		return nil, false
	}

	now := qc.now()
	if now.Sub(e.fetchedAt) >= qc.staleAfter {
		return nil, false
	}

	e.lastAccess = now
	return e.value, true
}

func (qc *QueryCache) set(key string, value interface{}) {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	now := qc.now()
	qc.entries[key] = &queryEntry{
		value:      value,
		fetchedAt:  now,
		lastAccess: now,
	}
}
