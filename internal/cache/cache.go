package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// LoaderFunc performs the upstream fetch for a cache miss.
type LoaderFunc func(ctx context.Context) ([]byte, error)

// Result is the outcome of a Fetch.
type Result struct {
	Payload   []byte
	FromCache bool
	// Stale is true when an expired entry was served because the
	// upstream fetch failed inside the stale-while-revalidate window.
	Stale bool
}

// entry is a cached upstream response. Entries are replaced wholesale
// on refresh, never partially updated.
type entry struct {
	payload    []byte
	expiresAt  time.Time
	staleUntil time.Time
	tags       []string
}

// Store is the origin fetch cache. It keeps the most recent upstream
// response per resource key with a class TTL, indexes entries by
// invalidation tag, coalesces concurrent fetches for the same key, and
// serves stale payloads when the upstream is unavailable.
//
// The tag index lives beside the entry map under the same lock so
// invalidation applies atomically to every entry registered under a
// tag. A fetch completing after an invalidation stores a new entry and
// re-registers it; invalidation addresses entries, not future
// registrations.
type Store struct {
	mu       sync.Mutex
	entries  map[string]*entry
	tagIndex map[string]map[string]struct{}
	group    singleflight.Group
	logger   *zap.Logger

	// now is overridable in tests
	now func() time.Time
}

// NewStore creates an empty origin fetch cache
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		entries:  make(map[string]*entry),
		tagIndex: make(map[string]map[string]struct{}),
		logger:   logger,
		now:      time.Now,
	}
}

// Fetch returns the cached payload for key if it is still fresh,
// otherwise runs loader and caches its result under the class policy
// and the given tags. Concurrent Fetch calls for the same key share a
// single loader invocation. If the loader fails and an expired entry is
// still inside its stale-while-revalidate window, the stale payload is
// served instead of the error.
func (s *Store) Fetch(ctx context.Context, key string, class Class, tags []string, loader LoaderFunc) (Result, error) {
	if res, ok := s.lookup(key); ok {
		return res, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		// A concurrent caller may have refreshed the entry while this
		// flight was queued.
		if res, ok := s.lookup(key); ok {
			return res, nil
		}

		payload, loadErr := loader(ctx)
		if loadErr != nil {
			if res, ok := s.lookupStale(key); ok {
				s.logger.Warn("upstream fetch failed, serving stale cache entry",
					zap.String("key", key),
					zap.Error(loadErr),
				)
				return res, nil
			}
			return nil, loadErr
		}

		s.put(key, class, tags, payload)
		return Result{Payload: payload, FromCache: false}, nil
	})
	if err != nil {
		return Result{}, err
	}

	return v.(Result), nil
}

// Invalidate removes every entry registered under tag, regardless of
// remaining TTL, and returns the number of entries removed.
// Invalidating a tag with no entries is a no-op.
func (s *Store) Invalidate(tag string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, ok := s.tagIndex[tag]
	if !ok {
		return 0
	}

	removed := 0
	for key := range keys {
		if e, exists := s.entries[key]; exists {
			s.dropLocked(key, e)
			removed++
		}
	}
	delete(s.tagIndex, tag)

	if removed > 0 {
		s.logger.Info("invalidated cache entries",
			zap.String("tag", tag),
			zap.Int("removed", removed),
		)
	}

	return removed
}

// Len returns the number of cached entries
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats returns entry counts by freshness
func (s *Store) Stats() (fresh, expired int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, e := range s.entries {
		if now.Before(e.expiresAt) {
			fresh++
		} else {
			expired++
		}
	}
	return fresh, expired
}

// lookup returns a fresh entry for key, if any
func (s *Store) lookup(key string) (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.expiresAt) {
		return Result{}, false
	}
	return Result{Payload: e.payload, FromCache: true}, true
}

// lookupStale returns an expired entry for key that is still inside its
// stale-while-revalidate window
func (s *Store) lookupStale(key string) (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || s.now().After(e.staleUntil) {
		return Result{}, false
	}
	return Result{Payload: e.payload, FromCache: true, Stale: true}, true
}

// put stores a new entry and registers it under each tag
func (s *Store) put(key string, class Class, tags []string, payload []byte) {
	policy := PolicyFor(class)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[key]; ok {
		s.dropLocked(key, old)
	}

	s.entries[key] = &entry{
		payload:    payload,
		expiresAt:  now.Add(policy.TTL),
		staleUntil: now.Add(policy.TTL + policy.StaleWhileRevalidate),
		tags:       tags,
	}

	for _, tag := range tags {
		keys, ok := s.tagIndex[tag]
		if !ok {
			keys = make(map[string]struct{})
			s.tagIndex[tag] = keys
		}
		keys[key] = struct{}{}
	}
}

// dropLocked removes an entry and deregisters it from every tag it
// carries. Caller must hold s.mu.
func (s *Store) dropLocked(key string, e *entry) {
	delete(s.entries, key)
	for _, tag := range e.tags {
		if keys, ok := s.tagIndex[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(s.tagIndex, tag)
			}
		}
	}
}
