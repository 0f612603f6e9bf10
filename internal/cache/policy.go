// Package cache implements the tiered caching subsystem: per-class
// freshness policy, the origin fetch cache with tag invalidation, and
// the consumer-side query cache.
package cache

import (
	"fmt"
	"time"
)

// Class identifies a category of cacheable catalog data sharing one
// freshness policy.
type Class string

const (
	ClassGenreList    Class = "genre-list"
	ClassMovieDetail  Class = "movie-detail"
	ClassPopularList  Class = "popular-list"
	ClassSearchResult Class = "search-result"
)

// Policy is the freshness policy of a resource class: how long an entry
// is fresh, and for how long after expiry it may still be served while
// a refresh is attempted.
type Policy struct {
	TTL                  time.Duration
	StaleWhileRevalidate time.Duration
}

// Genre lists barely change; search results churn with every catalog
// update. The stale window is always at least the TTL so a revalidation
// in progress never blocks a response.
var policies = map[Class]Policy{
	ClassGenreList:    {TTL: 7 * 24 * time.Hour, StaleWhileRevalidate: 30 * 24 * time.Hour},
	ClassMovieDetail:  {TTL: 24 * time.Hour, StaleWhileRevalidate: 7 * 24 * time.Hour},
	ClassPopularList:  {TTL: 1 * time.Hour, StaleWhileRevalidate: 24 * time.Hour},
	ClassSearchResult: {TTL: 30 * time.Minute, StaleWhileRevalidate: 1 * time.Hour},
}

// PolicyFor returns the freshness policy for a resource class.
// Unknown classes get the most volatile policy.
func PolicyFor(class Class) Policy {
	if p, ok := policies[class]; ok {
		return p
	}
	return policies[ClassSearchResult]
}

// HeadersFor returns the Cache-Control value instructing fronting
// caches and the client HTTP layer about the class's freshness windows.
func HeadersFor(class Class) string {
	p := PolicyFor(class)
	return fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d",
		int(p.TTL.Seconds()), int(p.StaleWhileRevalidate.Seconds()))
}
