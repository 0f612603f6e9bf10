// Package ratelimit implements catalog API rate limiting based on response headers.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Bucket represents a rate limit bucket for a specific catalog API endpoint
type Bucket struct {
	Remaining int           // Requests remaining in current window
	Limit     int           // Total requests allowed per window
	ResetAt   time.Time     // When the rate limit resets
	limiter   *rate.Limiter // Token bucket rate limiter
	mu        sync.Mutex
}

// RateLimiter manages rate limits for catalog API endpoints
type RateLimiter struct {
	buckets map[string]*Bucket // endpoint -> bucket
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*Bucket),
		logger:  logger,
	}
}

// getBucket retrieves or creates a bucket for an endpoint
func (rl *RateLimiter) getBucket(endpoint string) *Bucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if bucket, exists := rl.buckets[endpoint]; exists {
		return bucket
	}

	// Default budget: 10 requests per second per endpoint. Per-route
	// limits are tightened from response headers as they arrive.
	bucket := &Bucket{
		Remaining: 10,
		Limit:     10,
		ResetAt:   time.Now().Add(1 * time.Second),
		limiter:   rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
	}

	rl.buckets[endpoint] = bucket
	return bucket
}

// Wait blocks until a request to the endpoint is allowed under the
// current budget
func (rl *RateLimiter) Wait(endpoint string) error {
	bucket := rl.getBucket(endpoint)

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	if bucket.Remaining <= 0 && time.Now().Before(bucket.ResetAt) {
		waitDuration := time.Until(bucket.ResetAt)
		rl.logger.Warn("rate limit exhausted, waiting",
			zap.String("endpoint", endpoint),
			zap.Duration("wait_duration", waitDuration),
		)
		time.Sleep(waitDuration)
	}

	if err := bucket.limiter.Wait(context.Background()); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	return nil
}

// UpdateFromHeaders updates the rate limit bucket from catalog API response headers
func (rl *RateLimiter) UpdateFromHeaders(endpoint string, headers map[string][]string) {
	bucket := rl.getBucket(endpoint)

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	if remaining := headers["X-Ratelimit-Remaining"]; len(remaining) > 0 {
		if val, err := strconv.Atoi(remaining[0]); err == nil {
			bucket.Remaining = val
		}
	}

	if limit := headers["X-Ratelimit-Limit"]; len(limit) > 0 {
		if val, err := strconv.Atoi(limit[0]); err == nil {
			bucket.Limit = val
		}
	}

	if reset := headers["X-Ratelimit-Reset"]; len(reset) > 0 {
		if val, err := strconv.ParseInt(reset[0], 10, 64); err == nil {
			bucket.ResetAt = time.Unix(val, 0)
		}
	}

	// Re-derive the token bucket from the reported window
	if bucket.Limit > 0 {
		resetDuration := time.Until(bucket.ResetAt)
		if resetDuration > 0 {
			tokensPerSecond := float64(bucket.Limit) / resetDuration.Seconds()
			bucket.limiter = rate.NewLimiter(rate.Limit(tokensPerSecond), bucket.Limit)
		}
	}

	rl.logger.Debug("updated rate limit from headers",
		zap.String("endpoint", endpoint),
		zap.Int("remaining", bucket.Remaining),
		zap.Int("limit", bucket.Limit),
		zap.Time("reset_at", bucket.ResetAt),
	)
}

// HandleRateLimitResponse handles a 429 (rate limited) response
func (rl *RateLimiter) HandleRateLimitResponse(endpoint string, headers map[string][]string) error {
	bucket := rl.getBucket(endpoint)

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	var retryAfter time.Duration
	if retry := headers["Retry-After"]; len(retry) > 0 {
		if seconds, err := strconv.Atoi(retry[0]); err == nil {
			retryAfter = time.Duration(seconds) * time.Second
		}
	}

	if retryAfter == 0 {
		if reset := headers["X-Ratelimit-Reset"]; len(reset) > 0 {
			if val, err := strconv.ParseInt(reset[0], 10, 64); err == nil {
				retryAfter = time.Until(time.Unix(val, 0))
			}
		}
	}

	if retryAfter <= 0 {
		retryAfter = 1 * time.Second
	}

	bucket.Remaining = 0
	bucket.ResetAt = time.Now().Add(retryAfter)

	rl.logger.Warn("rate limited by catalog API",
		zap.String("endpoint", endpoint),
		zap.Duration("retry_after", retryAfter),
	)

	return fmt.Errorf("rate limited, retry after %v", retryAfter)
}

// GetStatus returns the current rate limit status for an endpoint
func (rl *RateLimiter) GetStatus(endpoint string) (remaining int, limit int, resetAt time.Time) {
	bucket := rl.getBucket(endpoint)

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	return bucket.Remaining, bucket.Limit, bucket.ResetAt
}

// Reset clears all rate limit buckets (useful for testing)
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.buckets = make(map[string]*Bucket)
}
