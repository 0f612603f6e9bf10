package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/flickpick/flickpick/internal/config"
	"github.com/flickpick/flickpick/internal/ratelimit"
)

// Client is the HTTP client for the external movie catalog API. The API
// credential stays server-side; responses are returned as raw JSON
// payloads so the origin fetch cache can store them opaquely.
type Client struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	logger      *zap.Logger
	rateLimiter *ratelimit.RateLimiter
}

// NewClient creates a catalog API client. The configured timeout bounds
// every request so an unresponsive upstream fails fast.
func NewClient(cfg *config.CatalogConfig, logger *zap.Logger) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// SetRateLimiter sets the rate limiter for the catalog client
func (c *Client) SetRateLimiter(rl *ratelimit.RateLimiter) {
	c.rateLimiter = rl
}

// SetBaseURL sets the base URL for the catalog API (used for testing)
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// FetchPopular fetches one page of the popular movies list
func (c *Client) FetchPopular(ctx context.Context, page int) ([]byte, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	return c.get(ctx, "/movie/popular", params)
}

// FetchMovie fetches a movie's full detail record
func (c *Client) FetchMovie(ctx context.Context, movieID int64) ([]byte, error) {
	return c.get(ctx, fmt.Sprintf("/movie/%d", movieID), nil)
}

// FetchGenres fetches the movie genre list
func (c *Client) FetchGenres(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/genre/movie/list", nil)
}

// FetchSearch fetches one page of movie search results
func (c *Client) FetchSearch(ctx context.Context, query string, page int) ([]byte, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	return c.get(ctx, "/search/movie", params)
}

// get makes a rate-limited request to the catalog API and returns the
// raw response payload
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(endpoint); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if c.rateLimiter != nil {
		c.rateLimiter.UpdateFromHeaders(endpoint, resp.Header)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if c.rateLimiter != nil {
			_ = c.rateLimiter.HandleRateLimitResponse(endpoint, resp.Header)
		}
		return nil, fmt.Errorf("%w: rate limited by catalog API", ErrUpstreamUnavailable)

	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, endpoint)

	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("catalog API returned non-OK status",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstreamUnavailable, resp.StatusCode, string(body))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrUpstreamUnavailable, err)
	}

	c.logger.Debug("fetched from catalog API",
		zap.String("endpoint", endpoint),
		zap.Int("bytes", len(payload)),
	)

	return payload, nil
}
