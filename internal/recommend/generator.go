// Package recommend generates and persists personalized movie
// recommendations based on a user's ratings and watchlist.
package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/flickpick/flickpick/internal/config"
	"github.com/flickpick/flickpick/internal/models"
)

var (
	// ErrGeneratorUnavailable indicates the recommendation backend could
	// not be reached or returned a server error
	ErrGeneratorUnavailable = errors.New("recommendation generator unavailable")

	// ErrGeneratorNotConfigured indicates no generator endpoint is set
	ErrGeneratorNotConfigured = errors.New("recommendation generator not configured")
)

// TasteProfile is the input sent to the generator: what the user has
// rated and what they already plan to watch.
type TasteProfile struct {
	Ratings   []*models.Rating         `json:"ratings"`
	Watchlist []*models.WatchlistEntry `json:"watchlist"`
	Count     int                      `json:"count"`
}

// Generator produces recommendations from a taste profile
type Generator interface {
	Generate(ctx context.Context, profile TasteProfile) ([]*models.Recommendation, error)
}

// HTTPGenerator calls an external recommendation service over HTTP
type HTTPGenerator struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPGenerator creates a generator client from configuration
func NewHTTPGenerator(cfg *config.RecommenderConfig, logger *zap.Logger) *HTTPGenerator {
	return &HTTPGenerator{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// SetEndpoint overrides the generator endpoint (used in tests)
func (g *HTTPGenerator) SetEndpoint(endpoint string) {
	g.endpoint = endpoint
}

type generatorResponse struct {
	Recommendations []struct {
		MovieID    int64  `json:"movie_id"`
		MovieTitle string `json:"movie_title"`
		Reason     string `json:"reason"`
		MatchScore int    `json:"match_score"`
	} `json:"recommendations"`
}

// Generate posts the taste profile to the recommendation service and
// returns the parsed recommendations with match levels assigned.
func (g *HTTPGenerator) Generate(ctx context.Context, profile TasteProfile) ([]*models.Recommendation, error) {
	if g.endpoint == "" {
		return nil, ErrGeneratorNotConfigured
	}

	body, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to encode taste profile: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Warn("generator request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGeneratorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("generator returned non-200 status",
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: status %d", ErrGeneratorUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read generator response: %w", err)
	}

	var parsed generatorResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse generator response: %w", err)
	}

	recs := make([]*models.Recommendation, 0, len(parsed.Recommendations))
	for _, r := range parsed.Recommendations {
		recs = append(recs, &models.Recommendation{
			MovieID:    r.MovieID,
			MovieTitle: r.MovieTitle,
			Reason:     r.Reason,
			MatchScore: r.MatchScore,
			MatchLevel: models.MatchLevelForScore(r.MatchScore),
		})
	}

	g.logger.Info("recommendations generated",
		zap.Int("count", len(recs)),
		zap.Duration("duration", time.Since(start)),
	)

	return recs, nil
}
