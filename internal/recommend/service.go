package recommend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/flickpick/flickpick/internal/models"
)

// Store is the persistence surface the service needs
type Store interface {
	GetRatingsByUserID(ctx context.Context, userID int64) ([]*models.Rating, error)
	GetWatchlistByUserID(ctx context.Context, userID int64) ([]*models.WatchlistEntry, error)
	SaveRecommendations(ctx context.Context, userID int64, recs []*models.Recommendation) error
	GetRecentRecommendations(ctx context.Context, userID int64, limit int) ([]*models.Recommendation, error)
	GetAllRecommendations(ctx context.Context, userID int64) ([]*models.Recommendation, error)
	MarkRecommendationSeen(ctx context.Context, userID, movieID int64) error
	MarkRecommendationActedOn(ctx context.Context, userID, movieID int64) error
}

// UnsavedError reports recommendations that were generated but could not
// be persisted. Callers can still show them to the user.
type UnsavedError struct {
	Recommendations []*models.Recommendation
	Err             error
}

func (e *UnsavedError) Error() string {
	return fmt.Sprintf("generated %d recommendations but failed to save them: %v", len(e.Recommendations), e.Err)
}

func (e *UnsavedError) Unwrap() error {
	return e.Err
}

// Service orchestrates recommendation generation and persistence
type Service struct {
	store     Store
	generator Generator
	logger    *zap.Logger
}

// NewService creates a recommendation service
func NewService(store Store, generator Generator, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		generator: generator,
		logger:    logger,
	}
}

// Generate builds the user's taste profile, asks the generator for new
// recommendations and persists them. If persistence fails the generated
// recommendations are still returned inside an UnsavedError.
func (s *Service) Generate(ctx context.Context, userID int64, count int) ([]*models.Recommendation, error) {
	if count <= 0 {
		count = 5
	}

	ratings, err := s.store.GetRatingsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}

	watchlist, err := s.store.GetWatchlistByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}

	profile := TasteProfile{
		Ratings:   ratings,
		Watchlist: watchlist,
		Count:     count,
	}

	recs, err := s.generator.Generate(ctx, profile)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveRecommendations(ctx, userID, recs); err != nil {
		s.logger.Error("failed to persist generated recommendations",
			zap.Int64("user_id", userID),
			zap.Int("count", len(recs)),
			zap.Error(err),
		)
		return nil, &UnsavedError{Recommendations: recs, Err: err}
	}

	s.logger.Info("recommendations saved",
		zap.Int64("user_id", userID),
		zap.Int("count", len(recs)),
	)

	return recs, nil
}

// Recent returns the user's most recent recommendations
func (s *Service) Recent(ctx context.Context, userID int64, limit int) ([]*models.Recommendation, error) {
	return s.store.GetRecentRecommendations(ctx, userID, limit)
}

// All returns the user's full recommendation history
func (s *Service) All(ctx context.Context, userID int64) ([]*models.Recommendation, error) {
	return s.store.GetAllRecommendations(ctx, userID)
}

// MarkSeen flags a recommendation as shown to the user
func (s *Service) MarkSeen(ctx context.Context, userID, movieID int64) error {
	return s.store.MarkRecommendationSeen(ctx, userID, movieID)
}

// MarkActedOn flags a recommendation as acted on
func (s *Service) MarkActedOn(ctx context.Context, userID, movieID int64) error {
	return s.store.MarkRecommendationActedOn(ctx, userID, movieID)
}
