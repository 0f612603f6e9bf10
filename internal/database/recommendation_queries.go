package database

import (
	"context"
	"fmt"

	"github.com/flickpick/flickpick/internal/models"
)

// DefaultRecentRecommendations is the number of recommendations returned
// when no explicit limit is requested.
const DefaultRecentRecommendations = 5

// SaveRecommendations persists a batch of generated recommendations for a
// user in one transaction. A regenerated recommendation for the same movie
// updates in place and resets the seen flag.
func (db *DB) SaveRecommendations(ctx context.Context, userID int64, recs []*models.Recommendation) error {
	for _, rec := range recs {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("%w: movie %d: %v", ErrValidation, rec.MovieID, err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO recommendations (user_id, movie_id, movie_title, reason, match_score, match_level)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, movie_id) DO UPDATE
		SET movie_title = EXCLUDED.movie_title,
		    reason = EXCLUDED.reason,
		    match_score = EXCLUDED.match_score,
		    match_level = EXCLUDED.match_level,
		    generated_at = NOW(),
		    seen = FALSE
		RETURNING id, generated_at
	`

	for _, rec := range recs {
		rec.UserID = userID
		err = tx.QueryRowContext(
			ctx,
			query,
			userID,
			rec.MovieID,
			rec.MovieTitle,
			rec.Reason,
			rec.MatchScore,
			rec.MatchLevel,
		).Scan(&rec.ID, &rec.GeneratedAt)

		if err != nil {
			return fmt.Errorf("failed to upsert recommendation for movie %d: %w", rec.MovieID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recommendations: %w", err)
	}

	return nil
}

// GetRecentRecommendations retrieves a user's most recent recommendations.
// A non-positive limit falls back to DefaultRecentRecommendations.
func (db *DB) GetRecentRecommendations(ctx context.Context, userID int64, limit int) ([]*models.Recommendation, error) {
	if limit <= 0 {
		limit = DefaultRecentRecommendations
	}

	query := `
		SELECT id, user_id, movie_id, movie_title, reason, match_score, match_level, generated_at, seen, acted_on
		FROM recommendations
		WHERE user_id = $1
		ORDER BY generated_at DESC
		LIMIT $2
	`

	return db.queryRecommendations(ctx, query, userID, limit)
}

// GetAllRecommendations retrieves a user's full recommendation history,
// most recent first
func (db *DB) GetAllRecommendations(ctx context.Context, userID int64) ([]*models.Recommendation, error) {
	query := `
		SELECT id, user_id, movie_id, movie_title, reason, match_score, match_level, generated_at, seen, acted_on
		FROM recommendations
		WHERE user_id = $1
		ORDER BY generated_at DESC
	`

	return db.queryRecommendations(ctx, query, userID)
}

func (db *DB) queryRecommendations(ctx context.Context, query string, args ...interface{}) ([]*models.Recommendation, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []*models.Recommendation
	for rows.Next() {
		var rec models.Recommendation
		err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.MovieID,
			&rec.MovieTitle,
			&rec.Reason,
			&rec.MatchScore,
			&rec.MatchLevel,
			&rec.GeneratedAt,
			&rec.Seen,
			&rec.ActedOn,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		recs = append(recs, &rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recommendations: %w", err)
	}

	return recs, nil
}

// MarkRecommendationSeen flags a recommendation as shown to the user
func (db *DB) MarkRecommendationSeen(ctx context.Context, userID, movieID int64) error {
	return db.setRecommendationFlag(ctx, `UPDATE recommendations SET seen = TRUE WHERE user_id = $1 AND movie_id = $2`, userID, movieID)
}

// MarkRecommendationActedOn flags a recommendation as acted on, for example
// rated or added to the watchlist
func (db *DB) MarkRecommendationActedOn(ctx context.Context, userID, movieID int64) error {
	return db.setRecommendationFlag(ctx, `UPDATE recommendations SET acted_on = TRUE, seen = TRUE WHERE user_id = $1 AND movie_id = $2`, userID, movieID)
}

func (db *DB) setRecommendationFlag(ctx context.Context, query string, userID, movieID int64) error {
	result, err := db.ExecContext(ctx, query, userID, movieID)
	if err != nil {
		return fmt.Errorf("failed to update recommendation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
