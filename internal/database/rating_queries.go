package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flickpick/flickpick/internal/models"
)

// UpsertRating records or overwrites a user's rating for a movie. Rating a
// movie marks it as watched, so any watchlist entry for the same movie is
// removed in the same transaction.
func (db *DB) UpsertRating(ctx context.Context, rating *models.Rating) error {
	if err := rating.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO ratings (user_id, movie_id, value, notes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, movie_id) DO UPDATE
		SET value = EXCLUDED.value,
		    notes = EXCLUDED.notes,
		    rated_at = NOW()
		RETURNING id, rated_at
	`

	err = tx.QueryRowContext(
		ctx,
		query,
		rating.UserID,
		rating.MovieID,
		rating.Value,
		rating.Notes,
	).Scan(&rating.ID, &rating.RatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}

	_, err = tx.ExecContext(
		ctx,
		`DELETE FROM watchlist WHERE user_id = $1 AND movie_id = $2`,
		rating.UserID,
		rating.MovieID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove watchlist entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rating: %w", err)
	}

	return nil
}

// GetRating retrieves a user's rating for a movie
func (db *DB) GetRating(ctx context.Context, userID, movieID int64) (*models.Rating, error) {
	query := `
		SELECT id, user_id, movie_id, value, notes, rated_at
		FROM ratings
		WHERE user_id = $1 AND movie_id = $2
	`

	var rating models.Rating
	err := db.QueryRowContext(ctx, query, userID, movieID).Scan(
		&rating.ID,
		&rating.UserID,
		&rating.MovieID,
		&rating.Value,
		&rating.Notes,
		&rating.RatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}

	return &rating, nil
}

// GetRatingsByUserID retrieves all of a user's ratings, most recent first
func (db *DB) GetRatingsByUserID(ctx context.Context, userID int64) ([]*models.Rating, error) {
	query := `
		SELECT id, user_id, movie_id, value, notes, rated_at
		FROM ratings
		WHERE user_id = $1
		ORDER BY rated_at DESC
	`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	var ratings []*models.Rating
	for rows.Next() {
		var rating models.Rating
		err := rows.Scan(
			&rating.ID,
			&rating.UserID,
			&rating.MovieID,
			&rating.Value,
			&rating.Notes,
			&rating.RatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, &rating)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}

	return ratings, nil
}

// DeleteRating removes a user's rating for a movie. The movie is NOT
// restored to the watchlist.
func (db *DB) DeleteRating(ctx context.Context, userID, movieID int64) error {
	query := `DELETE FROM ratings WHERE user_id = $1 AND movie_id = $2`

	result, err := db.ExecContext(ctx, query, userID, movieID)
	if err != nil {
		return fmt.Errorf("failed to delete rating: %w", err)
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

// GetRatingCountByUserID returns the number of movies a user has rated
func (db *DB) GetRatingCountByUserID(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM ratings WHERE user_id = $1`

	var count int64
	err := db.QueryRowContext(ctx, query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ratings: %w", err)
	}

	return count, nil
}
