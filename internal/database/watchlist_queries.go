package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flickpick/flickpick/internal/models"
)

// AddToWatchlist inserts or updates a watchlist entry. A movie the user has
// already rated counts as watched and is rejected.
func (db *DB) AddToWatchlist(ctx context.Context, entry *models.WatchlistEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var rated bool
	err = tx.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM ratings WHERE user_id = $1 AND movie_id = $2)`,
		entry.UserID,
		entry.MovieID,
	).Scan(&rated)
	if err != nil {
		return fmt.Errorf("failed to check existing rating: %w", err)
	}
	if rated {
		return fmt.Errorf("%w: movie %d is already rated", ErrValidation, entry.MovieID)
	}

	query := `
		INSERT INTO watchlist (user_id, movie_id, priority, movie_title, poster_path, release_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, movie_id) DO UPDATE
		SET priority = EXCLUDED.priority,
		    movie_title = EXCLUDED.movie_title,
		    poster_path = EXCLUDED.poster_path,
		    release_date = EXCLUDED.release_date
		RETURNING id, added_at
	`

	err = tx.QueryRowContext(
		ctx,
		query,
		entry.UserID,
		entry.MovieID,
		entry.Priority,
		entry.MovieTitle,
		entry.PosterPath,
		entry.ReleaseDate,
	).Scan(&entry.ID, &entry.AddedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert watchlist entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit watchlist entry: %w", err)
	}

	return nil
}

// GetWatchlistEntry retrieves a single watchlist entry
func (db *DB) GetWatchlistEntry(ctx context.Context, userID, movieID int64) (*models.WatchlistEntry, error) {
	query := `
		SELECT id, user_id, movie_id, priority, movie_title, poster_path, release_date, added_at
		FROM watchlist
		WHERE user_id = $1 AND movie_id = $2
	`

	var entry models.WatchlistEntry
	err := db.QueryRowContext(ctx, query, userID, movieID).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.MovieID,
		&entry.Priority,
		&entry.MovieTitle,
		&entry.PosterPath,
		&entry.ReleaseDate,
		&entry.AddedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get watchlist entry: %w", err)
	}

	return &entry, nil
}

// GetWatchlistByUserID retrieves a user's watchlist, most recently added first
func (db *DB) GetWatchlistByUserID(ctx context.Context, userID int64) ([]*models.WatchlistEntry, error) {
	query := `
		SELECT id, user_id, movie_id, priority, movie_title, poster_path, release_date, added_at
		FROM watchlist
		WHERE user_id = $1
		ORDER BY added_at DESC
	`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	var entries []*models.WatchlistEntry
	for rows.Next() {
		var entry models.WatchlistEntry
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.MovieID,
			&entry.Priority,
			&entry.MovieTitle,
			&entry.PosterPath,
			&entry.ReleaseDate,
			&entry.AddedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watchlist: %w", err)
	}

	return entries, nil
}

// RemoveFromWatchlist removes a movie from a user's watchlist
func (db *DB) RemoveFromWatchlist(ctx context.Context, userID, movieID int64) error {
	query := `DELETE FROM watchlist WHERE user_id = $1 AND movie_id = $2`

	result, err := db.ExecContext(ctx, query, userID, movieID)
	if err != nil {
		return fmt.Errorf("failed to remove watchlist entry: %w", err)
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
