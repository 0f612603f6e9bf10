package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Watchlist priority bounds
const (
	MinWatchlistPriority = 1
	MaxWatchlistPriority = 5

	// DefaultWatchlistPriority is used when the caller does not specify one
	DefaultWatchlistPriority = 3
)

// WatchlistEntry represents a movie a user wants to watch.
// Title, poster and release date are denormalized from the catalog so
// the list renders without a catalog round trip.
type WatchlistEntry struct {
	ID          int64          `json:"id"`
	UserID      int64          `json:"user_id"`
	MovieID     int64          `json:"movie_id"`
	Priority    int            `json:"priority"`
	MovieTitle  string         `json:"movie_title"`
	PosterPath  sql.NullString `json:"poster_path"`
	ReleaseDate sql.NullString `json:"release_date"`
	AddedAt     time.Time      `json:"added_at"`
}

// Validate checks that the priority is within bounds
func (w *WatchlistEntry) Validate() error {
	if w.Priority < MinWatchlistPriority || w.Priority > MaxWatchlistPriority {
		return fmt.Errorf("watchlist priority must be between %d and %d, got %d", MinWatchlistPriority, MaxWatchlistPriority, w.Priority)
	}
	return nil
}
