package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Rating value bounds
const (
	MinRatingValue = 1
	MaxRatingValue = 10
)

// Rating represents a user's rating of a movie.
// A user has at most one rating per movie.
type Rating struct {
	ID      int64          `json:"id"`
	UserID  int64          `json:"user_id"`
	MovieID int64          `json:"movie_id"`
	Value   int            `json:"value"`
	Notes   sql.NullString `json:"notes"`
	RatedAt time.Time      `json:"rated_at"`
}

// Validate checks that the rating value is within bounds
func (r *Rating) Validate() error {
	if r.Value < MinRatingValue || r.Value > MaxRatingValue {
		return fmt.Errorf("rating value must be between %d and %d, got %d", MinRatingValue, MaxRatingValue, r.Value)
	}
	return nil
}
