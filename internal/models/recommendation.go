package models

import (
	"fmt"
	"time"
)

// MatchLevel buckets a recommendation's match score for display
type MatchLevel string

const (
	MatchLevelLoveIt MatchLevel = "LOVE IT"
	MatchLevelLikeIt MatchLevel = "LIKE IT"
	MatchLevelMaybe  MatchLevel = "MAYBE"
	MatchLevelRisky  MatchLevel = "RISKY"
)

// Match score bounds
const (
	MinMatchScore = 1
	MaxMatchScore = 100
)

// Recommendation represents a generated movie recommendation for a user.
// Regenerating a recommendation for an already-recommended movie updates
// the existing record in place rather than creating a duplicate.
type Recommendation struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	MovieID     int64      `json:"movie_id"`
	MovieTitle  string     `json:"movie_title"`
	Reason      string     `json:"reason"`
	MatchScore  int        `json:"match_score"`
	MatchLevel  MatchLevel `json:"match_level"`
	GeneratedAt time.Time  `json:"generated_at"`
	Seen        bool       `json:"seen"`
	ActedOn     bool       `json:"acted_on"`
}

// Validate checks score bounds and level validity
func (r *Recommendation) Validate() error {
	if r.MatchScore < MinMatchScore || r.MatchScore > MaxMatchScore {
		return fmt.Errorf("match score must be between %d and %d, got %d", MinMatchScore, MaxMatchScore, r.MatchScore)
	}
	switch r.MatchLevel {
	case MatchLevelLoveIt, MatchLevelLikeIt, MatchLevelMaybe, MatchLevelRisky:
	default:
		return fmt.Errorf("invalid match level: %q", r.MatchLevel)
	}
	return nil
}

// MatchLevelForScore maps a match score to its display bucket
func MatchLevelForScore(score int) MatchLevel {
	switch {
	case score >= 85:
		return MatchLevelLoveIt
	case score >= 70:
		return MatchLevelLikeIt
	case score >= 50:
		return MatchLevelMaybe
	default:
		return MatchLevelRisky
	}
}
