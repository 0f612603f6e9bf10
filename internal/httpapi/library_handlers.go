package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/flickpick/flickpick/internal/auth"
	"github.com/flickpick/flickpick/internal/models"
)

func movieIDParam(r *http.Request) (int64, bool) {
	movieID, err := strconv.ParseInt(chi.URLParam(r, "movieID"), 10, 64)
	return movieID, err == nil && movieID > 0
}

type rateRequest struct {
	Value int    `json:"value"`
	Notes string `json:"notes"`
}

// RateMovie records or overwrites the user's rating for a movie. The
// movie leaves the watchlist in the same transaction.
func (h *Handlers) RateMovie(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		h.writeError(w, r, auth.ErrUnauthorized)
		return
	}

	movieID, ok := movieIDParam(r)
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid movie id"})
		return
	}

	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	rating := &models.Rating{
		UserID:  session.UserID,
		MovieID: movieID,
		Value:   req.Value,
		Notes:   sql.NullString{String: req.Notes, Valid: req.Notes != ""},
	}

	if err := h.store.UpsertRating(r.Context(), rating); err != nil {
		h.writeError(w, r, err)
		return
	}

	// Both listings changed
	h.queries.Invalidate(ratingsQueryKey(session.UserID))
	h.queries.Invalidate(watchlistQueryKey(session.UserID))

	h.writeJSON(w, http.StatusOK, rating)
}

// UnrateMovie removes the user's rating. The movie is not restored to
// the watchlist.
func (h *Handlers) UnrateMovie(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		h.writeError(w, r, auth.ErrUnauthorized)
		return
	}

	movieID, ok := movieIDParam(r)
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid movie id"})
		return
	}

	if err := h.store.DeleteRating(r.Context(), session.UserID, movieID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.queries.Invalidate(ratingsQueryKey(session.UserID))

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListRatings returns the user's ratings, most recent first
func (h *Handlers) ListRatings(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		h.writeError(w, r, auth.ErrUnauthorized)
		return
	}

	value, _, err := h.queries.GetOrLoad(r.Context(), ratingsQueryKey(session.UserID),
		func(ctx context.Context) (interface{}, error) {
			return h.store.GetRatingsByUserID(ctx, session.UserID)
		})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ratings, _ := value.([]*models.Rating)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"ratings": ratings})
}

type watchlistRequest struct {
	Priority    int    `json:"priority"`
	MovieTitle  string `json:"movie_title"`
	PosterPath  string `json:"poster_path"`
	ReleaseDate string `json:"release_date"`
}

// AddToWatchlist adds or updates a watchlist entry. Omitting the
// priority applies the default.
func (h *Handlers) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		h.writeError(w, r, auth.ErrUnauthorized)
		return
	}

	movieID, ok := movieIDParam(r)
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid movie id"})
		return
	}

	var req watchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Priority == 0 {
		req.Priority = models.DefaultWatchlistPriority
	}
	if req.MovieTitle == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "movie_title is required"})
		return
	}

	entry := &models.WatchlistEntry{
		UserID:      session.UserID,
		MovieID:     movieID,
		Priority:    req.Priority,
		MovieTitle:  req.MovieTitle,
		PosterPath:  sql.NullString{String: req.PosterPath, Valid: req.PosterPath != ""},
		ReleaseDate: sql.NullString{String: req.ReleaseDate, Valid: req.ReleaseDate != ""},
	}

	if err := h.store.AddToWatchlist(r.Context(), entry); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.queries.Invalidate(watchlistQueryKey(session.UserID))

	h.writeJSON(w, http.StatusOK, entry)
}

// ListWatchlist returns the user's watchlist, most recently added first
func (h *Handlers) ListWatchlist(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		h.writeError(w, r, auth.ErrUnauthorized)
		return
	}

	value, _, err := h.queries.GetOrLoad(r.Context(), watchlistQueryKey(session.UserID),
		func(ctx context.Context) (interface{}, error) {
			return h.store.GetWatchlistByUserID(ctx, session.UserID)
		})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	entries, _ := value.([]*models.WatchlistEntry)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"watchlist": entries})
}

// RemoveFromWatchlist removes a movie from the user's watchlist
func (h *Handlers) RemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		h.writeError(w, r, auth.ErrUnauthorized)
		return
	}

	movieID, ok := movieIDParam(r)
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid movie id"})
		return
	}

	if err := h.store.RemoveFromWatchlist(r.Context(), session.UserID, movieID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.queries.Invalidate(watchlistQueryKey(session.UserID))

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
