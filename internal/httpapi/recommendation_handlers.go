package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/flickpick/flickpick/internal/auth"
	"github.com/flickpick/flickpick/internal/models"
	"github.com/flickpick/flickpick/internal/recommend"
)

// GenerateRecommendations asks the generator for fresh recommendations
// based on the user's ratings and watchlist. If persistence fails the
// recommendations are still returned, flagged as unsaved.
func (h *Handlers) GenerateRecommendations(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		h.writeError(w, r, auth.ErrUnauthorized)
		return
	}

	count, _ := strconv.Atoi(r.URL.Query().Get("count"))

	recs, err := h.recommender.Generate(r.Context(), session.UserID, count)
	if err != nil {
		var unsaved *recommend.UnsavedError
		if errors.As(err, &unsaved) {
			h.queries.Invalidate(recommendationsQueryKey(session.UserID))
			h.writeJSON(w, http.StatusOK, map[string]interface{}{
				"recommendations": unsaved.Recommendations,
				"saved":           false,
			})
			return
		}
		h.writeError(w, r, err)
		return
	}

	h.queries.Invalidate(recommendationsQueryKey(session.UserID))

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": recs,
		"saved":           true,
	})
}

// RecentRecommendations returns the user's most recent recommendations
func (h *Handlers) RecentRecommendations(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		h.writeError(w, r, auth.ErrUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	recs, err := h.recommender.Recent(r.Context(), session.UserID, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"recommendations": recs})
}

// AllRecommendations returns the user's full recommendation history
func (h *Handlers) AllRecommendations(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		h.writeError(w, r, auth.ErrUnauthorized)
		return
	}

	value, _, err := h.queries.GetOrLoad(r.Context(), recommendationsQueryKey(session.UserID),
		func(ctx context.Context) (interface{}, error) {
			return h.recommender.All(ctx, session.UserID)
		})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	recs, _ := value.([]*models.Recommendation)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"recommendations": recs})
}

// MarkRecommendationSeen flags a recommendation as shown to the user
func (h *Handlers) MarkRecommendationSeen(w http.ResponseWriter, r *http.Request) {
	h.markRecommendation(w, r, h.recommender.MarkSeen)
}

// MarkRecommendationActedOn flags a recommendation as acted on
func (h *Handlers) MarkRecommendationActedOn(w http.ResponseWriter, r *http.Request) {
	h.markRecommendation(w, r, h.recommender.MarkActedOn)
}

func (h *Handlers) markRecommendation(w http.ResponseWriter, r *http.Request, mark func(ctx context.Context, userID, movieID int64) error) {
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

	if err := mark(r.Context(), session.UserID, movieID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.queries.Invalidate(recommendationsQueryKey(session.UserID))

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
