package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/flickpick/flickpick/internal/auth"
	"github.com/flickpick/flickpick/internal/cache"
	"github.com/flickpick/flickpick/internal/catalog"
	"github.com/flickpick/flickpick/internal/database"
	"github.com/flickpick/flickpick/internal/models"
	"github.com/flickpick/flickpick/internal/recommend"
)

// Store is the persistence surface the handlers need. Satisfied by
// *database.DB.
type Store interface {
	CreateOrUpdateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpsertRating(ctx context.Context, rating *models.Rating) error
	GetRatingsByUserID(ctx context.Context, userID int64) ([]*models.Rating, error)
	DeleteRating(ctx context.Context, userID, movieID int64) error
	AddToWatchlist(ctx context.Context, entry *models.WatchlistEntry) error
	GetWatchlistByUserID(ctx context.Context, userID int64) ([]*models.WatchlistEntry, error)
	RemoveFromWatchlist(ctx context.Context, userID, movieID int64) error
}

// Handlers holds the dependencies of all HTTP handlers
type Handlers struct {
	store       Store
	catalog     *catalog.Service
	queries     *cache.QueryCache
	oauthClient *auth.OAuthClient
	states      *auth.StateManager
	sessions    *auth.SessionManager
	recommender *recommend.Service
	logger      *zap.Logger
}

// NewHandlers creates the handler set
func NewHandlers(
	store Store,
	catalogService *catalog.Service,
	queries *cache.QueryCache,
	oauthClient *auth.OAuthClient,
	states *auth.StateManager,
	sessions *auth.SessionManager,
	recommender *recommend.Service,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		store:       store,
		catalog:     catalogService,
		queries:     queries,
		oauthClient: oauthClient,
		states:      states,
		sessions:    sessions,
		recommender: recommender,
		logger:      logger,
	}
}

// Health reports service liveness
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Me returns the authenticated user's profile
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		h.writeError(w, r, auth.ErrUnauthorized)
		return
	}

	user, err := h.store.GetUserByID(r.Context(), session.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":         user.ID,
		"email":      user.Email,
		"name":       user.Name.String,
		"avatar_url": user.AvatarURL.String,
	})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, database.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, catalog.ErrUpstreamUnavailable), errors.Is(err, recommend.ErrGeneratorUnavailable):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}

	h.writeJSON(w, status, map[string]string{"error": publicErrorMessage(err, status)})
}

// publicErrorMessage hides internal details for 5xx responses
func publicErrorMessage(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}
	return err.Error()
}

func ratingsQueryKey(userID int64) string {
	return fmt.Sprintf("user-%d-ratings", userID)
}

func watchlistQueryKey(userID int64) string {
	return fmt.Sprintf("user-%d-watchlist", userID)
}

func recommendationsQueryKey(userID int64) string {
	return fmt.Sprintf("user-%d-recommendations", userID)
}
