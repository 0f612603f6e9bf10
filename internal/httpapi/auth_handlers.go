package httpapi

import (
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/flickpick/flickpick/internal/auth"
	"github.com/flickpick/flickpick/internal/models"
)

// Login starts the OAuth flow by redirecting to the provider
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	state, err := h.states.GenerateState()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.states.StoreState(r.Context(), state); err != nil {
		h.writeError(w, r, err)
		return
	}

	http.Redirect(w, r, h.oauthClient.GetAuthURL(state), http.StatusTemporaryRedirect)
}

// Callback completes the OAuth flow: validates the state, exchanges the
// code, upserts the user and issues a session cookie
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "state and code parameters are required"})
		return
	}

	if err := h.states.ValidateState(r.Context(), state); err != nil {
		h.writeError(w, r, err)
		return
	}

	token, err := h.oauthClient.ExchangeCode(r.Context(), code)
	if err != nil {
		h.logger.Warn("code exchange failed", zap.Error(err))
		h.writeError(w, r, auth.ErrUnauthorized)
		return
	}

	info, err := h.oauthClient.GetUserInfo(r.Context(), token.AccessToken)
	if err != nil {
		h.logger.Warn("user info fetch failed", zap.Error(err))
		h.writeError(w, r, auth.ErrUnauthorized)
		return
	}

	user := &models.User{
		Email:     info.Email,
		Name:      sql.NullString{String: info.Name, Valid: info.Name != ""},
		AvatarURL: sql.NullString{String: info.Picture, Valid: info.Picture != ""},
	}
	if err := h.store.CreateOrUpdateUser(r.Context(), user); err != nil {
		h.writeError(w, r, err)
		return
	}

	session, err := h.sessions.CreateSession(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("user logged in", zap.Int64("user_id", user.ID))

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Logout deletes the session and clears the cookie
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		h.writeError(w, r, auth.ErrUnauthorized)
		return
	}

	if err := h.sessions.DeleteSession(r.Context(), session.Token); err != nil {
		h.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
