package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flickpick/flickpick/internal/database"
	"github.com/flickpick/flickpick/internal/models"
)

// SessionStore is the persistence surface the session manager needs
type SessionStore interface {
	CreateSession(ctx context.Context, session *models.Session) error
	GetSessionByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// SessionManager issues and validates server-side login sessions
type SessionManager struct {
	store         SessionStore
	sessionExpiry time.Duration
	logger        *zap.Logger
}

// NewSessionManager creates a new session manager
func NewSessionManager(store SessionStore, sessionExpiryHours int, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		store:         store,
		sessionExpiry: time.Duration(sessionExpiryHours) * time.Hour,
		logger:        logger,
	}
}

// CreateSession issues a new session token for a user
func (sm *SessionManager) CreateSession(ctx context.Context, userID int64) (*models.Session, error) {
	session := &models.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(sm.sessionExpiry),
	}

	if err := sm.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	sm.logger.Info("session created",
		zap.Int64("user_id", userID),
		zap.Time("expires_at", session.ExpiresAt),
	)

	return session, nil
}

// ValidateSession resolves a token to a live session. Expired sessions
// are deleted on sight.
func (sm *SessionManager) ValidateSession(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	session, err := sm.store.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	if session.IsExpired() {
		if err := sm.store.DeleteSession(ctx, token); err != nil && !errors.Is(err, database.ErrNotFound) {
			sm.logger.Warn("failed to delete expired session", zap.Error(err))
		}
		return nil, ErrUnauthorized
	}

	return session, nil
}

// DeleteSession logs a session out. Deleting an unknown token is not an
// error.
func (sm *SessionManager) DeleteSession(ctx context.Context, token string) error {
	if err := sm.store.DeleteSession(ctx, token); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}
