package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/flickpick/flickpick/internal/database"
	"github.com/flickpick/flickpick/internal/models"
)

// StateStore is the persistence surface the state manager needs
type StateStore interface {
	CreateOAuthState(ctx context.Context, state *models.OAuthState) error
	ConsumeOAuthState(ctx context.Context, state string) error
}

// StateManager handles OAuth state generation and validation
type StateManager struct {
	store       StateStore
	stateExpiry time.Duration
}

// NewStateManager creates a new state manager
func NewStateManager(store StateStore, stateExpiryMinutes int) *StateManager {
	return &StateManager{
		store:       store,
		stateExpiry: time.Duration(stateExpiryMinutes) * time.Minute,
	}
}

// GenerateState generates a cryptographically secure random state
func (sm *StateManager) GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random state: %w", err)
	}

	return base64.URLEncoding.EncodeToString(b), nil
}

// StoreState stores a state with an expiry time
func (sm *StateManager) StoreState(ctx context.Context, state string) error {
	oauthState := &models.OAuthState{
		State:     state,
		ExpiresAt: time.Now().Add(sm.stateExpiry),
	}

	if err := sm.store.CreateOAuthState(ctx, oauthState); err != nil {
		return fmt.Errorf("failed to store state: %w", err)
	}

	return nil
}

// ValidateState consumes a state (single-use). An unknown, expired or
// already-used state is rejected as unauthorized.
func (sm *StateManager) ValidateState(ctx context.Context, state string) error {
	if err := sm.store.ConsumeOAuthState(ctx, state); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w: invalid or expired state", ErrUnauthorized)
		}
		return fmt.Errorf("state validation failed: %w", err)
	}

	return nil
}
