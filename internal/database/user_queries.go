package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/flickpick/flickpick/internal/models"
)

// CreateOrUpdateUser inserts or updates a user keyed by email
func (db *DB) CreateOrUpdateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, name, avatar_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name,
		    avatar_url = EXCLUDED.avatar_url,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := db.QueryRowContext(
		ctx,
		query,
		user.Email,
		user.Name,
		user.AvatarURL,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create/update user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by its internal ID
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, email, name, avatar_url, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user models.User
	err := db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// CreateSession inserts a new session
func (db *DB) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (token, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := db.QueryRowContext(
		ctx,
		query,
		session.Token,
		session.UserID,
		session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetSessionByToken retrieves a session by its token
func (db *DB) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	query := `
		SELECT id, token, user_id, expires_at, created_at
		FROM sessions
		WHERE token = $1
	`

	var session models.Session
	err := db.QueryRowContext(ctx, query, token).Scan(
		&session.ID,
		&session.Token,
		&session.UserID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &session, nil
}

// DeleteSession removes a session by its token
func (db *DB) DeleteSession(ctx context.Context, token string) error {
	query := `DELETE FROM sessions WHERE token = $1`

	result, err := db.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
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

// CleanupExpiredSessions removes sessions past their expiry
func (db *DB) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at < NOW()`

	result, err := db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// CreateOAuthState inserts a single-use OAuth state
func (db *DB) CreateOAuthState(ctx context.Context, state *models.OAuthState) error {
	query := `
		INSERT INTO oauth_states (state, expires_at)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := db.QueryRowContext(
		ctx,
		query,
		state.State,
		state.ExpiresAt,
	).Scan(&state.ID, &state.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create oauth state: %w", err)
	}

	return nil
}

// ConsumeOAuthState atomically deletes a state if it exists and has not
// expired. A state can therefore only ever be consumed once.
func (db *DB) ConsumeOAuthState(ctx context.Context, state string) error {
	query := `
		DELETE FROM oauth_states
		WHERE state = $1 AND expires_at > NOW()
	`

	result, err := db.ExecContext(ctx, query, state)
	if err != nil {
		return fmt.Errorf("failed to consume oauth state: %w", err)
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

// CleanupExpiredOAuthStates removes states past their expiry
func (db *DB) CleanupExpiredOAuthStates(ctx context.Context) (int64, error) {
	query := `DELETE FROM oauth_states WHERE expires_at < NOW()`

	result, err := db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired oauth states: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// StartCleanupJob starts a background goroutine that periodically removes
// expired sessions and OAuth states. It stops when ctx is cancelled.
func (db *DB) StartCleanupJob(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				db.logger.Info("cleanup job stopped")
				return
			case <-ticker.C:
				sessions, err := db.CleanupExpiredSessions(ctx)
				if err != nil {
					db.logger.Error("session cleanup failed", zap.Error(err))
				}
				states, err := db.CleanupExpiredOAuthStates(ctx)
				if err != nil {
					db.logger.Error("oauth state cleanup failed", zap.Error(err))
				}
				if sessions > 0 || states > 0 {
					db.logger.Info("removed expired auth records",
						zap.Int64("sessions", sessions),
						zap.Int64("oauth_states", states),
					)
				}
			}
		}
	}()
}
