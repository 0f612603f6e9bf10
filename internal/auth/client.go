// Package auth provides OAuth2 login, single-use state handling and
// server-side session management.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/flickpick/flickpick/internal/config"
)

// UserInfo represents the identity returned by the OAuth provider
type UserInfo struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// OAuthClient handles the OAuth2 authorization code flow against a
// configurable OpenID Connect provider
type OAuthClient struct {
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewOAuthClient creates a new OAuth client from configuration
func NewOAuthClient(cfg *config.OAuthConfig, logger *zap.Logger) *OAuthClient {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AuthURL,
			TokenURL: cfg.TokenURL,
		},
	}

	return &OAuthClient{
		config:      oauthConfig,
		userInfoURL: cfg.UserInfoURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// GetAuthURL constructs the provider authorization URL
func (c *OAuthClient) GetAuthURL(state string) string {
	return c.config.AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code for an access token
func (c *OAuthClient) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	c.logger.Debug("successfully exchanged code for token",
		zap.String("token_type", token.TokenType),
		zap.Time("expiry", token.Expiry),
	)

	return token, nil
}

// GetUserInfo fetches the user's identity from the provider
func (c *OAuthClient) GetUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var user UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	if user.Email == "" {
		return nil, fmt.Errorf("provider returned no email address")
	}

	c.logger.Debug("fetched user info from provider",
		zap.String("subject", user.Subject),
	)

	return &user, nil
}

// SetBaseURL points the token and userinfo endpoints at a test server
func (c *OAuthClient) SetBaseURL(url string) {
	c.config.Endpoint.TokenURL = url + "/token"
	c.userInfoURL = url + "/userinfo"
}
