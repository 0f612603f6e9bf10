package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flickpick/flickpick/internal/config"
)

func newTestOAuthConfig() *config.OAuthConfig {
	return &config.OAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:8080/auth/callback",
		AuthURL:      "https://provider.example.com/auth",
		TokenURL:     "https://provider.example.com/token",
		UserInfoURL:  "https://provider.example.com/userinfo",
		Scopes:       []string{"openid", "email", "profile"},
	}
}

func TestGetAuthURL_ContainsStateAndClientID(t *testing.T) {
	client := NewOAuthClient(newTestOAuthConfig(), zap.NewNop())

	url := client.GetAuthURL("random-state")

	assert.Contains(t, url, "https://provider.example.com/auth")
	assert.Contains(t, url, "state=random-state")
	assert.Contains(t, url, "client_id=client-id")
}

func TestExchangeCode_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "auth-code", r.FormValue("code"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"access-123","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	client := NewOAuthClient(newTestOAuthConfig(), zap.NewNop())
	client.SetBaseURL(server.URL)

	token, err := client.ExchangeCode(context.Background(), "auth-code")

	require.NoError(t, err)
	assert.Equal(t, "access-123", token.AccessToken)
}

func TestExchangeCode_ProviderRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	client := NewOAuthClient(newTestOAuthConfig(), zap.NewNop())
	client.SetBaseURL(server.URL)

	_, err := client.ExchangeCode(context.Background(), "bad-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to exchange code")
}

func TestGetUserInfo_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/userinfo", r.URL.Path)
		assert.Equal(t, "Bearer access-123", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sub":"user-1","email":"user@example.com","name":"Test User","picture":"https://img.example.com/a.png"}`))
	}))
	defer server.Close()

	client := NewOAuthClient(newTestOAuthConfig(), zap.NewNop())
	client.SetBaseURL(server.URL)

	user, err := client.GetUserInfo(context.Background(), "access-123")

	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)
	assert.Equal(t, "Test User", user.Name)
}

func TestGetUserInfo_MissingEmailRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sub":"user-1","name":"No Email"}`))
	}))
	defer server.Close()

	client := NewOAuthClient(newTestOAuthConfig(), zap.NewNop())
	client.SetBaseURL(server.URL)

	_, err := client.GetUserInfo(context.Background(), "access-123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no email address")
}

func TestGetUserInfo_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewOAuthClient(newTestOAuthConfig(), zap.NewNop())
	client.SetBaseURL(server.URL)

	_, err := client.GetUserInfo(context.Background(), "expired-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
