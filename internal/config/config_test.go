package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestEnv sets up environment variables for testing and returns a cleanup function
func setupTestEnv(t *testing.T, envVars map[string]string) func() {
	// Store original values
	original := make(map[string]string)
	for key := range envVars {
		original[key] = os.Getenv(key)
	}

	for key, value := range envVars {
		if value == "" {
			err := os.Unsetenv(key)
			if err != nil {
				t.Error(err)
			}
		} else {
			err := os.Setenv(key, value)
			if err != nil {
				t.Error(err)
			}
		}
	}

	return func() {
		for key, value := range original {
			if value == "" {
				err := os.Unsetenv(key)
				if err != nil {
					t.Error(err)
				}
			} else {
				err := os.Setenv(key, value)
				if err != nil {
					t.Error(err)
				}
			}
		}
	}
}

func validTestEnv() map[string]string {
	return map[string]string{
		"CATALOG_API_KEY":     "test_catalog_key",
		"DB_PASSWORD":         "test_db_password",
		"OAUTH_CLIENT_ID":     "test_client_id",
		"OAUTH_CLIENT_SECRET": "test_client_secret",
		"OAUTH_REDIRECT_URI":  "http://localhost:8080/auth/callback",
	}
}

func TestLoadConfigSuccess(t *testing.T) {
	env := validTestEnv()
	env["HTTP_PORT"] = "9090"
	env["CATALOG_TIMEOUT_SECONDS"] = "3"
	env["LOG_LEVEL"] = "debug"
	env["LOG_FORMAT"] = "console"
	cleanup := setupTestEnv(t, env)
	defer cleanup()

	cfg, err := Load()

	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Verify Server config
	assert.Equal(t, "9090", cfg.Server.HTTPPort)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "development", cfg.Server.Env)

	// Verify Catalog config
	assert.Equal(t, "test_catalog_key", cfg.Catalog.APIKey)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.Catalog.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Catalog.Timeout)

	// Verify Database config
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "flickpick", cfg.Database.User)
	assert.Equal(t, "test_db_password", cfg.Database.Password)
	assert.Equal(t, "flickpick_db", cfg.Database.Name)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	// Verify OAuth config
	assert.Equal(t, "test_client_id", cfg.OAuth.ClientID)
	assert.Equal(t, "test_client_secret", cfg.OAuth.ClientSecret)
	assert.Equal(t, "http://localhost:8080/auth/callback", cfg.OAuth.RedirectURI)
	assert.Equal(t, []string{"openid", "email", "profile"}, cfg.OAuth.Scopes)

	// Verify Security config
	assert.Equal(t, 168, cfg.Security.SessionExpiryHours)
	assert.Equal(t, 10, cfg.Security.StateExpiryMinutes)

	// Verify Cache config
	assert.Equal(t, 2*time.Hour, cfg.Cache.QueryStaleAfter)
	assert.Equal(t, 24*time.Hour, cfg.Cache.QueryGCAfter)

	// Verify Logging config
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	tests := []struct {
		name        string
		unset       string
		expectedErr string
	}{
		{
			name:        "missing CATALOG_API_KEY",
			unset:       "CATALOG_API_KEY",
			expectedErr: "CATALOG_API_KEY is required",
		},
		{
			name:        "missing DB_PASSWORD",
			unset:       "DB_PASSWORD",
			expectedErr: "DB_PASSWORD is required",
		},
		{
			name:        "missing OAUTH_CLIENT_ID",
			unset:       "OAUTH_CLIENT_ID",
			expectedErr: "OAUTH_CLIENT_ID is required",
		},
		{
			name:        "missing OAUTH_CLIENT_SECRET",
			unset:       "OAUTH_CLIENT_SECRET",
			expectedErr: "OAUTH_CLIENT_SECRET is required",
		},
		{
			name:        "missing OAUTH_REDIRECT_URI",
			unset:       "OAUTH_REDIRECT_URI",
			expectedErr: "OAUTH_REDIRECT_URI is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := validTestEnv()
			env[tt.unset] = ""
			cleanup := setupTestEnv(t, env)
			defer cleanup()

			cfg, err := Load()

			assert.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestLoadConfigInvalidValues(t *testing.T) {
	tests := []struct {
		name        string
		set         map[string]string
		expectedErr string
	}{
		{
			name:        "invalid log level",
			set:         map[string]string{"LOG_LEVEL": "verbose"},
			expectedErr: "LOG_LEVEL must be one of",
		},
		{
			name:        "invalid log format",
			set:         map[string]string{"LOG_FORMAT": "xml"},
			expectedErr: "LOG_FORMAT must be one of",
		},
		{
			name:        "zero session expiry",
			set:         map[string]string{"SESSION_EXPIRY_HOURS": "0"},
			expectedErr: "SESSION_EXPIRY_HOURS must be positive",
		},
		{
			name: "gc window shorter than stale window",
			set: map[string]string{
				"QUERY_CACHE_STALE_MINUTES": "120",
				"QUERY_CACHE_GC_MINUTES":    "60",
			},
			expectedErr: "QUERY_CACHE_GC_MINUTES must not be shorter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := validTestEnv()
			for k, v := range tt.set {
				env[k] = v
			}
			cleanup := setupTestEnv(t, env)
			defer cleanup()

			cfg, err := Load()

			assert.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestGetDSN(t *testing.T) {
	dbConfig := &DatabaseConfig{
		Host:     "dbhost",
		Port:     "5433",
		User:     "flickpick",
		Password: "secret",
		Name:     "flickpick_db",
		SSLMode:  "require",
	}

	dsn := dbConfig.GetDSN()

	assert.Equal(t, "host=dbhost port=5433 user=flickpick password=secret dbname=flickpick_db sslmode=require", dsn)
}
