// Package config provides application configuration management using environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Catalog     CatalogConfig
	Recommender RecommenderConfig
	Database    DatabaseConfig
	OAuth       OAuthConfig
	Security    SecurityConfig
	Cache       CacheConfig
	Logging     LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPPort string
	Host     string
	Env      string
}

// CatalogConfig holds configuration for the external movie catalog API
type CatalogConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// RecommenderConfig holds configuration for the external recommendation generator
type RecommenderConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// OAuthConfig holds OAuth provider configuration for login
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	SessionExpiryHours int
	StateExpiryMinutes int
}

// CacheConfig holds tuning for the in-process caches
type CacheConfig struct {
	QueryStaleAfter time.Duration
	QueryGCAfter    time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables.
// It optionally loads from a .env file if one exists.
func Load() (*Config, error) {
	// Try to load .env file (optional, ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Server = ServerConfig{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		Host:     getEnv("SERVER_HOST", "localhost"),
		Env:      getEnv("ENVIRONMENT", "development"),
	}

	catalogTimeout, _ := strconv.Atoi(getEnv("CATALOG_TIMEOUT_SECONDS", "5"))
	cfg.Catalog = CatalogConfig{
		APIKey:  getEnv("CATALOG_API_KEY", ""),
		BaseURL: getEnv("CATALOG_BASE_URL", "https://api.themoviedb.org/3"),
		Timeout: time.Duration(catalogTimeout) * time.Second,
	}

	recommenderTimeout, _ := strconv.Atoi(getEnv("RECOMMENDER_TIMEOUT_SECONDS", "30"))
	cfg.Recommender = RecommenderConfig{
		Endpoint: getEnv("RECOMMENDER_ENDPOINT", ""),
		APIKey:   getEnv("RECOMMENDER_API_KEY", ""),
		Timeout:  time.Duration(recommenderTimeout) * time.Second,
	}

	maxOpenConns, _ := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25"))
	maxIdleConns, _ := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "5"))

	cfg.Database = DatabaseConfig{
		Host:         getEnv("DB_HOST", "localhost"),
		Port:         getEnv("DB_PORT", "5432"),
		User:         getEnv("DB_USER", "flickpick"),
		Password:     getEnv("DB_PASSWORD", ""),
		Name:         getEnv("DB_NAME", "flickpick_db"),
		SSLMode:      getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns: maxOpenConns,
		MaxIdleConns: maxIdleConns,
	}

	cfg.OAuth = OAuthConfig{
		ClientID:     getEnv("OAUTH_CLIENT_ID", ""),
		ClientSecret: getEnv("OAUTH_CLIENT_SECRET", ""),
		RedirectURI:  getEnv("OAUTH_REDIRECT_URI", ""),
		AuthURL:      getEnv("OAUTH_AUTH_URL", "https://accounts.google.com/o/oauth2/auth"),
		TokenURL:     getEnv("OAUTH_TOKEN_URL", "https://oauth2.googleapis.com/token"),
		UserInfoURL:  getEnv("OAUTH_USERINFO_URL", "https://openidconnect.googleapis.com/v1/userinfo"),
		Scopes:       strings.Split(getEnv("OAUTH_SCOPES", "openid email profile"), " "),
	}

	sessionExpiryHours, _ := strconv.Atoi(getEnv("SESSION_EXPIRY_HOURS", "168"))
	stateExpiryMinutes, _ := strconv.Atoi(getEnv("STATE_EXPIRY_MINUTES", "10"))

	cfg.Security = SecurityConfig{
		SessionExpiryHours: sessionExpiryHours,
		StateExpiryMinutes: stateExpiryMinutes,
	}

	queryStaleMinutes, _ := strconv.Atoi(getEnv("QUERY_CACHE_STALE_MINUTES", "120"))
	queryGCMinutes, _ := strconv.Atoi(getEnv("QUERY_CACHE_GC_MINUTES", "1440"))

	cfg.Cache = CacheConfig{
		QueryStaleAfter: time.Duration(queryStaleMinutes) * time.Minute,
		QueryGCAfter:    time.Duration(queryGCMinutes) * time.Minute,
	}

	cfg.Logging = LoggingConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Catalog.APIKey == "" {
		return fmt.Errorf("CATALOG_API_KEY is required")
	}
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("CATALOG_BASE_URL is required")
	}
	if c.Catalog.Timeout <= 0 {
		return fmt.Errorf("CATALOG_TIMEOUT_SECONDS must be positive")
	}

	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	if c.OAuth.ClientID == "" {
		return fmt.Errorf("OAUTH_CLIENT_ID is required")
	}
	if c.OAuth.ClientSecret == "" {
		return fmt.Errorf("OAUTH_CLIENT_SECRET is required")
	}
	if c.OAuth.RedirectURI == "" {
		return fmt.Errorf("OAUTH_REDIRECT_URI is required")
	}

	if c.Security.SessionExpiryHours <= 0 {
		return fmt.Errorf("SESSION_EXPIRY_HOURS must be positive")
	}
	if c.Security.StateExpiryMinutes <= 0 {
		return fmt.Errorf("STATE_EXPIRY_MINUTES must be positive")
	}

	if c.Cache.QueryStaleAfter <= 0 {
		return fmt.Errorf("QUERY_CACHE_STALE_MINUTES must be positive")
	}
	if c.Cache.QueryGCAfter < c.Cache.QueryStaleAfter {
		return fmt.Errorf("QUERY_CACHE_GC_MINUTES must not be shorter than QUERY_CACHE_STALE_MINUTES")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"json": true, "console": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}

	return nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// getEnv retrieves an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
