// Package main is the entry point for the FlickPick server. It wires
// the catalog cache, the recommendation engine and the HTTP API
// together and runs until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/flickpick/flickpick/internal/auth"
	"github.com/flickpick/flickpick/internal/cache"
	"github.com/flickpick/flickpick/internal/catalog"
	"github.com/flickpick/flickpick/internal/config"
	"github.com/flickpick/flickpick/internal/database"
	"github.com/flickpick/flickpick/internal/httpapi"
	"github.com/flickpick/flickpick/internal/ratelimit"
	"github.com/flickpick/flickpick/internal/recommend"
	"github.com/flickpick/flickpick/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		// Sync errors on stdout/stderr are expected and can be safely ignored
		// for non-syncable file descriptors (pipes, terminals, etc.)
		_ = log.Sync()
	}()

	log.Info("starting FlickPick server",
		zap.String("environment", cfg.Server.Env),
		zap.String("http_port", cfg.Server.HTTPPort),
	)

	// Initialize database connection
	db, err := database.NewDB(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations
	if err := db.RunMigrations("internal/database/migrations"); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start cleanup job for expired sessions and OAuth states
	db.StartCleanupJob(ctx, 30*time.Minute)

	// Initialize the catalog client with its origin fetch cache
	catalogClient := catalog.NewClient(&cfg.Catalog, log)
	catalogClient.SetRateLimiter(ratelimit.NewRateLimiter(log))
	catalogService := catalog.NewService(catalogClient, cache.NewStore(log), log)

	// Initialize the query cache and its periodic sweep
	queries := cache.NewQueryCache(cfg.Cache.QueryStaleAfter, cfg.Cache.QueryGCAfter, log)
	go queries.StartSweepJob(ctx, time.Hour)

	// Initialize auth components
	oauthClient := auth.NewOAuthClient(&cfg.OAuth, log)
	states := auth.NewStateManager(db, cfg.Security.StateExpiryMinutes)
	sessions := auth.NewSessionManager(db, cfg.Security.SessionExpiryHours, log)

	// Initialize the recommendation engine
	generator := recommend.NewHTTPGenerator(&cfg.Recommender, log)
	recommender := recommend.NewService(db, generator, log)

	// Initialize HTTP server
	handlers := httpapi.NewHandlers(db, catalogService, queries, oauthClient, states, sessions, recommender, log)
	server := httpapi.NewServer(handlers, cfg.Server.HTTPPort, log)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Serve(); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Fatal("HTTP server error", zap.Error(err))
	case sig := <-sigChan:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server gracefully", zap.Error(err))
	}

	log.Info("server shut down successfully")
}
