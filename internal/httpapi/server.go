// Package httpapi exposes the application over HTTP: movie browsing
// backed by the origin fetch cache, OAuth login, and the authenticated
// library and recommendation endpoints.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Server wraps the HTTP server
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer creates a new HTTP server with all routes registered
func NewServer(handlers *Handlers, port string, logger *zap.Logger) *Server {
	router := chi.NewRouter()

	router.Use(requestIDMiddleware)
	router.Use(loggingMiddleware(logger))

	router.Get("/health", handlers.Health)

	router.Get("/auth/login", handlers.Login)
	router.Get("/auth/callback", handlers.Callback)
	router.With(handlers.requireSession).Post("/auth/logout", handlers.Logout)

	router.Route("/api", func(r chi.Router) {
		r.Get("/movies/popular", handlers.PopularMovies)
		r.Get("/movies/genres", handlers.GenreList)
		r.Get("/movies/search", handlers.SearchMovies)
		r.Get("/movies/{movieID}", handlers.MovieDetail)

		r.Group(func(r chi.Router) {
			r.Use(handlers.requireSession)

			r.Get("/me", handlers.Me)

			r.Get("/ratings", handlers.ListRatings)
			r.Put("/ratings/{movieID}", handlers.RateMovie)
			r.Delete("/ratings/{movieID}", handlers.UnrateMovie)

			r.Get("/watchlist", handlers.ListWatchlist)
			r.Put("/watchlist/{movieID}", handlers.AddToWatchlist)
			r.Delete("/watchlist/{movieID}", handlers.RemoveFromWatchlist)

			r.Get("/recommendations", handlers.AllRecommendations)
			r.Get("/recommendations/recent", handlers.RecentRecommendations)
			r.Post("/recommendations/generate", handlers.GenerateRecommendations)
			r.Post("/recommendations/{movieID}/seen", handlers.MarkRecommendationSeen)
			r.Post("/recommendations/{movieID}/acted", handlers.MarkRecommendationActedOn)
		})
	})

	router.With(handlers.requireSession).Post("/admin/cache/invalidate", handlers.InvalidateCache)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("HTTP server configured", zap.String("port", port))

	return &Server{
		httpServer: httpServer,
		logger:     logger,
	}
}

// Serve starts the HTTP server
func (s *Server) Serve() error {
	s.logger.Info("starting HTTP server", zap.String("address", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve HTTP: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	return nil
}
