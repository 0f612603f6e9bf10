package catalog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/flickpick/flickpick/internal/cache"
)

// Fetcher performs raw catalog API fetches. Satisfied by *Client; tests
// substitute a counting fake.
type Fetcher interface {
	FetchPopular(ctx context.Context, page int) ([]byte, error)
	FetchMovie(ctx context.Context, movieID int64) ([]byte, error)
	FetchGenres(ctx context.Context) ([]byte, error)
	FetchSearch(ctx context.Context, query string, page int) ([]byte, error)
}

// Tags not tied to a single resource key
const (
	TagPopularMovies = "popular-movies"
	TagGenresList    = "genres-list"
)

// Service fronts the catalog API with the origin fetch cache. Each
// resource is cached under its class policy and registered under
// invalidation tags; the resource key itself always doubles as a tag so
// a single entry is individually addressable.
type Service struct {
	fetcher Fetcher
	store   *cache.Store
	logger  *zap.Logger
}

// NewService creates a cached catalog service
func NewService(fetcher Fetcher, store *cache.Store, logger *zap.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
	}
}

// PopularKey returns the resource key for a popular-list page
func PopularKey(page int) string {
	return fmt.Sprintf("popular-movies-page-%d", page)
}

// MovieKey returns the resource key for a movie detail record
func MovieKey(movieID int64) string {
	return fmt.Sprintf("movie-%d", movieID)
}

// SearchKey returns the resource key for a search result page
func SearchKey(query string, page int) string {
	return fmt.Sprintf("search-%s-page-%d", normalizeQuery(query), page)
}

// SearchTag returns the tag covering every page of a search query
func SearchTag(query string) string {
	return "search-" + normalizeQuery(query)
}

// normalizeQuery canonicalizes a search query for key/tag construction
// so "Blade Runner" and "blade runner" address the same entries
func normalizeQuery(query string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(query)), " ", "+")
}

// Popular returns one page of the popular movies list
func (s *Service) Popular(ctx context.Context, page int) (*Page, cache.Result, error) {
	key := PopularKey(page)
	res, err := s.store.Fetch(ctx, key, cache.ClassPopularList, []string{key, TagPopularMovies},
		func(ctx context.Context) ([]byte, error) {
			return s.fetcher.FetchPopular(ctx, page)
		})
	if err != nil {
		return nil, cache.Result{}, err
	}

	parsed, err := ParsePage(res.Payload)
	if err != nil {
		return nil, cache.Result{}, err
	}
	return parsed, res, nil
}

// Movie returns a movie's full detail record
func (s *Service) Movie(ctx context.Context, movieID int64) (*MovieDetail, cache.Result, error) {
	key := MovieKey(movieID)
	res, err := s.store.Fetch(ctx, key, cache.ClassMovieDetail, []string{key},
		func(ctx context.Context) ([]byte, error) {
			return s.fetcher.FetchMovie(ctx, movieID)
		})
	if err != nil {
		return nil, cache.Result{}, err
	}

	parsed, err := ParseMovieDetail(res.Payload)
	if err != nil {
		return nil, cache.Result{}, err
	}
	return parsed, res, nil
}

// Genres returns the movie genre list
func (s *Service) Genres(ctx context.Context) ([]Genre, cache.Result, error) {
	res, err := s.store.Fetch(ctx, TagGenresList, cache.ClassGenreList, []string{TagGenresList},
		func(ctx context.Context) ([]byte, error) {
			return s.fetcher.FetchGenres(ctx)
		})
	if err != nil {
		return nil, cache.Result{}, err
	}

	parsed, err := ParseGenreList(res.Payload)
	if err != nil {
		return nil, cache.Result{}, err
	}
	return parsed, res, nil
}

// Search returns one page of movie search results
func (s *Service) Search(ctx context.Context, query string, page int) (*Page, cache.Result, error) {
	key := SearchKey(query, page)
	res, err := s.store.Fetch(ctx, key, cache.ClassSearchResult, []string{key, SearchTag(query)},
		func(ctx context.Context) ([]byte, error) {
			return s.fetcher.FetchSearch(ctx, query, page)
		})
	if err != nil {
		return nil, cache.Result{}, err
	}

	parsed, err := ParsePage(res.Payload)
	if err != nil {
		return nil, cache.Result{}, err
	}
	return parsed, res, nil
}

// Invalidate removes every cached entry registered under tag and
// returns the number of entries removed. Safe to call for tags with no
// entries.
func (s *Service) Invalidate(tag string) int {
	removed := s.store.Invalidate(tag)
	s.logger.Info("catalog cache invalidation requested",
		zap.String("tag", tag),
		zap.Int("removed", removed),
	)
	return removed
}
