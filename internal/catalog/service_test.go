package catalog

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flickpick/flickpick/internal/cache"
)

// fakeFetcher counts upstream calls and serves canned payloads
type fakeFetcher struct {
	popularCalls int32
	movieCalls   int32
	genresCalls  int32
	searchCalls  int32
	err          error
}

func (f *fakeFetcher) FetchPopular(ctx context.Context, page int) ([]byte, error) {
	atomic.AddInt32(&f.popularCalls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(fmt.Sprintf(`{"page":%d,"results":[{"id":603,"title":"The Matrix"}],"total_pages":5,"total_results":100}`, page)), nil
}

func (f *fakeFetcher) FetchMovie(ctx context.Context, movieID int64) ([]byte, error) {
	atomic.AddInt32(&f.movieCalls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(fmt.Sprintf(`{"id":%d,"title":"Movie %d"}`, movieID, movieID)), nil
}

func (f *fakeFetcher) FetchGenres(ctx context.Context) ([]byte, error) {
	atomic.AddInt32(&f.genresCalls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(`{"genres":[{"id":28,"name":"Action"}]}`), nil
}

func (f *fakeFetcher) FetchSearch(ctx context.Context, query string, page int) ([]byte, error) {
	atomic.AddInt32(&f.searchCalls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(fmt.Sprintf(`{"page":%d,"results":[],"total_pages":1,"total_results":0}`, page)), nil
}

func newTestService() (*Service, *fakeFetcher) {
	fetcher := &fakeFetcher{}
	service := NewService(fetcher, cache.NewStore(zap.NewNop()), zap.NewNop())
	return service, fetcher
}

func TestService_PopularCachedOnSecondCall(t *testing.T) {
	service, fetcher := newTestService()
	ctx := context.Background()

	page, res, err := service.Popular(ctx, 1)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, 1, page.Page)

	page, res, err = service.Popular(ctx, 1)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, 1, page.Page)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.popularCalls))
}

func TestService_PopularPagesCachedIndependently(t *testing.T) {
	service, fetcher := newTestService()
	ctx := context.Background()

	_, _, err := service.Popular(ctx, 1)
	require.NoError(t, err)
	_, _, err = service.Popular(ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&fetcher.popularCalls))
}

func TestService_InvalidateMovieForcesRefetch(t *testing.T) {
	service, fetcher := newTestService()
	ctx := context.Background()

	_, _, err := service.Movie(ctx, 603)
	require.NoError(t, err)

	removed := service.Invalidate(MovieKey(603))
	assert.Equal(t, 1, removed)

	_, res, err := service.Movie(ctx, 603)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fetcher.movieCalls))
}

func TestService_PopularTagCoversAllPages(t *testing.T) {
	service, fetcher := newTestService()
	ctx := context.Background()

	_, _, err := service.Popular(ctx, 1)
	require.NoError(t, err)
	_, _, err = service.Popular(ctx, 2)
	require.NoError(t, err)

	removed := service.Invalidate(TagPopularMovies)
	assert.Equal(t, 2, removed)

	_, res, err := service.Popular(ctx, 1)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, int32(3), atomic.LoadInt32(&fetcher.popularCalls))
}

func TestService_SearchTagCoversAllPagesOfQuery(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	_, _, err := service.Search(ctx, "Blade Runner", 1)
	require.NoError(t, err)
	_, _, err = service.Search(ctx, "blade runner", 2)
	require.NoError(t, err)
	_, _, err = service.Search(ctx, "alien", 1)
	require.NoError(t, err)

	removed := service.Invalidate(SearchTag("blade runner"))

	assert.Equal(t, 2, removed, "query casing must not split the tag")
}

func TestService_InvalidateUnknownTagIsNoOp(t *testing.T) {
	service, _ := newTestService()

	assert.Equal(t, 0, service.Invalidate("movie-999"))
	assert.Equal(t, 0, service.Invalidate("movie-999"))
}

func TestService_GenresCached(t *testing.T) {
	service, fetcher := newTestService()
	ctx := context.Background()

	genres, res, err := service.Genres(ctx)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	require.Len(t, genres, 1)

	_, res, err = service.Genres(ctx)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.genresCalls))
}

func TestService_FetchErrorPropagatesWithoutCacheEntry(t *testing.T) {
	service, fetcher := newTestService()
	fetcher.err = ErrUpstreamUnavailable
	ctx := context.Background()

	_, _, err := service.Movie(ctx, 603)
	require.Error(t, err)

	// A later successful fetch is a miss, not a poisoned hit.
	fetcher.err = nil
	_, res, err := service.Movie(ctx, 603)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "popular-movies-page-3", PopularKey(3))
	assert.Equal(t, "movie-603", MovieKey(603))
	assert.Equal(t, "search-blade+runner-page-2", SearchKey(" Blade Runner ", 2))
	assert.Equal(t, "search-blade+runner", SearchTag("Blade Runner"))
}
