// Package testutil provides shared test helpers: a mock catalog API
// server and a mock recommendation generator.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// MockCatalogServer is a stand-in for the external movie catalog API.
// It counts calls per endpoint family and can be switched into a
// failure mode to exercise stale serving and error paths.
type MockCatalogServer struct {
	Server *httptest.Server

	mu           sync.Mutex
	popularCalls int
	movieCalls   int
	genreCalls   int
	searchCalls  int

	failStatus int
}

// NewMockCatalogServer creates a mock catalog API server
func NewMockCatalogServer() *MockCatalogServer {
	mcs := &MockCatalogServer{}

	mcs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		mcs.mu.Lock()
		failStatus := mcs.failStatus
		mcs.mu.Unlock()

		path := r.URL.Path
		switch {
		case path == "/movie/popular":
			mcs.count(&mcs.popularCalls)
			if failStatus != 0 {
				w.WriteHeader(failStatus)
				return
			}
			page := r.URL.Query().Get("page")
			if page == "" {
				page = "1"
			}
			fmt.Fprintf(w, `{"page":%s,"results":[{"id":603,"title":"The Matrix","vote_average":8.2}],"total_pages":10,"total_results":200}`, page)

		case path == "/genre/movie/list":
			mcs.count(&mcs.genreCalls)
			if failStatus != 0 {
				w.WriteHeader(failStatus)
				return
			}
			fmt.Fprint(w, `{"genres":[{"id":28,"name":"Action"},{"id":878,"name":"Science Fiction"}]}`)

		case path == "/search/movie":
			mcs.count(&mcs.searchCalls)
			if failStatus != 0 {
				w.WriteHeader(failStatus)
				return
			}
			fmt.Fprint(w, `{"page":1,"results":[{"id":78,"title":"Blade Runner"}],"total_pages":1,"total_results":1}`)

		case strings.HasPrefix(path, "/movie/"):
			mcs.count(&mcs.movieCalls)
			if failStatus != 0 {
				w.WriteHeader(failStatus)
				return
			}
			id := strings.TrimPrefix(path, "/movie/")
			fmt.Fprintf(w, `{"id":%s,"title":"Movie %s","runtime":120}`, id, id)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	return mcs
}

func (mcs *MockCatalogServer) count(counter *int) {
	mcs.mu.Lock()
	defer mcs.mu.Unlock()
	*counter++
}

// SetFailStatus makes every subsequent request fail with the given
// status. Pass 0 to restore normal responses.
func (mcs *MockCatalogServer) SetFailStatus(status int) {
	mcs.mu.Lock()
	defer mcs.mu.Unlock()
	mcs.failStatus = status
}

// PopularCalls returns the number of popular-list requests served
func (mcs *MockCatalogServer) PopularCalls() int {
	mcs.mu.Lock()
	defer mcs.mu.Unlock()
	return mcs.popularCalls
}

// MovieCalls returns the number of movie-detail requests served
func (mcs *MockCatalogServer) MovieCalls() int {
	mcs.mu.Lock()
	defer mcs.mu.Unlock()
	return mcs.movieCalls
}

// GenreCalls returns the number of genre-list requests served
func (mcs *MockCatalogServer) GenreCalls() int {
	mcs.mu.Lock()
	defer mcs.mu.Unlock()
	return mcs.genreCalls
}

// SearchCalls returns the number of search requests served
func (mcs *MockCatalogServer) SearchCalls() int {
	mcs.mu.Lock()
	defer mcs.mu.Unlock()
	return mcs.searchCalls
}

// Close shuts the mock server down
func (mcs *MockCatalogServer) Close() {
	mcs.Server.Close()
}

// URL returns the mock server's base URL
func (mcs *MockCatalogServer) URL() string {
	return mcs.Server.URL
}
