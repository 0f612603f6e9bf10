package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// MockGeneratorServer is a stand-in for the external recommendation
// generator service
type MockGeneratorServer struct {
	Server *httptest.Server

	mu         sync.Mutex
	calls      int
	failStatus int
}

// NewMockGeneratorServer creates a mock generator that returns a fixed
// recommendation batch
func NewMockGeneratorServer() *MockGeneratorServer {
	mgs := &MockGeneratorServer{}

	mgs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mgs.mu.Lock()
		mgs.calls++
		failStatus := mgs.failStatus
		mgs.mu.Unlock()

		if failStatus != 0 {
			w.WriteHeader(failStatus)
			return
		}

		fmt.Fprint(w, `{
			"recommendations": [
				{"movie_id": 603, "movie_title": "The Matrix", "reason": "You loved sci-fi", "match_score": 92},
				{"movie_id": 78, "movie_title": "Blade Runner", "reason": "A genre classic", "match_score": 74}
			]
		}`)
	}))

	return mgs
}

// SetFailStatus makes every subsequent request fail with the given
// status. Pass 0 to restore normal responses.
func (mgs *MockGeneratorServer) SetFailStatus(status int) {
	mgs.mu.Lock()
	defer mgs.mu.Unlock()
	mgs.failStatus = status
}

// Calls returns the number of generation requests served
func (mgs *MockGeneratorServer) Calls() int {
	mgs.mu.Lock()
	defer mgs.mu.Unlock()
	return mgs.calls
}

// Close shuts the mock server down
func (mgs *MockGeneratorServer) Close() {
	mgs.Server.Close()
}

// URL returns the mock server's base URL
func (mgs *MockGeneratorServer) URL() string {
	return mgs.Server.URL
}
