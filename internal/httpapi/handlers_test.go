package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/flickpick/flickpick/internal/auth"
	"github.com/flickpick/flickpick/internal/cache"
	"github.com/flickpick/flickpick/internal/catalog"
	"github.com/flickpick/flickpick/internal/config"
	"github.com/flickpick/flickpick/internal/database"
	"github.com/flickpick/flickpick/internal/models"
	"github.com/flickpick/flickpick/internal/recommend"
)

// ============================================================================
// In-memory fakes
// ============================================================================

// fakeStore is an in-memory Store and recommend.Store with the same
// semantics as the database layer
type fakeStore struct {
	mu         sync.Mutex
	users      map[int64]*models.User
	usersByEma map[string]*models.User
	ratings    map[int64]map[int64]*models.Rating
	watchlist  map[int64]map[int64]*models.WatchlistEntry
	recs       map[int64]map[int64]*models.Recommendation
	nextID     int64

	ratingsLoads   int32
	watchlistLoads int32
	saveRecsErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      make(map[int64]*models.User),
		usersByEma: make(map[string]*models.User),
		ratings:    make(map[int64]map[int64]*models.Rating),
		watchlist:  make(map[int64]map[int64]*models.WatchlistEntry),
		recs:       make(map[int64]map[int64]*models.Recommendation),
	}
}

func (f *fakeStore) CreateOrUpdateUser(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.usersByEma[user.Email]; ok {
		existing.Name = user.Name
		existing.AvatarURL = user.AvatarURL
		*user = *existing
		return nil
	}
	f.nextID++
	user.ID = f.nextID
	copied := *user
	f.users[user.ID] = &copied
	f.usersByEma[user.Email] = &copied
	return nil
}

func (f *fakeStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return user, nil
}

func (f *fakeStore) UpsertRating(ctx context.Context, rating *models.Rating) error {
	if err := rating.Validate(); err != nil {
		return fmt.Errorf("%w: %v", database.ErrValidation, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ratings[rating.UserID] == nil {
		f.ratings[rating.UserID] = make(map[int64]*models.Rating)
	}
	f.ratings[rating.UserID][rating.MovieID] = rating
	// Rating a movie removes it from the watchlist
	delete(f.watchlist[rating.UserID], rating.MovieID)
	return nil
}

func (f *fakeStore) GetRatingsByUserID(ctx context.Context, userID int64) ([]*models.Rating, error) {
	atomic.AddInt32(&f.ratingsLoads, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Rating
	for _, r := range f.ratings[userID] {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) DeleteRating(ctx context.Context, userID, movieID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ratings[userID][movieID]; !ok {
		return database.ErrNotFound
	}
	delete(f.ratings[userID], movieID)
	return nil
}

func (f *fakeStore) AddToWatchlist(ctx context.Context, entry *models.WatchlistEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", database.ErrValidation, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, rated := f.ratings[entry.UserID][entry.MovieID]; rated {
		return fmt.Errorf("%w: movie %d is already rated", database.ErrValidation, entry.MovieID)
	}
	if f.watchlist[entry.UserID] == nil {
		f.watchlist[entry.UserID] = make(map[int64]*models.WatchlistEntry)
	}
	f.watchlist[entry.UserID][entry.MovieID] = entry
	return nil
}

func (f *fakeStore) GetWatchlistByUserID(ctx context.Context, userID int64) ([]*models.WatchlistEntry, error) {
	atomic.AddInt32(&f.watchlistLoads, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.WatchlistEntry
	for _, e := range f.watchlist[userID] {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeStore) RemoveFromWatchlist(ctx context.Context, userID, movieID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.watchlist[userID][movieID]; !ok {
		return database.ErrNotFound
	}
	delete(f.watchlist[userID], movieID)
	return nil
}

func (f *fakeStore) SaveRecommendations(ctx context.Context, userID int64, recs []*models.Recommendation) error {
	if f.saveRecsErr != nil {
		return f.saveRecsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recs[userID] == nil {
		f.recs[userID] = make(map[int64]*models.Recommendation)
	}
	for _, rec := range recs {
		rec.UserID = userID
		f.recs[userID][rec.MovieID] = rec
	}
	return nil
}

func (f *fakeStore) GetRecentRecommendations(ctx context.Context, userID int64, limit int) ([]*models.Recommendation, error) {
	if limit <= 0 {
		limit = database.DefaultRecentRecommendations
	}
	all, _ := f.GetAllRecommendations(ctx, userID)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeStore) GetAllRecommendations(ctx context.Context, userID int64) ([]*models.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Recommendation
	for _, rec := range f.recs[userID] {
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeStore) MarkRecommendationSeen(ctx context.Context, userID, movieID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[userID][movieID]
	if !ok {
		return database.ErrNotFound
	}
	rec.Seen = true
	return nil
}

func (f *fakeStore) MarkRecommendationActedOn(ctx context.Context, userID, movieID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[userID][movieID]
	if !ok {
		return database.ErrNotFound
	}
	rec.Seen = true
	rec.ActedOn = true
	return nil
}

// fakeAuthStore backs the state and session managers in memory
type fakeAuthStore struct {
	mu       sync.Mutex
	states   map[string]bool
	sessions map[string]*models.Session
}

func newFakeAuthStore() *fakeAuthStore {
	return &fakeAuthStore{
		states:   make(map[string]bool),
		sessions: make(map[string]*models.Session),
	}
}

func (f *fakeAuthStore) CreateOAuthState(ctx context.Context, state *models.OAuthState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[state.State] = true
	return nil
}

func (f *fakeAuthStore) ConsumeOAuthState(ctx context.Context, state string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.states[state] {
		return database.ErrNotFound
	}
	delete(f.states, state)
	return nil
}

func (f *fakeAuthStore) CreateSession(ctx context.Context, session *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.Token] = session
	return nil
}

func (f *fakeAuthStore) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[token]
	if !ok {
		return nil, database.ErrNotFound
	}
	return session, nil
}

func (f *fakeAuthStore) DeleteSession(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[token]; !ok {
		return database.ErrNotFound
	}
	delete(f.sessions, token)
	return nil
}

// fakeFetcher serves canned catalog payloads and counts calls
type fakeFetcher struct {
	popularCalls int32
	movieCalls   int32
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
	if f.err != nil {
		return nil, f.err
	}
	return []byte(`{"genres":[{"id":28,"name":"Action"}]}`), nil
}

func (f *fakeFetcher) FetchSearch(ctx context.Context, query string, page int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte(fmt.Sprintf(`{"page":%d,"results":[],"total_pages":1,"total_results":0}`, page)), nil
}

// stubGenerator returns a fixed recommendation batch
type stubGenerator struct {
	recs []*models.Recommendation
	err  error
}

func (s *stubGenerator) Generate(ctx context.Context, profile recommend.TasteProfile) ([]*models.Recommendation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.recs, nil
}

// ============================================================================
// Harness
// ============================================================================

type harness struct {
	server    *httptest.Server
	store     *fakeStore
	fetcher   *fakeFetcher
	generator *stubGenerator
	authStore *fakeAuthStore
	sessions  *auth.SessionManager
	oauth     *OAuthStub
}

// OAuthStub is a stub OAuth provider serving token and userinfo
type OAuthStub struct {
	Server *httptest.Server
	Email  string
}

func newOAuthStub() *OAuthStub {
	stub := &OAuthStub{Email: "user@example.com"}
	stub.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"access-123","token_type":"Bearer","expires_in":3600}`))
		case "/userinfo":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"sub":"user-1","email":%q,"name":"Test User"}`, stub.Email)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return stub
}

func newHarness() *harness {
	logger := zap.NewNop()

	store := newFakeStore()
	authStore := newFakeAuthStore()
	fetcher := &fakeFetcher{}
	generator := &stubGenerator{recs: []*models.Recommendation{
		{MovieID: 603, MovieTitle: "The Matrix", Reason: "sci-fi", MatchScore: 92, MatchLevel: models.MatchLevelLoveIt},
	}}

	oauthStub := newOAuthStub()
	oauthClient := auth.NewOAuthClient(&config.OAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost/auth/callback",
		AuthURL:      "https://provider.example.com/auth",
		TokenURL:     "https://provider.example.com/token",
		UserInfoURL:  "https://provider.example.com/userinfo",
		Scopes:       []string{"openid", "email"},
	}, logger)
	oauthClient.SetBaseURL(oauthStub.Server.URL)

	states := auth.NewStateManager(authStore, 10)
	sessions := auth.NewSessionManager(authStore, 168, logger)

	catalogService := catalog.NewService(fetcher, cache.NewStore(logger), logger)
	queries := cache.NewQueryCache(2*time.Hour, 24*time.Hour, logger)
	recommender := recommend.NewService(store, generator, logger)

	handlers := NewHandlers(store, catalogService, queries, oauthClient, states, sessions, recommender, logger)
	server := NewServer(handlers, "0", logger)

	return &harness{
		server:    httptest.NewServer(server.httpServer.Handler),
		store:     store,
		fetcher:   fetcher,
		generator: generator,
		authStore: authStore,
		sessions:  sessions,
		oauth:     oauthStub,
	}
}

func (h *harness) Close() {
	h.server.Close()
	h.oauth.Server.Close()
}

// login creates a user and a session directly and returns the cookie
func (h *harness) login() (*models.User, *http.Cookie) {
	user := &models.User{Email: "user@example.com"}
	_ = h.store.CreateOrUpdateUser(context.Background(), user)
	session, _ := h.sessions.CreateSession(context.Background(), user.ID)
	return user, &http.Cookie{Name: SessionCookieName, Value: session.Token}
}
