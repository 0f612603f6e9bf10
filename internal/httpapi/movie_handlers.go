package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/flickpick/flickpick/internal/cache"
)

// setCacheHeaders applies the class's freshness policy to the response
// and reports how the origin cache served it
func setCacheHeaders(w http.ResponseWriter, class cache.Class, res cache.Result) {
	w.Header().Set("Cache-Control", cache.HeadersFor(class))

	switch {
	case res.Stale:
		w.Header().Set("X-Cache", "STALE")
	case res.FromCache:
		w.Header().Set("X-Cache", "HIT")
	default:
		w.Header().Set("X-Cache", "MISS")
	}
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// PopularMovies serves one page of the popular movies list
func (h *Handlers) PopularMovies(w http.ResponseWriter, r *http.Request) {
	page, res, err := h.catalog.Popular(r.Context(), pageParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	setCacheHeaders(w, cache.ClassPopularList, res)
	h.writeJSON(w, http.StatusOK, page)
}

// GenreList serves the movie genre list
func (h *Handlers) GenreList(w http.ResponseWriter, r *http.Request) {
	genres, res, err := h.catalog.Genres(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	setCacheHeaders(w, cache.ClassGenreList, res)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"genres": genres})
}

// SearchMovies serves one page of movie search results
func (h *Handlers) SearchMovies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query parameter is required"})
		return
	}

	page, res, err := h.catalog.Search(r.Context(), query, pageParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	setCacheHeaders(w, cache.ClassSearchResult, res)
	h.writeJSON(w, http.StatusOK, page)
}

// MovieDetail serves a movie's full detail record
func (h *Handlers) MovieDetail(w http.ResponseWriter, r *http.Request) {
	movieID, err := strconv.ParseInt(chi.URLParam(r, "movieID"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid movie id"})
		return
	}

	detail, res, err := h.catalog.Movie(r.Context(), movieID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	setCacheHeaders(w, cache.ClassMovieDetail, res)
	h.writeJSON(w, http.StatusOK, detail)
}
