// Package catalog provides access to the external movie catalog API,
// fronted by the origin fetch cache.
package catalog

import (
	"encoding/json"
	"fmt"
)

// Movie represents a movie summary as returned in catalog list responses
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	GenreIDs    []int64 `json:"genre_ids"`
}

// MovieDetail represents a full movie record from the catalog
type MovieDetail struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	Tagline     string  `json:"tagline"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	Runtime     int     `json:"runtime"`
	VoteAverage float64 `json:"vote_average"`
	Genres      []Genre `json:"genres"`
}

// Genre represents a movie genre
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Page represents one page of a paginated catalog list response
type Page struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

type genreListResponse struct {
	Genres []Genre `json:"genres"`
}

// ParsePage decodes a paginated list payload
func ParsePage(payload []byte) (*Page, error) {
	var page Page
	if err := json.Unmarshal(payload, &page); err != nil {
		return nil, fmt.Errorf("failed to decode catalog page: %w", err)
	}
	return &page, nil
}

// ParseMovieDetail decodes a movie detail payload
func ParseMovieDetail(payload []byte) (*MovieDetail, error) {
	var detail MovieDetail
	if err := json.Unmarshal(payload, &detail); err != nil {
		return nil, fmt.Errorf("failed to decode movie detail: %w", err)
	}
	return &detail, nil
}

// ParseGenreList decodes a genre list payload
func ParseGenreList(payload []byte) ([]Genre, error) {
	var resp genreListResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode genre list: %w", err)
	}
	return resp.Genres, nil
}
