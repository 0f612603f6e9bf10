package catalog

import "errors"

var (
	// ErrUpstreamUnavailable indicates the catalog API was unreachable or
	// returned a non-2xx response
	ErrUpstreamUnavailable = errors.New("catalog upstream unavailable")

	// ErrNotConfigured indicates the catalog API credential is missing
	ErrNotConfigured = errors.New("catalog API key not configured")

	// ErrNotFound indicates the requested catalog entity does not exist
	ErrNotFound = errors.New("catalog entity not found")
)
