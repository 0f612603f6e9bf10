package database

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrValidation indicates the input was rejected before any write
	ErrValidation = errors.New("validation failed")
)
