package auth

import "errors"

// ErrUnauthorized indicates a missing, invalid or expired credential
var ErrUnauthorized = errors.New("unauthorized")
