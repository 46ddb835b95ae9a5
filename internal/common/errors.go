// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorBadRequest   = errors.New("bad request")

	// Path resolution: the supplied path contains no usable segment.
	ErrInvalidPath = errors.New("invalid path")

	// Disk write failed. Distinct from ErrorInternal so clients can tell
	// "fix the path" apart from "retry later".
	ErrStorageWrite = errors.New("storage write failed")

	// Registration errors.
	ErrorUserExists   = errors.New("user already exists")
	ErrorWeakPassword = errors.New("password does not meet requirements")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
