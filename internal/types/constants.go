package types

import (
	"errors"
	"time"
)

const (
	// DefaultTimeout is the default HTTP client timeout for mirror requests
	DefaultTimeout = 30 * time.Second

	// UserAgent is the user agent string
	UserAgent = "pennywise-go/1.0.0"
)

// Common errors
var (
	// ErrNotAuthenticated is returned when the mirror rejects the token
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrRateLimited is returned when the mirror rate limits us
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout is returned on timeout
	ErrTimeout = errors.New("request timeout")

	// ErrNotFound is returned when resource not found
	ErrNotFound = errors.New("resource not found")

	// ErrServerError is returned for server errors
	ErrServerError = errors.New("server error")
)
