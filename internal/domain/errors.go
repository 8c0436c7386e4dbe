package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRemoteCatalog is returned when the remote market catalog cannot be fetched
	ErrRemoteCatalog = errors.New("remote catalog request failed")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)

// RemoteCatalogError reports a non-success status from the catalog API.
// It matches ErrRemoteCatalog under errors.Is.
type RemoteCatalogError struct {
	StatusCode int
	Body       string
}

func (e *RemoteCatalogError) Error() string {
	return fmt.Sprintf("Gamma API error: %d", e.StatusCode)
}

func (e *RemoteCatalogError) Unwrap() error {
	return ErrRemoteCatalog
}
