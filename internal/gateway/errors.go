package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrForbidden covers permission failures and rate limiting (403, 429).
	ErrForbidden = errors.New("forbidden or rate limited")
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found")
	// ErrUpstream covers every other failure: transport errors, 5xx, malformed bodies.
	ErrUpstream = errors.New("upstream request failed")
	// ErrEmptyDocument is wrapped when a successful response carries no data.
	ErrEmptyDocument = errors.New("response has no data")
)

// StatusError is returned by every gateway call that fails.
// StatusCode is zero when no HTTP response was received.
type StatusError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("failed to %s: status %d: %v", e.Op, e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// Is maps the status code onto the gateway sentinel errors.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden || e.StatusCode == http.StatusTooManyRequests
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUpstream:
		return !errors.Is(e, ErrForbidden) && !errors.Is(e, ErrNotFound)
	}
	return false
}
