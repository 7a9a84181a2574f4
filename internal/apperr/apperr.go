// Package apperr defines the error taxonomy shared by fetchers, caches and
// stores. Only the HTTP layer turns these into status codes.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrNotFound indicates the requested identity does not exist upstream
	// or the requested leaderboard is unknown.
	ErrNotFound = errors.New("statsmith: not found")

	// ErrInvalidArgument indicates a malformed or missing request parameter.
	ErrInvalidArgument = errors.New("statsmith: invalid argument")

	// ErrNotReady indicates a dependent subsystem has not finished
	// initializing.
	ErrNotReady = errors.New("statsmith: not ready")
)

// Default statuses used when an upstream does not provide one.
const (
	StatusDefault   = 500
	StatusMalformed = 520
	StatusTimeout   = 504
)

// UpstreamError is returned when an outbound call fails.
type UpstreamError struct {
	// Service names the upstream, e.g. "hypixel".
	Service string

	// Status is the upstream HTTP status, or one of the Status* defaults.
	Status int

	// Cause is a human-readable reason suitable for API responses.
	Cause string

	// Timeout is set when the outbound deadline was exceeded.
	Timeout bool

	// Err is the underlying error, if any.
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Service, e.Cause, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Service, e.Cause, e.Status)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Invalid returns an error wrapping ErrInvalidArgument with a formatted reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// NotFound returns an error wrapping ErrNotFound with a formatted reason.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Cause extracts the human-readable cause of err. For upstream failures the
// upstream-provided reason is returned unchanged.
func Cause(err error) string {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Cause
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsUpstream reports whether err is an upstream failure that is not a
// NotFound.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && !errors.Is(err, ErrNotFound)
}
