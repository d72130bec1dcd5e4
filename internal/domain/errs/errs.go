// Package errs defines the error taxonomy shared by the pricing engine,
// its adapters and the job runners.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by adapters. Callers classify them with
// errors.Is; upstream-unavailable conditions are retried per tier policy,
// no-data conditions are skipped without retry.
var (
	// ErrRateLimited signals a 429 or equivalent from an upstream service.
	ErrRateLimited = errors.New("upstream rate limited")

	// ErrUnauthorized signals an auth or subscription failure upstream.
	ErrUnauthorized = errors.New("upstream unauthorized")

	// ErrGatewayTimeout signals an unreachable or timed-out upstream.
	ErrGatewayTimeout = errors.New("upstream timeout")

	// ErrNoData signals that the upstream is reachable but has nothing
	// for the requested instrument or range.
	ErrNoData = errors.New("no data available")

	// ErrCurveUnavailable signals that no historical curve exists at or
	// before the requested date.
	ErrCurveUnavailable = errors.New("benchmark curve unavailable")
)

// InvalidInputError reports a solver or engine input that can never
// succeed. It is surfaced immediately and never retried.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Reason)
}

// InvalidInput builds an InvalidInputError for a named field.
func InvalidInput(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}

// IsInvalidInput reports whether err is an InvalidInputError.
func IsInvalidInput(err error) bool {
	var ie *InvalidInputError
	return errors.As(err, &ie)
}

// IsUpstreamUnavailable reports whether err represents a transient or
// access failure of an upstream service, as opposed to an empty result.
func IsUpstreamUnavailable(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrGatewayTimeout)
}
