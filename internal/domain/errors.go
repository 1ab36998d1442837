package domain

import "errors"

var (
	// ErrVenueUnavailable marks a fetch that failed or timed out. Scoped to
	// one venue for one cycle; the cycle proceeds without it.
	ErrVenueUnavailable = errors.New("venue unavailable")

	// ErrInvalidTimeframe is returned for a timeframe outside the supported
	// set. Callers are rejected, never silently defaulted.
	ErrInvalidTimeframe = errors.New("invalid timeframe")

	// ErrInvalidSymbol is returned for a symbol this deployment does not
	// serve.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrInvalidAddress is returned for a malformed user address on the
	// account query surface.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrSubscriberOverload marks a connection whose outbound queue cannot
	// keep up on the trade channel.
	ErrSubscriberOverload = errors.New("subscriber overloaded")

	// ErrNotFound is the generic missing-key error used by caches.
	ErrNotFound = errors.New("not found")
)
