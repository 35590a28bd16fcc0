package types

import "errors"

// Error taxonomy. Every failure path in the HTTP surface maps to exactly one
// of these via errors.Is; no raw transport error text leaks as an opaque 500.
var (
	// ErrMissingCredential means no API key is configured. Configuration
	// problem, non-retryable, never silently degraded to a fallback.
	ErrMissingCredential = errors.New("missing_api_key")

	// ErrUpstreamUnavailable covers transport, HTTP status, and parse
	// failures from an upstream service. Transient, not retried here.
	ErrUpstreamUnavailable = errors.New("upstream_unavailable")

	// ErrLiveUnsupported rejects live broadcasts: the client player cannot
	// hold a live stream open.
	ErrLiveUnsupported = errors.New("live_not_supported")

	// ErrTooLong rejects content over the configured duration ceiling.
	ErrTooLong = errors.New("too_long")

	// ErrNoPlayableURL means extraction succeeded but yielded no usable
	// direct URL. Distinct from transport failure.
	ErrNoPlayableURL = errors.New("no_playable_url")

	// ErrIndexOutOfRange means the requested positional index exceeds the
	// fetched result count.
	ErrIndexOutOfRange = errors.New("index_out_of_range")

	// ErrInsufficientResults means a grid page could not be filled exactly.
	ErrInsufficientResults = errors.New("insufficient_results")
)
