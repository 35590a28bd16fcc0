// Package interfaces defines the core abstractions for the search proxy.
// Providers and the extraction engine implement these interfaces, so the
// fallback chain is configurable and tests can substitute fakes.
package interfaces

import (
	"context"
	"net/http"

	"github.com/aliciarogers01/vrchat-yts-backend/pkg/types"
)

// Provider is an upstream data source capable of answering a keyword search
// with normalized result records.
//
// To add a new provider:
// 1. Create a new file in pkg/providers/
// 2. Implement this interface
// 3. Register it in the chain (see internal/app)
type Provider interface {
	// Name returns a unique identifier for this provider.
	Name() string

	// Search returns up to limit records for the query, in upstream order.
	// An empty slice with a nil error is a valid "no results" outcome.
	Search(ctx context.Context, query string, limit int) ([]types.ResultRecord, error)
}

// ExtractionEngine turns a video identifier into playable stream formats.
// Resolution is a two-phase protocol: an unconstrained probe, then a
// format-constrained fetch.
type ExtractionEngine interface {
	// Probe fetches general metadata without a format constraint.
	Probe(ctx context.Context, videoID string) (*types.ProbeInfo, error)

	// Fetch re-extracts with the given selector and returns the chosen
	// format. A nil format with a nil error never occurs; an engine that
	// finds nothing usable returns types.ErrNoPlayableURL.
	Fetch(ctx context.Context, videoID string, sel types.FormatSelector) (*types.StreamFormat, error)
}

// HTTPClient abstracts HTTP operations for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Logger defines the logging interface used throughout the application.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
