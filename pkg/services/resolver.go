package services

import (
	"context"

	"github.com/aliciarogers01/vrchat-yts-backend/pkg/interfaces"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/logging"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/types"
)

// Resolver turns a video ID into a directly playable media URL, gating out
// content the client cannot handle before the format-constrained fetch.
type Resolver struct {
	engine      interfaces.ExtractionEngine
	maxDuration int
	log         *logging.Logger
}

// NewResolver creates the resolver. maxDuration is the longest playable
// video in seconds; zero disables the length gate.
func NewResolver(engine interfaces.ExtractionEngine, maxDuration int, log *logging.Logger) *Resolver {
	return &Resolver{
		engine:      engine,
		maxDuration: maxDuration,
		log:         log.WithComponent("resolver"),
	}
}

// Resolve runs the two-phase resolution: an unconstrained probe for the
// liveness and length gates, then a format-constrained fetch. prefer is one
// of "720", "480", or "audio"; anything else means "720".
func (r *Resolver) Resolve(ctx context.Context, videoID, prefer string) (*types.ResolvedMedia, error) {
	info, err := r.engine.Probe(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if info.IsLive {
		return nil, types.ErrLiveUnsupported
	}
	if r.maxDuration > 0 && info.DurationSeconds > r.maxDuration {
		return nil, types.ErrTooLong
	}

	format, err := r.engine.Fetch(ctx, videoID, types.QualityPreference(prefer))
	if err != nil {
		return nil, err
	}
	if format.URL == "" {
		return nil, types.ErrNoPlayableURL
	}

	r.log.WithVideoID(videoID).Info("resolved", "prefer", prefer, "itag", format.Itag)
	return &types.ResolvedMedia{
		URL:             format.URL,
		Title:           info.Title,
		DurationSeconds: info.DurationSeconds,
	}, nil
}
