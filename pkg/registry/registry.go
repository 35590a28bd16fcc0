// Package registry assembles the ordered provider fallback chain.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/aliciarogers01/vrchat-yts-backend/pkg/interfaces"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/logging"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/types"
)

// Chain runs providers in priority order until one succeeds. A provider that
// returns records wins; a provider that returns an empty list without error
// is a terminal miss (the query has no hits, later providers are not asked).
// Provider errors advance the chain, except a missing credential, which is a
// deployment mistake that must surface rather than hide behind the fallback.
type Chain struct {
	providers []interfaces.Provider
	log       *logging.Logger
}

// New builds a chain from the priority list of provider names. Unknown names
// are an error so a config typo cannot silently drop a provider.
func New(priority []string, available map[string]interfaces.Provider, log *logging.Logger) (*Chain, error) {
	if len(priority) == 0 {
		return nil, errors.New("empty provider priority")
	}

	ordered := make([]interfaces.Provider, 0, len(priority))
	for _, name := range priority {
		p, ok := available[name]
		if !ok {
			return nil, fmt.Errorf("unknown provider %q", name)
		}
		ordered = append(ordered, p)
	}

	return &Chain{
		providers: ordered,
		log:       log.WithComponent("provider-chain"),
	}, nil
}

// Search walks the chain. It returns the first provider's successful result,
// or the last provider's error when every provider failed.
func (c *Chain) Search(ctx context.Context, query string, limit int) ([]types.ResultRecord, error) {
	var lastErr error
	for _, p := range c.providers {
		records, err := p.Search(ctx, query, limit)
		if err != nil {
			if errors.Is(err, types.ErrMissingCredential) {
				return nil, err
			}
			c.log.WithError(err).Warn("provider failed, trying next", "provider", p.Name())
			lastErr = err
			continue
		}
		c.log.Debug("provider answered", "provider", p.Name(), "count", len(records))
		return records, nil
	}
	return nil, lastErr
}

// Names returns the provider names in chain order, for the health endpoint.
func (c *Chain) Names() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}
