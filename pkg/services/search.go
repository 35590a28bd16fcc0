// Package services implements the application logic between the HTTP
// handlers and the upstream providers: search aggregation, media
// resolution, and sheet compositing.
package services

import (
	"context"

	"github.com/aliciarogers01/vrchat-yts-backend/pkg/logging"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/registry"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/types"
)

// Upstream cap for one batch of results.
const maxFetch = 25

// SearchService fetches enough results from the provider chain to cover a
// requested page.
type SearchService struct {
	chain *registry.Chain
	log   *logging.Logger
}

// NewSearchService creates the search aggregator.
func NewSearchService(chain *registry.Chain, log *logging.Logger) *SearchService {
	return &SearchService{
		chain: chain,
		log:   log.WithComponent("search"),
	}
}

// ListResults fetches the full prefix of results covering pageIndex at
// pageSize results per page. It returns the whole fetched list in upstream
// order; callers slice out their page. The fetch is capped at the upstream
// batch limit, so deep pages may come back short.
func (s *SearchService) ListResults(ctx context.Context, query string, pageIndex, pageSize int) ([]types.ResultRecord, error) {
	if pageIndex < 0 {
		pageIndex = 0
	}
	if pageSize < 1 {
		pageSize = 1
	}

	limit := (pageIndex + 1) * pageSize
	if limit > maxFetch {
		limit = maxFetch
	}

	s.log.WithQuery(query).Debug("fetching result prefix", "page", pageIndex, "limit", limit)
	return s.chain.Search(ctx, query, limit)
}

// Page slices one zero-based page out of a full result list. A page past the
// end is empty, a partially covered page is short.
func Page(records []types.ResultRecord, pageIndex, pageSize int) []types.ResultRecord {
	if pageIndex < 0 || pageSize < 1 {
		return []types.ResultRecord{}
	}
	start := pageIndex * pageSize
	if start >= len(records) {
		return []types.ResultRecord{}
	}
	end := start + pageSize
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}
