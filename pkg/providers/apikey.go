// Package providers implements the upstream search data sources. Each
// provider answers a keyword search with normalized result records; the
// ordered fallback between them lives in pkg/registry.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aliciarogers01/vrchat-yts-backend/pkg/interfaces"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/logging"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/types"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/ytutil"
)

const (
	// Data API hard cap for one batch of results.
	maxBatchSize = 25

	searchEndpoint = "https://www.googleapis.com/youtube/v3/search"
	videosEndpoint = "https://www.googleapis.com/youtube/v3/videos"
)

// APIProvider queries the official metadata API: a keyword search yielding
// ordered video IDs, then a batch detail lookup for duration, title, and
// thumbnail. Transport errors surface; it never falls through silently.
type APIProvider struct {
	apiKey string
	client interfaces.HTTPClient
	log    *logging.Logger
}

// NewAPIProvider creates the official-API provider.
func NewAPIProvider(apiKey string, client interfaces.HTTPClient, log *logging.Logger) *APIProvider {
	return &APIProvider{
		apiKey: apiKey,
		client: client,
		log:    log.WithComponent("api-provider"),
	}
}

// Name returns the provider name.
func (p *APIProvider) Name() string {
	return "api"
}

// Search returns up to limit records for the query, in API ranking order.
// limit is clamped to [1, 25] before use. A query with zero hits returns an
// empty list and a nil error; missing credentials and transport failures
// return types.ErrMissingCredential / types.ErrUpstreamUnavailable.
func (p *APIProvider) Search(ctx context.Context, query string, limit int) ([]types.ResultRecord, error) {
	if p.apiKey == "" {
		return nil, types.ErrMissingCredential
	}

	if limit < 1 {
		limit = 1
	}
	if limit > maxBatchSize {
		limit = maxBatchSize
	}

	ids, err := p.searchIDs(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		p.log.Debug("no results", "query", query)
		return []types.ResultRecord{}, nil
	}

	return p.lookupDetails(ctx, ids)
}

// searchIDs performs the keyword search call and returns ordered video IDs.
func (p *APIProvider) searchIDs(ctx context.Context, query string, limit int) ([]string, error) {
	params := url.Values{
		"part":       {"snippet"},
		"type":       {"video"},
		"maxResults": {fmt.Sprintf("%d", limit)},
		"q":          {query},
		"key":        {p.apiKey},
	}

	var body struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
		} `json:"items"`
	}
	if err := p.getJSON(ctx, searchEndpoint+"?"+params.Encode(), &body); err != nil {
		return nil, fmt.Errorf("%w: search call: %v", types.ErrUpstreamUnavailable, err)
	}

	ids := make([]string, 0, len(body.Items))
	for _, item := range body.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	return ids, nil
}

// lookupDetails performs the batch detail call and merges into records.
func (p *APIProvider) lookupDetails(ctx context.Context, ids []string) ([]types.ResultRecord, error) {
	params := url.Values{
		"part": {"contentDetails,snippet"},
		"id":   {strings.Join(ids, ",")},
		"key":  {p.apiKey},
	}

	var body struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title      string `json:"title"`
				Thumbnails map[string]struct {
					URL string `json:"url"`
				} `json:"thumbnails"`
			} `json:"snippet"`
			ContentDetails struct {
				Duration string `json:"duration"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := p.getJSON(ctx, videosEndpoint+"?"+params.Encode(), &body); err != nil {
		return nil, fmt.Errorf("%w: videos call: %v", types.ErrUpstreamUnavailable, err)
	}

	records := make([]types.ResultRecord, 0, len(body.Items))
	for _, item := range body.Items {
		if item.ID == "" {
			continue
		}
		thumb := item.Snippet.Thumbnails["medium"].URL
		if thumb == "" {
			thumb = item.Snippet.Thumbnails["default"].URL
		}
		records = append(records, types.ResultRecord{
			ID:              item.ID,
			Title:           item.Snippet.Title,
			DurationSeconds: ytutil.ParseDuration(item.ContentDetails.Duration),
			ThumbnailURL:    thumb,
		})
	}
	return records, nil
}

// getJSON fetches a URL and decodes the JSON body into out.
func (p *APIProvider) getJSON(ctx context.Context, urlStr string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ interfaces.Provider = (*APIProvider)(nil)
