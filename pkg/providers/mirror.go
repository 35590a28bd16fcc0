package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"

	"github.com/aliciarogers01/vrchat-yts-backend/pkg/interfaces"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/logging"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/types"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/ytutil"
)

// MirrorProvider queries independently-operated, unauthenticated mirror
// services in two ordered pools: pool A speaks the Invidious response shape,
// pool B the Piped shape. The first mirror returning at least one usable
// record wins; every individual failure is swallowed as try-next. With both
// pools exhausted the result is an empty list, never an error.
type MirrorProvider struct {
	invidious []string
	piped     []string
	shuffle   bool
	client    interfaces.HTTPClient
	log       *logging.Logger
}

// NewMirrorProvider creates the mirror fallback provider.
func NewMirrorProvider(invidious, piped []string, shuffle bool, client interfaces.HTTPClient, log *logging.Logger) *MirrorProvider {
	return &MirrorProvider{
		invidious: invidious,
		piped:     piped,
		shuffle:   shuffle,
		client:    client,
		log:       log.WithComponent("mirror-provider"),
	}
}

// Name returns the provider name.
func (p *MirrorProvider) Name() string {
	return "mirror"
}

// Search walks pool A then pool B, returning the first non-empty usable
// result list. Results from different mirrors are never merged.
func (p *MirrorProvider) Search(ctx context.Context, query string, limit int) ([]types.ResultRecord, error) {
	records, _ := p.search(ctx, query, limit, nil)
	return records, nil
}

// SearchDebug runs the same first-success walk but records every attempt,
// including error text, for the diagnostic endpoint.
func (p *MirrorProvider) SearchDebug(ctx context.Context, query string, limit int) ([]types.ResultRecord, []types.Attempt) {
	var attempts []types.Attempt
	records, _ := p.search(ctx, query, limit, &attempts)
	return records, attempts
}

type mirrorFetch func(ctx context.Context, base, query string) ([]types.ResultRecord, error)

func (p *MirrorProvider) search(ctx context.Context, query string, limit int, attempts *[]types.Attempt) ([]types.ResultRecord, bool) {
	if limit < 1 {
		limit = 1
	}

	pools := []struct {
		bases []string
		fetch mirrorFetch
	}{
		{p.ordered(p.invidious), p.fetchInvidious},
		{p.ordered(p.piped), p.fetchPiped},
	}

	for _, pool := range pools {
		for _, base := range pool.bases {
			records, err := pool.fetch(ctx, base, query)
			if attempts != nil {
				a := types.Attempt{Endpoint: base, OK: err == nil, Count: len(records)}
				if err != nil {
					a.Error = err.Error()
				}
				*attempts = append(*attempts, a)
			}
			if err != nil {
				p.log.Debug("mirror failed, trying next", "mirror", base, "error", err)
				continue
			}
			if len(records) == 0 {
				continue
			}
			if len(records) > limit {
				records = records[:limit]
			}
			p.log.Debug("mirror succeeded", "mirror", base, "count", len(records))
			return records, true
		}
	}

	return []types.ResultRecord{}, false
}

// ordered returns the pool order for one call, shuffled when configured to
// spread load across mirror operators.
func (p *MirrorProvider) ordered(bases []string) []string {
	out := make([]string, len(bases))
	copy(out, bases)
	if p.shuffle {
		rand.Shuffle(len(out), func(i, j int) {
			out[i], out[j] = out[j], out[i]
		})
	}
	return out
}

// fetchInvidious queries one pool-A mirror: a flat item array, keeping only
// entries where type == "video".
func (p *MirrorProvider) fetchInvidious(ctx context.Context, base, query string) ([]types.ResultRecord, error) {
	urlStr := strings.TrimRight(base, "/") + "/api/v1/search?q=" + url.QueryEscape(query) + "&type=video"

	var items []struct {
		Type            string `json:"type"`
		VideoID         string `json:"videoId"`
		Title           string `json:"title"`
		LengthSeconds   int    `json:"lengthSeconds"`
		VideoThumbnails []struct {
			Quality string `json:"quality"`
			URL     string `json:"url"`
		} `json:"videoThumbnails"`
	}
	if err := p.getJSON(ctx, urlStr, &items); err != nil {
		return nil, err
	}

	records := make([]types.ResultRecord, 0, len(items))
	for _, item := range items {
		if item.Type != "video" || item.VideoID == "" {
			continue
		}
		thumb := ""
		for _, t := range item.VideoThumbnails {
			if t.Quality == "medium" {
				thumb = t.URL
				break
			}
		}
		if thumb == "" && len(item.VideoThumbnails) > 0 {
			thumb = item.VideoThumbnails[0].URL
		}
		if thumb == "" {
			thumb = ytutil.ThumbnailURL(item.VideoID, "mq")
		}
		records = append(records, types.ResultRecord{
			ID:              item.VideoID,
			Title:           item.Title,
			DurationSeconds: item.LengthSeconds,
			ThumbnailURL:    thumb,
		})
	}
	return records, nil
}

// fetchPiped queries one pool-B mirror: an object with an items list, video
// IDs embedded in relative watch URLs.
func (p *MirrorProvider) fetchPiped(ctx context.Context, base, query string) ([]types.ResultRecord, error) {
	urlStr := strings.TrimRight(base, "/") + "/search?q=" + url.QueryEscape(query) + "&filter=videos"

	var body struct {
		Items []struct {
			URL       string `json:"url"`
			Title     string `json:"title"`
			Duration  int    `json:"duration"`
			Thumbnail string `json:"thumbnail"`
		} `json:"items"`
	}
	if err := p.getJSON(ctx, urlStr, &body); err != nil {
		return nil, err
	}

	records := make([]types.ResultRecord, 0, len(body.Items))
	for _, item := range body.Items {
		id := pipedVideoID(item.URL)
		if id == "" {
			continue
		}
		dur := item.Duration
		if dur < 0 {
			// Piped reports -1 for live streams.
			dur = 0
		}
		thumb := item.Thumbnail
		if thumb == "" {
			thumb = ytutil.ThumbnailURL(id, "mq")
		}
		records = append(records, types.ResultRecord{
			ID:              id,
			Title:           item.Title,
			DurationSeconds: dur,
			ThumbnailURL:    thumb,
		})
	}
	return records, nil
}

// pipedVideoID extracts the video ID from a Piped item URL, which is a
// relative watch path like "/watch?v=dQw4w9WgXcQ".
func pipedVideoID(itemURL string) string {
	parsed, err := url.Parse(itemURL)
	if err != nil {
		return ""
	}
	if v := parsed.Query().Get("v"); v != "" {
		return v
	}
	if id, err := ytutil.ExtractVideoID(itemURL); err == nil {
		return id
	}
	return ""
}

// getJSON fetches a mirror URL and decodes the JSON body into out.
func (p *MirrorProvider) getJSON(ctx context.Context, urlStr string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

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

var _ interfaces.Provider = (*MirrorProvider)(nil)
