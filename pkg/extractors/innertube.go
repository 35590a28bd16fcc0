// Package extractors resolves video IDs to directly playable media URLs by
// talking to the player endpoint with a mobile client profile, which returns
// plain progressive URLs without a signature challenge.
package extractors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aliciarogers01/vrchat-yts-backend/pkg/interfaces"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/logging"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/types"
)

const (
	playerEndpoint = "https://www.youtube.com/youtubei/v1/player"

	clientName        = "ANDROID"
	clientVersion     = "19.09.37"
	androidSDKVersion = 30
	clientUserAgent   = "com.google.android.youtube/19.09.37 (Linux; U; Android 11) gzip"
)

// InnerTube fetches player responses for a video ID.
type InnerTube struct {
	client   interfaces.HTTPClient
	log      *logging.Logger
	endpoint string
}

// NewInnerTube creates the extraction engine. The client should route the
// player endpoint through the fingerprinted transport.
func NewInnerTube(client interfaces.HTTPClient, log *logging.Logger) *InnerTube {
	return &InnerTube{
		client:   client,
		log:      log.WithComponent("innertube"),
		endpoint: playerEndpoint,
	}
}

type playerRequest struct {
	Context struct {
		Client struct {
			ClientName        string `json:"clientName"`
			ClientVersion     string `json:"clientVersion"`
			AndroidSDKVersion int    `json:"androidSdkVersion"`
			UserAgent         string `json:"userAgent"`
			HL                string `json:"hl"`
			GL                string `json:"gl"`
		} `json:"client"`
	} `json:"context"`
	VideoID        string `json:"videoId"`
	ContentCheckOK bool   `json:"contentCheckOk"`
	RacyCheckOK    bool   `json:"racyCheckOk"`
}

type playerFormat struct {
	Itag         int    `json:"itag"`
	URL          string `json:"url"`
	MimeType     string `json:"mimeType"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Bitrate      int    `json:"bitrate"`
	AudioQuality string `json:"audioQuality"`
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails struct {
		VideoID       string `json:"videoId"`
		Title         string `json:"title"`
		LengthSeconds string `json:"lengthSeconds"`
		IsLive        bool   `json:"isLive"`
		IsLiveContent bool   `json:"isLiveContent"`
	} `json:"videoDetails"`
	StreamingData struct {
		Formats         []playerFormat `json:"formats"`
		AdaptiveFormats []playerFormat `json:"adaptiveFormats"`
	} `json:"streamingData"`
}

// Probe returns lightweight metadata for gating decisions, without touching
// the format lists.
func (e *InnerTube) Probe(ctx context.Context, videoID string) (*types.ProbeInfo, error) {
	resp, err := e.player(ctx, videoID)
	if err != nil {
		return nil, err
	}

	length, _ := strconv.Atoi(resp.VideoDetails.LengthSeconds)
	return &types.ProbeInfo{
		ID:              resp.VideoDetails.VideoID,
		Title:           resp.VideoDetails.Title,
		DurationSeconds: length,
		IsLive:          resp.VideoDetails.IsLive || resp.PlayabilityStatus.Status == "LIVE_STREAM_OFFLINE",
	}, nil
}

// Fetch returns the best stream matching the selector, or
// types.ErrNoPlayableURL when no listed format satisfies it.
func (e *InnerTube) Fetch(ctx context.Context, videoID string, sel types.FormatSelector) (*types.StreamFormat, error) {
	resp, err := e.player(ctx, videoID)
	if err != nil {
		return nil, err
	}

	progressive := toStreamFormats(resp.StreamingData.Formats)
	adaptive := toStreamFormats(resp.StreamingData.AdaptiveFormats)

	chosen := selectFormat(progressive, adaptive, sel)
	if chosen == nil {
		return nil, types.ErrNoPlayableURL
	}
	e.log.Debug("format selected", "video_id", videoID, "itag", chosen.Itag, "height", chosen.Height)
	return chosen, nil
}

func (e *InnerTube) player(ctx context.Context, videoID string) (*playerResponse, error) {
	var body playerRequest
	body.Context.Client.ClientName = clientName
	body.Context.Client.ClientVersion = clientVersion
	body.Context.Client.AndroidSDKVersion = androidSDKVersion
	body.Context.Client.UserAgent = clientUserAgent
	body.Context.Client.HL = "en"
	body.Context.Client.GL = "US"
	body.VideoID = videoID
	body.ContentCheckOK = true
	body.RacyCheckOK = true

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", clientUserAgent)

	httpResp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: player call: %v", types.ErrUpstreamUnavailable, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: player status %d", types.ErrUpstreamUnavailable, httpResp.StatusCode)
	}

	var resp playerResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: player decode: %v", types.ErrUpstreamUnavailable, err)
	}

	switch resp.PlayabilityStatus.Status {
	case "OK", "LIVE_STREAM_OFFLINE", "":
	default:
		reason := resp.PlayabilityStatus.Reason
		if reason == "" {
			reason = resp.PlayabilityStatus.Status
		}
		return nil, fmt.Errorf("%w: %s", types.ErrNoPlayableURL, strings.ToLower(reason))
	}

	return &resp, nil
}

func toStreamFormats(in []playerFormat) []types.StreamFormat {
	out := make([]types.StreamFormat, 0, len(in))
	for _, f := range in {
		if f.URL == "" {
			continue
		}
		out = append(out, types.StreamFormat{
			Itag:         f.Itag,
			URL:          f.URL,
			MimeType:     f.MimeType,
			Width:        f.Width,
			Height:       f.Height,
			Bitrate:      f.Bitrate,
			AudioQuality: f.AudioQuality,
		})
	}
	return out
}

var _ interfaces.ExtractionEngine = (*InnerTube)(nil)
