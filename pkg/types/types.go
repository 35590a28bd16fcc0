// Package types defines core domain types used throughout the application.
package types

// ResultRecord is a single normalized search result. It is produced by
// exactly one provider call and never mutated afterwards.
type ResultRecord struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	DurationSeconds int    `json:"duration"`
	ThumbnailURL    string `json:"thumb"`
}

// ResolvedMedia is a direct, time-limited playable URL for one video.
// It is never cached: the URL's validity window is upstream-controlled.
type ResolvedMedia struct {
	URL             string `json:"url"`
	Title           string `json:"title"`
	DurationSeconds int    `json:"duration"`
}

// ProbeInfo is the unconstrained first-phase extraction result, used only
// to gate resolution on liveness and length.
type ProbeInfo struct {
	ID              string
	Title           string
	DurationSeconds int
	IsLive          bool
}

// StreamFormat is one playable format from the extraction engine.
type StreamFormat struct {
	Itag         int
	URL          string
	MimeType     string
	Width        int
	Height       int
	Bitrate      int
	AudioQuality string
}

// FormatSelector constrains the second extraction phase.
type FormatSelector struct {
	MaxHeight int
	AudioOnly bool
	PreferMP4 bool
}

// QualityPreference maps a client "prefer" value to a format selector.
// Unrecognized values fall back to the 720 profile.
func QualityPreference(prefer string) FormatSelector {
	switch prefer {
	case "480":
		return FormatSelector{MaxHeight: 480, PreferMP4: true}
	case "audio":
		return FormatSelector{AudioOnly: true, PreferMP4: true}
	default:
		return FormatSelector{MaxHeight: 720, PreferMP4: true}
	}
}

// Attempt records the outcome of a single mirror query, for the diagnostic
// search path. The normal resolution path never inspects these.
type Attempt struct {
	Endpoint string `json:"endpoint"`
	OK       bool   `json:"ok"`
	Count    int    `json:"count"`
	Error    string `json:"error,omitempty"`
}
