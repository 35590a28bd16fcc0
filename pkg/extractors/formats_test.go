package extractors

import (
	"testing"

	"github.com/aliciarogers01/vrchat-yts-backend/pkg/types"
)

var progressiveFixture = []types.StreamFormat{
	{Itag: 18, URL: "u18", MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, Height: 360, Bitrate: 500_000},
	{Itag: 22, URL: "u22", MimeType: `video/mp4; codecs="avc1.64001F, mp4a.40.2"`, Height: 720, Bitrate: 2_000_000},
	{Itag: 43, URL: "u43", MimeType: `video/webm; codecs="vp8.0, vorbis"`, Height: 720, Bitrate: 1_500_000},
}

var adaptiveFixture = []types.StreamFormat{
	{Itag: 137, URL: "u137", MimeType: `video/mp4; codecs="avc1.640028"`, Height: 1080, Bitrate: 4_000_000},
	{Itag: 140, URL: "u140", MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 128_000, AudioQuality: "AUDIO_QUALITY_MEDIUM"},
	{Itag: 251, URL: "u251", MimeType: `audio/webm; codecs="opus"`, Bitrate: 160_000, AudioQuality: "AUDIO_QUALITY_MEDIUM"},
}

func TestSelectFormat_Video(t *testing.T) {
	tests := []struct {
		name     string
		sel      types.FormatSelector
		wantItag int
	}{
		{"default cap takes tallest progressive mp4", types.FormatSelector{MaxHeight: 720, PreferMP4: true}, 22},
		{"lower cap steps down", types.FormatSelector{MaxHeight: 480, PreferMP4: true}, 18},
		{"no mp4 preference takes highest bitrate at height", types.FormatSelector{MaxHeight: 720}, 22},
		{"no cap still progressive only", types.FormatSelector{PreferMP4: true}, 22},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectFormat(progressiveFixture, adaptiveFixture, tt.sel)
			if got == nil {
				t.Fatal("selectFormat() = nil")
			}
			if got.Itag != tt.wantItag {
				t.Errorf("itag = %d, want %d", got.Itag, tt.wantItag)
			}
		})
	}
}

func TestSelectFormat_VideoNeverUsesAdaptive(t *testing.T) {
	got := selectFormat(nil, adaptiveFixture, types.FormatSelector{MaxHeight: 1080})
	if got != nil {
		t.Errorf("selectFormat() = itag %d, want nil when only adaptive video exists", got.Itag)
	}
}

func TestSelectFormat_Audio(t *testing.T) {
	got := selectFormat(progressiveFixture, adaptiveFixture, types.FormatSelector{AudioOnly: true, PreferMP4: true})
	if got == nil {
		t.Fatal("selectFormat() = nil")
	}
	if got.Itag != 140 {
		t.Errorf("itag = %d, want 140 (m4a preferred over higher-bitrate opus)", got.Itag)
	}

	got = selectFormat(progressiveFixture, adaptiveFixture, types.FormatSelector{AudioOnly: true})
	if got == nil || got.Itag != 251 {
		t.Errorf("got %+v, want itag 251 by bitrate without container preference", got)
	}
}

func TestSelectFormat_NothingMatches(t *testing.T) {
	if got := selectFormat(nil, nil, types.FormatSelector{MaxHeight: 720}); got != nil {
		t.Errorf("selectFormat() = %+v, want nil", got)
	}
	if got := selectFormat(progressiveFixture, nil, types.FormatSelector{AudioOnly: true}); got != nil {
		t.Errorf("selectFormat() = %+v, want nil when no audio tracks exist", got)
	}
}
