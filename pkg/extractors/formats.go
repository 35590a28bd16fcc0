package extractors

import (
	"strings"

	"github.com/aliciarogers01/vrchat-yts-backend/pkg/types"
)

// selectFormat picks the best stream for the selector.
//
// Video: only progressive formats (muxed audio+video) qualify, since the
// client plays a single URL. Among those at or under the height cap, the
// tallest wins; an mp4 beats a non-mp4 at equal height.
//
// Audio-only: adaptive audio tracks qualify, highest bitrate first with the
// same container preference.
func selectFormat(progressive, adaptive []types.StreamFormat, sel types.FormatSelector) *types.StreamFormat {
	if sel.AudioOnly {
		return selectAudio(adaptive, sel.PreferMP4)
	}
	return selectVideo(progressive, sel)
}

func selectVideo(formats []types.StreamFormat, sel types.FormatSelector) *types.StreamFormat {
	var best *types.StreamFormat
	for i := range formats {
		f := &formats[i]
		if f.Height == 0 || (sel.MaxHeight > 0 && f.Height > sel.MaxHeight) {
			continue
		}
		if best == nil || betterVideo(f, best, sel.PreferMP4) {
			best = f
		}
	}
	return best
}

func betterVideo(a, b *types.StreamFormat, preferMP4 bool) bool {
	if a.Height != b.Height {
		return a.Height > b.Height
	}
	if preferMP4 && isMP4(a.MimeType) != isMP4(b.MimeType) {
		return isMP4(a.MimeType)
	}
	return a.Bitrate > b.Bitrate
}

func selectAudio(formats []types.StreamFormat, preferMP4 bool) *types.StreamFormat {
	var best *types.StreamFormat
	for i := range formats {
		f := &formats[i]
		if !isAudio(f.MimeType) {
			continue
		}
		if best == nil || betterAudio(f, best, preferMP4) {
			best = f
		}
	}
	return best
}

func betterAudio(a, b *types.StreamFormat, preferMP4 bool) bool {
	if preferMP4 && isMP4(a.MimeType) != isMP4(b.MimeType) {
		return isMP4(a.MimeType)
	}
	return a.Bitrate > b.Bitrate
}

func isAudio(mimeType string) bool {
	return strings.HasPrefix(mimeType, "audio/")
}

func isMP4(mimeType string) bool {
	return strings.Contains(mimeType, "mp4")
}
