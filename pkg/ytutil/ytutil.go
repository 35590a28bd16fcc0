// Package ytutil provides leaf utilities for YouTube identifiers,
// ISO-8601 durations, and canonical thumbnail URLs. No network I/O.
package ytutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var durationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseDuration converts an ISO-8601 broadcast duration token ("PT1H2M3S",
// any subset of components) to total seconds. It is total: empty, malformed,
// or component-free input yields 0.
func ParseDuration(s string) int {
	m := durationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	var total int
	for i, mult := range []int{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0
		}
		total += n * mult
	}
	return total
}

// Thumbnail filenames per quality tier. Tiers correspond to
// 120x90, 320x180, 480x360, 640x480, and 1280x720 stills.
var thumbNames = map[string]string{
	"default": "default.jpg",
	"mq":      "mqdefault.jpg",
	"hq":      "hqdefault.jpg",
	"sd":      "sddefault.jpg",
	"max":     "maxresdefault.jpg",
}

// ThumbnailURL returns the canonical still-image URL for a video at the
// requested quality tier. Unrecognized tiers fall back to hq.
func ThumbnailURL(videoID, quality string) string {
	name, ok := thumbNames[strings.ToLower(quality)]
	if !ok {
		name = thumbNames["hq"]
	}
	return "https://i.ytimg.com/vi/" + videoID + "/" + name
}

var (
	videoIDRe  = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	watchURLRe = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/shorts/)([a-zA-Z0-9_-]{11})`)
)

// ExtractVideoID accepts a bare 11-character video ID or any common watch,
// short-link, embed, or shorts URL form and returns the ID.
func ExtractVideoID(s string) (string, error) {
	if videoIDRe.MatchString(s) {
		return s, nil
	}
	if m := watchURLRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1], nil
	}
	return "", fmt.Errorf("not a video ID or watch URL: %q", s)
}
