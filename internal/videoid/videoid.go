// Package videoid extracts the 11-character YouTube video id from a URL.
package videoid

import (
	"regexp"
	"strings"

	"video-factcheck-go/internal/apperr"
)

var idRe = regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`)

// Extract returns the first id found after "v=" or a path separator.
func Extract(videoURL string) (string, error) {
	videoURL = strings.TrimSpace(videoURL)
	if videoURL == "" {
		return "", apperr.Errorf(apperr.Input, "videoid.extract", "video URL is required")
	}
	m := idRe.FindStringSubmatch(videoURL)
	if m == nil {
		return "", apperr.Errorf(apperr.Input, "videoid.extract", "invalid YouTube URL: %s", videoURL)
	}
	return m[1], nil
}

// WatchURL returns the canonical watch URL for id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
