package generation

import (
	"regexp"
	"strings"
)

var (
	videoURLPattern = regexp.MustCompile(`(?:youtube\.com/(?:shorts/|[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)
	bareIDPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// ParseVideoID extracts the 11-character video id from a watch, short, embed
// or youtu.be URL, or accepts a bare id.
func ParseVideoID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if bareIDPattern.MatchString(s) {
		return s, true
	}
	if m := videoURLPattern.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	return "", false
}

// NormalizeIdentifier returns the parsed video id, or the trimmed input when
// it does not look like a known URL form.
func NormalizeIdentifier(s string) string {
	if id, ok := ParseVideoID(s); ok {
		return id
	}
	return strings.TrimSpace(s)
}

// WatchURL returns the canonical watch URL for id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
