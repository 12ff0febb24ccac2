package engine

import (
	"net/url"
	"regexp"
	"strings"
)

// Video reference parsing. A canonical video id is the 11-character token
// YouTube assigns; references arrive as watch-page, shortened, embed, or
// shorts URLs, or occasionally as the bare id itself.

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:watch\?(?:.*&)?v=)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`(?:youtu\.be/)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`(?:embed/)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`(?:shorts/)([0-9A-Za-z_-]{11})`),
}

var bareVideoIDRe = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

// ResolveVideoID extracts the canonical 11-character video id from a
// reference string. Returns false for anything it cannot recognize;
// never panics on malformed input.
func ResolveVideoID(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	if bareVideoIDRe.MatchString(ref) {
		return ref, true
	}
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(ref); len(m) == 2 {
			return m[1], true
		}
	}
	return "", false
}

// extractionDomains is the accepted hosting domain set for provider submission.
var extractionDomains = []string{"youtube.com", "www.youtube.com", "m.youtube.com", "youtu.be"}

// ValidExtractionURL reports whether raw points at an accepted video host.
func ValidExtractionURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range extractionDomains {
		if host == d {
			return true
		}
	}
	return false
}

// WatchURL builds the canonical watch-page URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
