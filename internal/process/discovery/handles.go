package discovery

import (
	"regexp"
	"strings"

	"github.com/brandscout/brandscout/internal/core/domain"
)

// Profile URL patterns per platform. Path segments that are site sections
// rather than accounts are filtered by reservedSegments below.
var profilePatterns = []struct {
	platform string
	re       *regexp.Regexp
}{
	{"instagram", regexp.MustCompile(`(?i)instagram\.com/([a-z0-9_.]{2,30})(?:[/?#]|$)`)},
	{"tiktok", regexp.MustCompile(`(?i)tiktok\.com/@([a-z0-9_.]{2,30})(?:[/?#]|$)`)},
	{"youtube", regexp.MustCompile(`(?i)youtube\.com/@([a-z0-9_.-]{2,40})(?:[/?#]|$)`)},
	{"twitter", regexp.MustCompile(`(?i)(?:twitter|x)\.com/([a-z0-9_]{2,15})(?:[/?#]|$)`)},
}

var reservedSegments = map[string]bool{
	"p":        true,
	"reel":     true,
	"reels":    true,
	"explore":  true,
	"stories":  true,
	"accounts": true,
	"tags":     true,
	"search":   true,
	"hashtag":  true,
	"intent":   true,
	"share":    true,
	"watch":    true,
	"about":    true,
	"legal":    true,
	"home":     true,
	"i":        true,
}

// HandleFromURL extracts a (handle, platform) pair from a social profile
// URL. It returns ok=false for non-profile URLs such as post permalinks or
// site sections.
func HandleFromURL(rawURL string) (handle, platform string, ok bool) {
	for _, p := range profilePatterns {
		m := p.re.FindStringSubmatch(rawURL)
		if m == nil {
			continue
		}

		candidate := domain.NormalizeHandle(m[1])
		if reservedSegments[strings.ToLower(candidate)] {
			return "", "", false
		}

		return candidate, p.platform, true
	}

	return "", "", false
}
