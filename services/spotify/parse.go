package spotify

import "regexp"

var (
	uriPattern = regexp.MustCompile(`spotify:(track|album|playlist):([a-zA-Z0-9]+)`)
	urlPattern = regexp.MustCompile(`spotify\.com/(?:intl-[a-zA-Z-]+/)?(track|album|playlist)/([a-zA-Z0-9]+)`)
)

// ParseLink extracts the content type and ID from a Spotify URL
// (https://open.spotify.com/track/xxx) or URI (spotify:track:xxx).
// Returns ok=false when the input is neither.
func ParseLink(input string) (contentType ContentType, id string, ok bool) {
	if m := uriPattern.FindStringSubmatch(input); m != nil {
		return ContentType(m[1]), m[2], true
	}
	if m := urlPattern.FindStringSubmatch(input); m != nil {
		return ContentType(m[1]), m[2], true
	}
	return "", "", false
}
