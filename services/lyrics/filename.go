package lyrics

import (
	"fmt"
	"strings"
)

// filenameSanitizer replaces characters illegal in filenames on common
// filesystems.
var filenameSanitizer = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", "\"", "_", "/", "_",
	"\\", "_", "|", "_", "?", "_", "*", "_",
)

// Sanitize strips filesystem-illegal characters from a name component.
func Sanitize(s string) string {
	return strings.TrimSpace(filenameSanitizer.Replace(s))
}

// GenerateFilename renders an ordered token sequence into a file name.
// Placeholder tokens resolve to track values; unrecognized tokens pass
// through literally as separators. Never fails: unresolved
// placeholders degrade to empty strings.
func GenerateFilename(tokens []string, trackNumber int, trackName, artist, album string, format Format, trackID string) string {
	var b strings.Builder

	for _, token := range tokens {
		switch token {
		case "{track_number}":
			b.WriteString(fmt.Sprintf("%02d", trackNumber))
		case "{track_name}":
			b.WriteString(Sanitize(trackName))
		case "{track_artist}", "{artist}":
			b.WriteString(Sanitize(artist))
		case "{track_album}", "{album}":
			b.WriteString(Sanitize(album))
		case "{track_id}":
			b.WriteString(trackID)
		default:
			b.WriteString(token)
		}
	}

	return fmt.Sprintf("%s.%s", b.String(), format.Extension())
}

// DefaultFilenameTokens is the filename layout used when a request
// supplies none: "01. Track Name".
var DefaultFilenameTokens = []string{"{track_number}", ".", " ", "{track_name}"}
