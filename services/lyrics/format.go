package lyrics

import (
	"fmt"
	"strings"
)

// FormatText renders a fetched payload into final file text. Pure: the
// same inputs always produce byte-identical output.
func FormatText(resp *Response, format Format, trackName string, durationMs int, artist, album string) string {
	switch format {
	case FormatSRT:
		return formatSRT(resp)
	case FormatRaw:
		return resp.Raw
	default:
		return formatLRC(resp, trackName, durationMs, artist, album)
	}
}

// formatLRC emits ID tag headers followed by one line per lyric line.
func formatLRC(resp *Response, trackName string, durationMs int, artist, album string) string {
	var lines []string

	if trackName != "" {
		lines = append(lines, fmt.Sprintf("[ti:%s]", trackName))
	}
	if artist != "" {
		lines = append(lines, fmt.Sprintf("[ar:%s]", artist))
	}
	if album != "" {
		lines = append(lines, fmt.Sprintf("[al:%s]", album))
	}
	if durationMs > 0 {
		lines = append(lines, fmt.Sprintf("[length:%d:%02d]", durationMs/60000, (durationMs%60000)/1000))
	}
	lines = append(lines, "")

	for _, line := range resp.LinesLRC {
		if line.TimeTag != "" {
			lines = append(lines, fmt.Sprintf("[%s]%s", line.TimeTag, line.Words))
		} else {
			lines = append(lines, line.Words)
		}
	}

	return strings.Join(lines, "\n")
}

// formatSRT emits standard subtitle cue blocks: index, timestamp pair,
// words, blank separator.
func formatSRT(resp *Response) string {
	var lines []string

	for _, line := range resp.LinesSRT {
		lines = append(lines, fmt.Sprintf("%d", line.Index))
		lines = append(lines, fmt.Sprintf("%s --> %s", line.StartTime, line.EndTime))
		lines = append(lines, line.Words)
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
