package lyrics

import (
	"encoding/json"
	"fmt"
	"time"
)

// Format selects the output text format for fetched lyrics.
type Format string

const (
	FormatLRC Format = "lrc" // line-timed [mm:ss.xx] tags
	FormatSRT Format = "srt" // subtitle cue blocks
	FormatRaw Format = "raw" // plain text
)

// ParseFormat validates a user-supplied format string. An empty string
// falls back to LRC, matching the app's default setting.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatLRC, FormatSRT, FormatRaw:
		return Format(s), nil
	case "":
		return FormatLRC, nil
	default:
		return "", fmt.Errorf("invalid lyrics format %q", s)
	}
}

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	switch f {
	case FormatRaw:
		return "txt"
	case FormatSRT:
		return "srt"
	default:
		return "lrc"
	}
}

// Sync type reported by the lyrics API.
const (
	SyncLineSynced = "LINE_SYNCED"
	SyncUnsynced   = "UNSYNCED"
)

// LineLRC is a single lyric line with an optional time tag.
type LineLRC struct {
	TimeTag string `json:"timeTag"`
	Words   string `json:"words"`
}

// LineSRT is a single subtitle cue.
type LineSRT struct {
	Index     int    `json:"index"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Words     string `json:"words"`
}

// Response is the normalized result of one lyrics fetch. Exactly one
// of LinesLRC, LinesSRT or Raw is populated, selected by the format
// the payload was requested in.
type Response struct {
	SyncType string
	Format   Format
	LinesLRC []LineLRC
	LinesSRT []LineSRT
	Raw      string
}

// wireResponse mirrors the lyrics API body. The lines field is
// polymorphic: an array of objects for lrc/srt, a bare string for raw.
type wireResponse struct {
	Error    bool            `json:"error"`
	Message  string          `json:"message"`
	SyncType string          `json:"syncType"`
	Lines    json.RawMessage `json:"lines"`
}

// Error is the typed outcome of a failed lyrics fetch.
type Error struct {
	Message      string
	StatusCode   int
	RateLimited  bool
	NotAvailable bool
	RetryAfter   time.Duration // suggested wait when RateLimited
}

func (e *Error) Error() string {
	return e.Message
}
