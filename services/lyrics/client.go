package lyrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"lyrics-downloader-go/config"
	"lyrics-downloader-go/logcolors"
)

var conf = config.Get()

// defaultRateLimitWait is used when a 429 response carries no usable
// Retry-After header.
const defaultRateLimitWait = 30 * time.Second

// Client fetches lyrics for a single track from the lyrics API.
// Stateless between calls; safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a lyrics client. baseURL overrides the configured
// default when non-empty (user setting takes precedence).
func NewClient(baseURL string) *Client {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = conf.Configuration.LyricsAPIBase
	}
	base = strings.TrimRight(base, "/")

	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(conf.Configuration.LyricsTimeoutSeconds) * time.Second,
		},
		baseURL: base,
	}
}

// Fetch retrieves lyrics for trackID in the requested format.
// Outcomes map from transport status: 429 becomes a rate-limited
// *Error with a suggested wait, 404 a not-available *Error, and
// anything else that is not a parseable success body a generic *Error.
func (c *Client) Fetch(ctx context.Context, trackID string, format Format) (*Response, error) {
	if trackID == "" {
		return nil, &Error{Message: "track id is empty"}
	}

	reqURL := fmt.Sprintf("%s/?trackid=%s&format=%s", c.baseURL, url.QueryEscape(trackID), format)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to build lyrics request: %v", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to fetch lyrics: %v", err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		wait := retryAfter(resp)
		log.Warnf("%s Rate limited by lyrics API for track %s (wait %s)", logcolors.LogLyrics, trackID, wait)
		return nil, &Error{
			Message:     fmt.Sprintf("Rate limited. Please wait %d seconds.", int(wait.Seconds())),
			StatusCode:  resp.StatusCode,
			RateLimited: true,
			RetryAfter:  wait,
		}
	case http.StatusNotFound:
		return nil, &Error{
			Message:      "Lyrics not available on Spotify",
			StatusCode:   resp.StatusCode,
			NotAvailable: true,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{
			Message:    fmt.Sprintf("failed to read lyrics response: %v", err),
			StatusCode: resp.StatusCode,
		}
	}

	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, &Error{
			Message:    fmt.Sprintf("Failed to fetch lyrics: %s", resp.Status),
			StatusCode: resp.StatusCode,
		}
	}

	if wire.Error {
		msg := wire.Message
		if msg == "" {
			msg = "Failed to fetch lyrics"
		}
		return nil, &Error{Message: msg, StatusCode: resp.StatusCode}
	}

	return decodeLines(&wire, format, resp.StatusCode)
}

// decodeLines unpacks the polymorphic lines field for the requested format.
func decodeLines(wire *wireResponse, format Format, statusCode int) (*Response, error) {
	out := &Response{SyncType: wire.SyncType, Format: format}

	if len(wire.Lines) == 0 {
		return out, nil
	}

	switch format {
	case FormatSRT:
		if err := json.Unmarshal(wire.Lines, &out.LinesSRT); err != nil {
			return nil, &Error{Message: "malformed srt lines in lyrics response", StatusCode: statusCode}
		}
	case FormatRaw:
		if err := json.Unmarshal(wire.Lines, &out.Raw); err != nil {
			return nil, &Error{Message: "malformed raw lyrics in response", StatusCode: statusCode}
		}
	default:
		if err := json.Unmarshal(wire.Lines, &out.LinesLRC); err != nil {
			return nil, &Error{Message: "malformed lrc lines in lyrics response", StatusCode: statusCode}
		}
	}

	return out, nil
}

// retryAfter extracts a wait hint from a 429 response, falling back to
// the fixed default.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultRateLimitWait
}
