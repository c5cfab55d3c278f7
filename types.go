package main

import (
	"lyrics-downloader-go/services/spotify"
)

type contextKey string

const rateLimitTypeKey contextKey = "rateLimitType"

// CacheEntry is one in-memory lyrics cache slot. The value is the
// serialized response payload, gzip+base64 compressed when the
// feature flag is on.
type CacheEntry struct {
	Value      string `json:"value"`
	Expiration int64  `json:"expiration"`
}

// CacheDump represents the full in-memory lyrics cache contents
type CacheDump map[string]CacheEntry

// CacheDumpResponse is the response format for the /cache endpoint
type CacheDumpResponse struct {
	NumberOfKeys int       `json:"number_of_keys"`
	SizeInKB     int       `json:"size_kb"`
	Cache        CacheDump `json:"cache"`
}

// downloadRequest is the POST /download body. APIBase optionally
// points the job at a different lyrics API instance (a user setting
// in the app).
type downloadRequest struct {
	Tracks         []spotify.Track `json:"tracks"`
	Format         string          `json:"format"`
	FilenameTokens []string        `json:"filenameTokens"`
	Title          string          `json:"title"`
	APIBase        string          `json:"apiBase"`
}
