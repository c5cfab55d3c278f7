package stats

import (
	"sync/atomic"
	"time"
)

// Stats holds all server statistics with atomic counters
type Stats struct {
	// Server info
	StartTime time.Time

	// Request counters
	TotalRequests   atomic.Int64
	LyricsRequests  atomic.Int64
	CatalogRequests atomic.Int64
	BatchRequests   atomic.Int64
	OtherRequests   atomic.Int64

	// Cache performance
	CacheHits   atomic.Int64
	CacheMisses atomic.Int64

	// Rate limiting
	RateLimitRejected atomic.Int64 // Inbound requests rejected (429)
	UpstreamRateLimit atomic.Int64 // 429s received from the lyrics API

	// Batch job counters
	JobsStarted       atomic.Int64
	JobsCompleted     atomic.Int64
	JobsCancelled     atomic.Int64
	TracksSucceeded   atomic.Int64
	TracksFailed      atomic.Int64
	TracksUnavailable atomic.Int64
	RateLimitPauses   atomic.Int64

	// Archive output
	ArchivesBuilt     atomic.Int64
	ArchiveBytesTotal atomic.Int64
}

// Global stats instance
var global = &Stats{
	StartTime: time.Now(),
}

// Get returns the global stats instance
func Get() *Stats {
	return global
}

// RecordRequest records a request against an endpoint class
func (s *Stats) RecordRequest(endpoint string) {
	s.TotalRequests.Add(1)
	switch endpoint {
	case "lyrics":
		s.LyricsRequests.Add(1)
	case "catalog":
		s.CatalogRequests.Add(1)
	case "batch":
		s.BatchRequests.Add(1)
	default:
		s.OtherRequests.Add(1)
	}
}

func (s *Stats) RecordCacheHit()  { s.CacheHits.Add(1) }
func (s *Stats) RecordCacheMiss() { s.CacheMisses.Add(1) }

func (s *Stats) RecordRateLimitRejected() { s.RateLimitRejected.Add(1) }
func (s *Stats) RecordUpstreamRateLimit() { s.UpstreamRateLimit.Add(1) }

func (s *Stats) RecordJobStarted()   { s.JobsStarted.Add(1) }
func (s *Stats) RecordJobCompleted() { s.JobsCompleted.Add(1) }
func (s *Stats) RecordJobCancelled() { s.JobsCancelled.Add(1) }

func (s *Stats) RecordTrackSuccess()     { s.TracksSucceeded.Add(1) }
func (s *Stats) RecordTrackFailure()     { s.TracksFailed.Add(1) }
func (s *Stats) RecordTrackUnavailable() { s.TracksUnavailable.Add(1) }
func (s *Stats) RecordRateLimitPause()   { s.RateLimitPauses.Add(1) }

// RecordArchive records a serialized archive and its size in bytes
func (s *Stats) RecordArchive(sizeBytes int) {
	s.ArchivesBuilt.Add(1)
	s.ArchiveBytesTotal.Add(int64(sizeBytes))
}

// CacheHitRate returns the cache hit rate as a percentage
func (s *Stats) CacheHitRate() float64 {
	hits := s.CacheHits.Load()
	misses := s.CacheMisses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// Snapshot returns all statistics as a map for JSON serialization
func (s *Stats) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"uptime":         time.Since(s.StartTime).String(),
		"start_time":     s.StartTime.Format(time.RFC3339),
		"requests": map[string]interface{}{
			"total":   s.TotalRequests.Load(),
			"lyrics":  s.LyricsRequests.Load(),
			"catalog": s.CatalogRequests.Load(),
			"batch":   s.BatchRequests.Load(),
			"other":   s.OtherRequests.Load(),
		},
		"cache": map[string]interface{}{
			"hits":             s.CacheHits.Load(),
			"misses":           s.CacheMisses.Load(),
			"hit_rate_percent": s.CacheHitRate(),
		},
		"rate_limiting": map[string]interface{}{
			"rejected":          s.RateLimitRejected.Load(),
			"upstream_received": s.UpstreamRateLimit.Load(),
		},
		"batch_jobs": map[string]interface{}{
			"started":            s.JobsStarted.Load(),
			"completed":          s.JobsCompleted.Load(),
			"cancelled":          s.JobsCancelled.Load(),
			"tracks_succeeded":   s.TracksSucceeded.Load(),
			"tracks_failed":      s.TracksFailed.Load(),
			"tracks_unavailable": s.TracksUnavailable.Load(),
			"rate_limit_pauses":  s.RateLimitPauses.Load(),
		},
		"archives": map[string]interface{}{
			"built":       s.ArchivesBuilt.Load(),
			"bytes_total": s.ArchiveBytesTotal.Load(),
		},
	}
}
