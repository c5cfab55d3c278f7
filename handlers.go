package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"lyrics-downloader-go/batch"
	"lyrics-downloader-go/logcolors"
	"lyrics-downloader-go/services/lyrics"
	"lyrics-downloader-go/services/spotify"
	"lyrics-downloader-go/stats"
)

func helpHandler(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]interface{}{
		"name": "spotify-lyrics-downloader",
		"endpoints": map[string]string{
			"GET /search?q=":                "autocomplete over tracks, albums and playlists",
			"GET /parse?link=":              "resolve a Spotify URL/URI to its track list",
			"GET /track/{id}":               "track metadata",
			"GET /album/{id}":               "album metadata with full track list",
			"GET /playlist/{id}":            "playlist metadata with full track list",
			"GET /me/tracks":                "liked songs (requires Spotify bearer token)",
			"GET /me/playlists":             "user playlists (requires Spotify bearer token)",
			"GET /lyrics/{trackId}?format=": "lyrics for one track (lrc, srt or raw)",
			"POST /download":                "start a batch lyrics download job",
			"GET /download/{jobId}":         "poll job progress",
			"GET /download/{jobId}/archive": "fetch the finished ZIP",
			"POST /download/{jobId}/cancel": "cancel a running job",
			"GET /health":                   "service health",
		},
	})
}

// writeSpotifyError maps catalog client failures onto HTTP responses.
func writeSpotifyError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *spotify.Error
	if errors.As(err, &apiErr) {
		status := apiErr.StatusCode
		if status == 0 {
			status = http.StatusBadGateway
		}
		Respond(w, r).Error(status, apiErr.Message)
		return
	}
	log.Errorf("%s Catalog request failed: %v", logcolors.LogCatalog, err)
	Respond(w, r).Error(http.StatusBadGateway, "Failed to reach the Spotify catalog")
}

func searchHandler(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("catalog")

	query := r.URL.Query().Get("q")
	suggestions, err := catalogClient.Search(r.Context(), query)
	if err != nil {
		writeSpotifyError(w, r, err)
		return
	}
	Respond(w, r).JSON(map[string]interface{}{"suggestions": suggestions})
}

func parseHandler(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("catalog")

	link := r.URL.Query().Get("link")
	if link == "" {
		Respond(w, r).Error(http.StatusUnprocessableEntity, "link query parameter not provided")
		return
	}

	data, err := catalogClient.Resolve(r.Context(), link)
	if err != nil {
		writeSpotifyError(w, r, err)
		return
	}
	Respond(w, r).JSON(data)
}

func trackHandler(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("catalog")

	track, err := catalogClient.TrackByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeSpotifyError(w, r, err)
		return
	}
	Respond(w, r).JSON(track)
}

func albumHandler(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("catalog")

	album, err := catalogClient.AlbumByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeSpotifyError(w, r, err)
		return
	}
	Respond(w, r).JSON(album)
}

func playlistHandler(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("catalog")

	playlist, err := catalogClient.PlaylistByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeSpotifyError(w, r, err)
		return
	}
	Respond(w, r).JSON(playlist)
}

// bearerToken extracts the caller's OAuth token from the Authorization
// header. The sign-in flow that obtains it runs client-side.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func pageParams(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 50 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

func userTracksHandler(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("catalog")

	limit, offset := pageParams(r, 50)
	tracks, total, hasMore, err := catalogClient.SavedTracks(r.Context(), bearerToken(r), limit, offset)
	if err != nil {
		writeSpotifyError(w, r, err)
		return
	}
	Respond(w, r).JSON(map[string]interface{}{
		"items":   tracks,
		"total":   total,
		"hasMore": hasMore,
	})
}

func userPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("catalog")

	limit, offset := pageParams(r, 50)
	playlists, total, hasMore, err := catalogClient.UserPlaylists(r.Context(), bearerToken(r), limit, offset)
	if err != nil {
		writeSpotifyError(w, r, err)
		return
	}
	Respond(w, r).JSON(map[string]interface{}{
		"items":   playlists,
		"total":   total,
		"hasMore": hasMore,
	})
}

// serveLyricsText writes a formatted lyrics file as a download.
func serveLyricsText(w http.ResponseWriter, cacheStatus, filename, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("X-Cache-Status", cacheStatus)
	w.Write([]byte(text))
}

// getLyricsHandler serves one track's lyrics as a formatted text file.
// Track metadata for file headers and naming comes from query
// parameters; the caller already holds it from the catalog lookup.
func getLyricsHandler(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("lyrics")

	trackID := mux.Vars(r)["trackId"]
	format, err := lyrics.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		Respond(w, r).Error(http.StatusBadRequest, err.Error())
		return
	}

	trackName := r.URL.Query().Get("name")
	artist := r.URL.Query().Get("artist")
	album := r.URL.Query().Get("album")
	durationMs, _ := strconv.Atoi(r.URL.Query().Get("duration"))

	base := lyrics.Sanitize(trackName)
	if base == "" {
		base = trackID
	}
	filename := base + "." + format.Extension()

	cacheKey := fmt.Sprintf("lyrics:%s:%s:%s", trackID, format, trackName)
	if cached, ok := getCache(cacheKey); ok {
		log.Debugf("%s Serving cached lyrics for %s", logcolors.LogCacheLyrics, trackID)
		stats.Get().RecordCacheHit()
		serveLyricsText(w, "HIT", filename, cached)
		return
	}
	stats.Get().RecordCacheMiss()

	resp, err := lyricsClient.Fetch(r.Context(), trackID, format)
	if err != nil {
		var lyrErr *lyrics.Error
		if errors.As(err, &lyrErr) {
			switch {
			case lyrErr.NotAvailable:
				Respond(w, r).Error(http.StatusNotFound, lyrErr.Message)
			case lyrErr.RateLimited:
				stats.Get().RecordUpstreamRateLimit()
				w.Header().Set("Retry-After", strconv.Itoa(int(lyrErr.RetryAfter.Seconds())))
				Respond(w, r).Error(http.StatusTooManyRequests, lyrErr.Message)
			default:
				status := lyrErr.StatusCode
				if status == 0 {
					status = http.StatusBadGateway
				}
				Respond(w, r).Error(status, lyrErr.Message)
			}
			return
		}
		log.Errorf("%s Fetch failed for %s: %v", logcolors.LogLyrics, trackID, err)
		Respond(w, r).Error(http.StatusBadGateway, "Failed to fetch lyrics")
		return
	}

	text := lyrics.FormatText(resp, format, trackName, durationMs, artist, album)
	setCache(cacheKey, text, time.Duration(conf.Configuration.LyricsCacheTTLInSeconds)*time.Second)
	serveLyricsText(w, "MISS", filename, text)
}

func startDownloadHandler(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("batch")

	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Respond(w, r).Error(http.StatusBadRequest, "invalid request body")
		return
	}

	format, err := lyrics.ParseFormat(req.Format)
	if err != nil {
		Respond(w, r).Error(http.StatusBadRequest, err.Error())
		return
	}

	job, err := jobManager.Start(batch.Request{
		Tracks:         req.Tracks,
		Format:         format,
		FilenameTokens: req.FilenameTokens,
		Title:          req.Title,
		APIBase:        req.APIBase,
	})
	if err != nil {
		if errors.Is(err, batch.ErrNoTracks) {
			Respond(w, r).Error(http.StatusBadRequest, err.Error())
			return
		}
		Respond(w, r).Error(http.StatusInternalServerError, err.Error())
		return
	}

	Respond(w, r).Status(http.StatusAccepted, job.Snapshot())
}

func jobFromRequest(w http.ResponseWriter, r *http.Request) (*batch.Job, bool) {
	job, err := jobManager.Get(mux.Vars(r)["jobId"])
	if err != nil {
		Respond(w, r).Error(http.StatusNotFound, "job not found")
		return nil, false
	}
	return job, true
}

func downloadStatusHandler(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("batch")

	job, ok := jobFromRequest(w, r)
	if !ok {
		return
	}
	Respond(w, r).JSON(job.Snapshot())
}

func downloadArchiveHandler(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("batch")

	job, ok := jobFromRequest(w, r)
	if !ok {
		return
	}

	data, ok := job.Archive()
	if !ok {
		Respond(w, r).Error(http.StatusConflict, "archive not available for this job")
		return
	}

	name := lyrics.Sanitize(job.Title)
	if name == "" {
		name = job.ID
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+"-lyrics.zip"))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func cancelDownloadHandler(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("batch")

	job, err := jobManager.Cancel(mux.Vars(r)["jobId"])
	if err != nil {
		Respond(w, r).Error(http.StatusNotFound, "job not found")
		return
	}
	Respond(w, r).JSON(job.Snapshot())
}

func getStats(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != conf.Configuration.AccessToken {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	snapshot := stats.Get().Snapshot()

	numKeys, sizeInKB := catalogCache.Stats()
	snapshot["catalog_storage"] = map[string]interface{}{
		"keys":    numKeys,
		"size_kb": sizeInKB,
		"size_mb": float64(sizeInKB) / 1024,
	}

	cbState, failures, _ := catalogBreaker.Stats()
	snapshot["circuit_breaker"] = map[string]interface{}{
		"state":              cbState.String(),
		"failures":           failures,
		"cooldown_remaining": catalogBreaker.TimeUntilRetry().String(),
	}

	snapshot["jobs_registered"] = jobManager.Len()

	Respond(w, r).JSON(snapshot)
}

func getHealthStatus(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":              "ok",
		"circuit_breaker":     catalogBreaker.State().String(),
		"spotify_credentials": conf.Configuration.SpotifyClientID != "" && conf.Configuration.SpotifyClientSecret != "",
	}
	if catalogBreaker.IsOpen() {
		health["status"] = "degraded"
		health["circuit_breaker_retry_in"] = catalogBreaker.TimeUntilRetry().String()
	}
	Respond(w, r).JSON(health)
}

func getCacheDump(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != conf.Configuration.AccessToken {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cacheDump := CacheDump{}
	lyricsCache.Range(func(key, value interface{}) bool {
		cacheDump[key.(string)] = value.(CacheEntry)
		return true
	})

	size := 0
	for key, value := range cacheDump {
		size += len(key) + len(value.Value) + 8
	}

	Respond(w, r).JSON(CacheDumpResponse{
		NumberOfKeys: len(cacheDump),
		SizeInKB:     size / 1024,
		Cache:        cacheDump,
	})
}

func clearCache(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != conf.Configuration.AccessToken {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	removedLyrics := clearLyricsCache()
	if err := catalogCache.Clear(); err != nil {
		log.Errorf("%s Failed to clear catalog cache: %v", logcolors.LogCacheClear, err)
		Respond(w, r).Error(http.StatusInternalServerError, "failed to clear catalog cache")
		return
	}

	log.Infof("%s Cleared %d lyrics entries and the catalog store", logcolors.LogCacheClear, removedLyrics)
	Respond(w, r).JSON(map[string]interface{}{
		"status":                 "ok",
		"lyrics_entries_removed": removedLyrics,
	})
}
