package main

import (
	"net/http"

	"github.com/gorilla/mux"
)

// setupRoutes configures all HTTP routes for the API
func setupRoutes(router *mux.Router) {
	// Catalog endpoints
	router.HandleFunc("/search", searchHandler).Methods(http.MethodGet)
	router.HandleFunc("/parse", parseHandler).Methods(http.MethodGet)
	router.HandleFunc("/track/{id}", trackHandler).Methods(http.MethodGet)
	router.HandleFunc("/album/{id}", albumHandler).Methods(http.MethodGet)
	router.HandleFunc("/playlist/{id}", playlistHandler).Methods(http.MethodGet)

	// User library endpoints (caller-supplied bearer token)
	router.HandleFunc("/me/tracks", userTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/me/playlists", userPlaylistsHandler).Methods(http.MethodGet)

	// Lyrics endpoints
	router.HandleFunc("/lyrics/{trackId}", getLyricsHandler).Methods(http.MethodGet)

	// Batch download endpoints
	router.HandleFunc("/download", startDownloadHandler).Methods(http.MethodPost)
	router.HandleFunc("/download/{jobId}", downloadStatusHandler).Methods(http.MethodGet)
	router.HandleFunc("/download/{jobId}/archive", downloadArchiveHandler).Methods(http.MethodGet)
	router.HandleFunc("/download/{jobId}/cancel", cancelDownloadHandler).Methods(http.MethodPost)

	// Cache management endpoints (access-token gated)
	router.HandleFunc("/cache", getCacheDump)
	router.HandleFunc("/cache/clear", clearCache)

	// Health and stats endpoints
	router.HandleFunc("/health", getHealthStatus)
	router.HandleFunc("/stats", getStats)

	// Help endpoint
	router.HandleFunc("/", helpHandler)
}
