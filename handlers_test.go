package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"lyrics-downloader-go/batch"
	"lyrics-downloader-go/cache"
	"lyrics-downloader-go/circuitbreaker"
	"lyrics-downloader-go/services/lyrics"
	"lyrics-downloader-go/services/spotify"
)

// setupTestApp wires the package globals against a stub lyrics API and
// a throwaway catalog cache, then returns the app router.
func setupTestApp(t *testing.T, lyricsHandler http.HandlerFunc) *mux.Router {
	t.Helper()

	lyricsServer := httptest.NewServer(lyricsHandler)
	t.Cleanup(lyricsServer.Close)

	var err error
	catalogCache, err = cache.NewPersistentCache(filepath.Join(t.TempDir(), "catalog.db"), false)
	if err != nil {
		t.Fatalf("NewPersistentCache: %v", err)
	}
	t.Cleanup(func() { catalogCache.Close() })

	catalogBreaker = circuitbreaker.New(circuitbreaker.Config{Name: "test-catalog"})
	catalogClient = spotify.NewClient(catalogCache, catalogBreaker)
	lyricsClient = lyrics.NewClient(lyricsServer.URL)
	jobManager = batch.NewManager(lyricsClient)
	clearLyricsCache()

	router := mux.NewRouter()
	setupRoutes(router)
	return router
}

func okLyricsUpstream(hits *atomic.Int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Write([]byte(`{
			"error": false,
			"syncType": "LINE_SYNCED",
			"lines": [{"timeTag": "00:01.00", "words": "hello"}]
		}`))
	}
}

func TestHelpEndpoint(t *testing.T) {
	router := setupTestApp(t, okLyricsUpstream(nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["endpoints"] == nil {
		t.Error("help response missing endpoint listing")
	}
}

func TestLyricsEndpointCachesResponse(t *testing.T) {
	var hits atomic.Int64
	router := setupTestApp(t, okLyricsUpstream(&hits))

	get := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		target := "/lyrics/track123?format=lrc&name=Shape+of+You&artist=Ed+Sheeran&duration=233000"
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}

	first := get()
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d: %s", first.Code, first.Body)
	}
	if got := first.Header().Get("X-Cache-Status"); got != "MISS" {
		t.Errorf("first X-Cache-Status = %q, want MISS", got)
	}
	if got := first.Header().Get("Content-Disposition"); got != `attachment; filename="Shape of You.lrc"` {
		t.Errorf("Content-Disposition = %q", got)
	}

	second := get()
	if got := second.Header().Get("X-Cache-Status"); got != "HIT" {
		t.Errorf("second X-Cache-Status = %q, want HIT", got)
	}
	if hits.Load() != 1 {
		t.Errorf("upstream hits = %d, want 1", hits.Load())
	}
	if second.Body.String() != first.Body.String() {
		t.Error("cached response differs from fresh response")
	}

	body := first.Body.String()
	for _, want := range []string{"[ti:Shape of You]", "[ar:Ed Sheeran]", "[length:3:53]", "[00:01.00]hello"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestLyricsEndpointRejectsBadFormat(t *testing.T) {
	router := setupTestApp(t, okLyricsUpstream(nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lyrics/track123?format=docx", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLyricsEndpointNotAvailable(t *testing.T) {
	router := setupTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lyrics/track123", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func postDownload(t *testing.T, router *mux.Router, body downloadRequest) batch.Snapshot {
	t.Helper()
	raw, _ := json.Marshal(body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/download", bytes.NewReader(raw)))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("POST /download status = %d: %s", rec.Code, rec.Body)
	}
	var snap batch.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid snapshot: %v", err)
	}
	if snap.ID == "" {
		t.Fatal("snapshot has no job ID")
	}
	return snap
}

func TestDownloadLifecycle(t *testing.T) {
	router := setupTestApp(t, okLyricsUpstream(nil))

	tracks := make([]spotify.Track, 2)
	for i := range tracks {
		tracks[i] = spotify.Track{
			ID:       fmt.Sprintf("id%d", i),
			Name:     fmt.Sprintf("Song %d", i),
			Artists:  []string{"Artist"},
			Album:    "Record",
			Duration: 120000,
		}
	}

	snap := postDownload(t, router, downloadRequest{Tracks: tracks, Format: "lrc", Title: "My Mix"})

	// poll until the job settles
	deadline := time.Now().Add(5 * time.Second)
	for snap.State != batch.JobCompleted {
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in state %s", snap.State)
		}
		time.Sleep(5 * time.Millisecond)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/"+snap.ID, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("poll status = %d", rec.Code)
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			t.Fatalf("invalid snapshot: %v", err)
		}
	}
	if snap.SuccessCount != 2 || !snap.ArchiveReady {
		t.Fatalf("snapshot = %+v", snap)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/"+snap.ID+"/archive", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("archive status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/zip" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="My Mix-lyrics.zip"` {
		t.Errorf("Content-Disposition = %q", got)
	}

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("archive unreadable: %v", err)
	}
	if len(zr.File) != 2 {
		t.Errorf("archive has %d files, want 2", len(zr.File))
	}
}

func TestDownloadRejectsEmptyTrackList(t *testing.T) {
	router := setupTestApp(t, okLyricsUpstream(nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/download", bytes.NewReader([]byte(`{"tracks": [], "format": "lrc"}`))))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDownloadUnknownJob(t *testing.T) {
	router := setupTestApp(t, okLyricsUpstream(nil))

	for _, path := range []string{"/download/nope", "/download/nope/archive"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/download/nope/cancel", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("cancel status = %d, want 404", rec.Code)
	}
}

func TestCancelRunningJob(t *testing.T) {
	release := make(chan struct{})
	router := setupTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		okLyricsUpstream(nil)(w, r)
	})
	defer close(release)

	snap := postDownload(t, router, downloadRequest{
		Tracks: []spotify.Track{{ID: "id0", Name: "Song", Artists: []string{"Artist"}}},
		Format: "lrc",
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/download/"+snap.ID+"/cancel", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d", rec.Code)
	}
	var cancelled batch.Snapshot
	json.Unmarshal(rec.Body.Bytes(), &cancelled)
	if cancelled.State != batch.JobCancelled {
		t.Errorf("state = %s, want cancelled", cancelled.State)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/"+snap.ID+"/archive", nil))
	if rec.Code != http.StatusConflict {
		t.Errorf("archive status = %d, want 409", rec.Code)
	}
}

func TestStatsRequiresAuth(t *testing.T) {
	router := setupTestApp(t, okLyricsUpstream(nil))

	oldToken := conf.Configuration.AccessToken
	conf.Configuration.AccessToken = "secret"
	defer func() { conf.Configuration.AccessToken = oldToken }()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set("Authorization", "secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d: %s", rec.Code, rec.Body)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["batch_jobs"] == nil || body["catalog_storage"] == nil {
		t.Error("stats response missing sections")
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := setupTestApp(t, okLyricsUpstream(nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
}

func TestCacheClearRequiresAuth(t *testing.T) {
	router := setupTestApp(t, okLyricsUpstream(nil))

	oldToken := conf.Configuration.AccessToken
	conf.Configuration.AccessToken = "secret"
	defer func() { conf.Configuration.AccessToken = oldToken }()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cache/clear", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	setCache("lyrics:x:lrc", "{}", time.Minute)
	req := httptest.NewRequest(http.MethodPost, "/cache/clear", nil)
	req.Header.Set("Authorization", "secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d: %s", rec.Code, rec.Body)
	}
	if _, ok := getCache("lyrics:x:lrc"); ok {
		t.Error("lyrics cache entry survived clear")
	}
}
