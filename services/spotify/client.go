package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"lyrics-downloader-go/cache"
	"lyrics-downloader-go/circuitbreaker"
	"lyrics-downloader-go/config"
	"lyrics-downloader-go/logcolors"
	"lyrics-downloader-go/stats"
)

var conf = config.Get()

const accessTokenKey = "catalog_access_token"

type cachedToken struct {
	Token      string
	Expiration int64
}

// Client talks to the Spotify Web API for catalog lookups. Catalog
// responses are cached in the persistent cache; the upstream is
// guarded by a circuit breaker.
type Client struct {
	httpClient *http.Client
	catalog    *cache.PersistentCache
	breaker    *circuitbreaker.CircuitBreaker

	apiBase      string
	tokenURL     string
	clientID     string
	clientSecret string
	cacheTTL     time.Duration

	tokenCache sync.Map
}

// NewClient creates a catalog client. catalogCache may be nil (no
// caching); breaker may be nil (no circuit breaking).
func NewClient(catalogCache *cache.PersistentCache, breaker *circuitbreaker.CircuitBreaker) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		catalog:      catalogCache,
		breaker:      breaker,
		apiBase:      conf.Configuration.SpotifyAPIBase,
		tokenURL:     conf.Configuration.SpotifyTokenURL,
		clientID:     conf.Configuration.SpotifyClientID,
		clientSecret: conf.Configuration.SpotifyClientSecret,
		cacheTTL:     time.Duration(conf.Configuration.CatalogCacheTTLInSeconds) * time.Second,
	}
}

// getAccessToken mints (or reuses) a client-credentials bearer token.
func (c *Client) getAccessToken(ctx context.Context) (string, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return "", &Error{
			Message:    "Spotify credentials not configured. Set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET.",
			StatusCode: http.StatusUnauthorized,
		}
	}

	if cached, ok := c.tokenCache.Load(accessTokenKey); ok {
		ct := cached.(cachedToken)
		if time.Now().UnixNano() < ct.Expiration {
			log.Debugf("%s Using cached access token", logcolors.LogToken)
			return ct.Token, nil
		}
	}

	auth := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))

	data := url.Values{}
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("error creating token request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorBody
		json.Unmarshal(body, &apiErr)
		msg := apiErr.ErrorDescription
		if msg == "" {
			msg = "Failed to authenticate with Spotify"
		}
		return "", &Error{Message: msg, StatusCode: resp.StatusCode}
	}

	var tokenResp oauthTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("error parsing token response: %w", err)
	}

	// 60s buffer so a token isn't handed out moments before expiry
	expiration := time.Now().Add(time.Duration(tokenResp.ExpiresIn-60) * time.Second).UnixNano()
	c.tokenCache.Store(accessTokenKey, cachedToken{Token: tokenResp.AccessToken, Expiration: expiration})

	log.Infof("%s Minted new access token (expires in %ds)", logcolors.LogToken, tokenResp.ExpiresIn)
	return tokenResp.AccessToken, nil
}

// clearTokenCache drops the cached client-credentials token.
func (c *Client) clearTokenCache() {
	c.tokenCache.Delete(accessTokenKey)
}

// apiGet performs an authenticated GET against the Spotify API.
// endpoint may be a path ("/tracks/x") or a full pagination URL.
// When bearer is non-empty it is used as-is (caller-supplied OAuth
// token for user-library lookups); otherwise the client-credentials
// token is used, with one retry on 401.
func (c *Client) apiGet(ctx context.Context, endpoint, bearer string, out interface{}) error {
	if c.breaker != nil && !c.breaker.Allow() {
		return &Error{
			Message:    "Spotify catalog temporarily unavailable, retry later",
			StatusCode: http.StatusServiceUnavailable,
		}
	}

	err := c.doGet(ctx, endpoint, bearer, out)

	// On 401 with our own token, mint a fresh one and retry once.
	var apiErr *Error
	if bearer == "" && errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		log.Warnf("%s Access token rejected, refreshing and retrying", logcolors.LogToken)
		c.clearTokenCache()
		err = c.doGet(ctx, endpoint, bearer, out)
	}

	if c.breaker != nil {
		if err != nil {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	return err
}

func (c *Client) doGet(ctx context.Context, endpoint, bearer string, out interface{}) error {
	token := bearer
	if token == "" {
		var err error
		token, err = c.getAccessToken(ctx)
		if err != nil {
			return err
		}
	}

	reqURL := endpoint
	if strings.HasPrefix(endpoint, "/") {
		reqURL = c.apiBase + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("error creating catalog request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making catalog request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading catalog response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errBody apiErrorBody
		json.Unmarshal(body, &errBody)
		msg := errBody.Error.Message
		if msg == "" {
			msg = "Spotify API request failed"
		}
		return &Error{Message: msg, StatusCode: resp.StatusCode}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("error parsing catalog response: %w", err)
	}
	return nil
}

// cacheGet reads a transformed entity from the catalog cache.
func (c *Client) cacheGet(key string, out interface{}) bool {
	if c.catalog == nil {
		return false
	}
	raw, ok := c.catalog.Get(key)
	if !ok {
		stats.Get().RecordCacheMiss()
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Warnf("%s Dropping undecodable cache entry %s: %v", logcolors.LogCacheCatalog, key, err)
		c.catalog.Delete(key)
		stats.Get().RecordCacheMiss()
		return false
	}
	stats.Get().RecordCacheHit()
	return true
}

// cacheSet writes a transformed entity to the catalog cache.
func (c *Client) cacheSet(key string, v interface{}) {
	if c.catalog == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.catalog.Set(key, string(raw), c.cacheTTL); err != nil {
		log.Warnf("%s Failed to cache %s: %v", logcolors.LogCacheCatalog, key, err)
	}
}

// Search queries tracks, albums and playlists and returns autocomplete
// suggestions. Queries shorter than 2 characters return nothing.
func (c *Client) Search(ctx context.Context, query string) ([]Suggestion, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return []Suggestion{}, nil
	}

	var data apiSearchResponse
	endpoint := fmt.Sprintf("/search?q=%s&type=track,album,playlist&limit=5", url.QueryEscape(query))
	if err := c.apiGet(ctx, endpoint, "", &data); err != nil {
		return nil, err
	}

	return suggestionsFromSearch(&data), nil
}

// TrackByID fetches a single track.
func (c *Client) TrackByID(ctx context.Context, id string) (*Track, error) {
	key := "track:" + id
	var cached Track
	if c.cacheGet(key, &cached) {
		return &cached, nil
	}

	var data apiTrack
	if err := c.apiGet(ctx, "/tracks/"+id, "", &data); err != nil {
		return nil, err
	}

	track := transformTrack(data, "")
	c.cacheSet(key, track)
	return &track, nil
}

// AlbumByID fetches an album with its complete track list, following
// pagination past the first 50 tracks.
func (c *Client) AlbumByID(ctx context.Context, id string) (*Album, error) {
	key := "album:" + id
	var cached Album
	if c.cacheGet(key, &cached) {
		return &cached, nil
	}

	var data apiAlbum
	if err := c.apiGet(ctx, "/albums/"+id, "", &data); err != nil {
		return nil, err
	}

	album := transformAlbum(data)

	next := data.Tracks.Next
	for next != "" {
		var page struct {
			Items []apiTrack `json:"items"`
			Next  string     `json:"next"`
		}
		if err := c.apiGet(ctx, next, "", &page); err != nil {
			return nil, err
		}
		for _, t := range page.Items {
			tr := transformTrack(t, album.Image)
			if tr.Album == "" {
				tr.Album = album.Name
			}
			album.Tracks = append(album.Tracks, tr)
		}
		next = page.Next
	}

	c.cacheSet(key, album)
	return &album, nil
}

// PlaylistByID fetches a playlist with its complete track list,
// following pagination past the first 100 tracks. Removed/local tracks
// (null entries) are skipped.
func (c *Client) PlaylistByID(ctx context.Context, id string) (*Playlist, error) {
	key := "playlist:" + id
	var cached Playlist
	if c.cacheGet(key, &cached) {
		return &cached, nil
	}

	var data apiPlaylist
	if err := c.apiGet(ctx, "/playlists/"+id, "", &data); err != nil {
		return nil, err
	}

	playlist := transformPlaylist(data)

	next := data.Tracks.Next
	for next != "" {
		var page struct {
			Items []struct {
				Track *apiTrack `json:"track"`
			} `json:"items"`
			Next string `json:"next"`
		}
		if err := c.apiGet(ctx, next, "", &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if item.Track == nil {
				continue
			}
			playlist.Tracks = append(playlist.Tracks, transformTrack(*item.Track, ""))
		}
		next = page.Next
	}

	c.cacheSet(key, playlist)
	return &playlist, nil
}

// DataByID fetches the full entity for a type/id pair.
func (c *Client) DataByID(ctx context.Context, contentType ContentType, id string) (*Data, error) {
	switch contentType {
	case TypeTrack:
		track, err := c.TrackByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &Data{Type: TypeTrack, Track: track}, nil
	case TypeAlbum:
		album, err := c.AlbumByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &Data{Type: TypeAlbum, Album: album}, nil
	case TypePlaylist:
		playlist, err := c.PlaylistByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &Data{Type: TypePlaylist, Playlist: playlist}, nil
	default:
		return nil, &Error{Message: "Invalid content type", StatusCode: http.StatusBadRequest}
	}
}

// Resolve parses a Spotify URL/URI and fetches the entity it names.
func (c *Client) Resolve(ctx context.Context, link string) (*Data, error) {
	contentType, id, ok := ParseLink(link)
	if !ok {
		return nil, &Error{
			Message:    "Invalid Spotify link. Please use a valid Spotify URL or URI.",
			StatusCode: http.StatusBadRequest,
		}
	}
	return c.DataByID(ctx, contentType, id)
}

// SavedTracks fetches a page of the user's liked songs. bearer is the
// caller's OAuth access token; the sign-in flow that obtains it lives
// client-side.
func (c *Client) SavedTracks(ctx context.Context, bearer string, limit, offset int) ([]Track, int, bool, error) {
	if bearer == "" {
		return nil, 0, false, &Error{Message: "User library access requires Spotify login.", StatusCode: http.StatusUnauthorized}
	}

	var data struct {
		Items []struct {
			Track apiTrack `json:"track"`
		} `json:"items"`
		Total int    `json:"total"`
		Next  string `json:"next"`
	}
	endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)
	if err := c.apiGet(ctx, endpoint, bearer, &data); err != nil {
		return nil, 0, false, err
	}

	tracks := make([]Track, 0, len(data.Items))
	for _, item := range data.Items {
		tracks = append(tracks, transformTrack(item.Track, ""))
	}
	return tracks, data.Total, data.Next != "", nil
}

// UserPlaylists fetches a page of the user's playlists (track lists
// are fetched separately via PlaylistByID).
func (c *Client) UserPlaylists(ctx context.Context, bearer string, limit, offset int) ([]Playlist, int, bool, error) {
	if bearer == "" {
		return nil, 0, false, &Error{Message: "User library access requires Spotify login.", StatusCode: http.StatusUnauthorized}
	}

	var data struct {
		Items []apiPlaylist `json:"items"`
		Total int           `json:"total"`
		Next  string        `json:"next"`
	}
	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)
	if err := c.apiGet(ctx, endpoint, bearer, &data); err != nil {
		return nil, 0, false, err
	}

	playlists := make([]Playlist, 0, len(data.Items))
	for _, p := range data.Items {
		playlists = append(playlists, Playlist{
			ID:          p.ID,
			Name:        p.Name,
			Owner:       p.Owner.DisplayName,
			Image:       bestImage(p.Images),
			TotalTracks: p.Tracks.Total,
		})
	}
	return playlists, data.Total, data.Next != "", nil
}
