package spotify

// ContentType is the kind of Spotify entity a link or lookup refers to.
type ContentType string

const (
	TypeTrack    ContentType = "track"
	TypeAlbum    ContentType = "album"
	TypePlaylist ContentType = "playlist"
)

// Track is the catalog shape the downloader core consumes.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	AlbumImage string   `json:"albumImage"`
	Duration   int      `json:"duration"` // milliseconds
}

// Album is an ordered track collection with display metadata.
type Album struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	Image       string   `json:"image"`
	ReleaseDate string   `json:"releaseDate"`
	TotalTracks int      `json:"totalTracks"`
	Label       string   `json:"label,omitempty"`
	Tracks      []Track  `json:"tracks"`
}

// Playlist is an ordered track collection owned by a user.
type Playlist struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Owner       string  `json:"owner"`
	Image       string  `json:"image"`
	TotalTracks int     `json:"totalTracks"`
	Tracks      []Track `json:"tracks"`
}

// Suggestion is one autocomplete search result.
type Suggestion struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Type     ContentType `json:"type"`
	Subtitle string      `json:"subtitle"`
	Image    string      `json:"image,omitempty"`
}

// Data wraps a resolved link: exactly one of the pointers is set,
// selected by Type.
type Data struct {
	Type     ContentType `json:"type"`
	Track    *Track      `json:"track,omitempty"`
	Album    *Album      `json:"album,omitempty"`
	Playlist *Playlist   `json:"playlist,omitempty"`
}

// Tracks returns the ordered track list for whatever entity is set.
func (d *Data) Tracks() []Track {
	switch d.Type {
	case TypeTrack:
		if d.Track != nil {
			return []Track{*d.Track}
		}
	case TypeAlbum:
		if d.Album != nil {
			return d.Album.Tracks
		}
	case TypePlaylist:
		if d.Playlist != nil {
			return d.Playlist.Tracks
		}
	}
	return nil
}

// Title returns the display title for whatever entity is set.
func (d *Data) Title() string {
	switch d.Type {
	case TypeTrack:
		if d.Track != nil {
			return d.Track.Name
		}
	case TypeAlbum:
		if d.Album != nil {
			return d.Album.Name
		}
	case TypePlaylist:
		if d.Playlist != nil {
			return d.Playlist.Name
		}
	}
	return ""
}

// Error is a typed catalog API failure.
type Error struct {
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	return e.Message
}

// Wire shapes of the Spotify Web API.

type apiImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type apiArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type apiTrack struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Artists []apiArtist `json:"artists"`
	Album   struct {
		ID     string     `json:"id"`
		Name   string     `json:"name"`
		Images []apiImage `json:"images"`
	} `json:"album"`
	DurationMs int `json:"duration_ms"`
}

type apiAlbum struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Artists     []apiArtist `json:"artists"`
	Images      []apiImage  `json:"images"`
	ReleaseDate string      `json:"release_date"`
	TotalTracks int         `json:"total_tracks"`
	Label       string      `json:"label"`
	Tracks      struct {
		Items []apiTrack `json:"items"`
		Next  string     `json:"next"`
		Total int        `json:"total"`
	} `json:"tracks"`
}

type apiPlaylist struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner struct {
		DisplayName string `json:"display_name"`
	} `json:"owner"`
	Images []apiImage `json:"images"`
	Tracks struct {
		Items []struct {
			Track *apiTrack `json:"track"`
		} `json:"items"`
		Next  string `json:"next"`
		Total int    `json:"total"`
	} `json:"tracks"`
}

type apiSearchResponse struct {
	Tracks *struct {
		Items []apiTrack `json:"items"`
	} `json:"tracks"`
	Albums *struct {
		Items []apiAlbum `json:"items"`
	} `json:"albums"`
	Playlists *struct {
		Items []*apiPlaylist `json:"items"`
	} `json:"playlists"`
}

type apiErrorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type oauthTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
