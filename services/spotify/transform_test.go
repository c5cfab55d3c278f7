package spotify

import (
	"reflect"
	"testing"
)

func TestBestImage(t *testing.T) {
	images := []apiImage{
		{URL: "small", Width: 64, Height: 64},
		{URL: "large", Width: 640, Height: 640},
		{URL: "medium", Width: 300, Height: 300},
	}
	if got := bestImage(images); got != "large" {
		t.Errorf("bestImage = %q, want %q", got, "large")
	}
	if got := bestImage(nil); got != "" {
		t.Errorf("bestImage(nil) = %q, want empty", got)
	}
}

func TestTransformTrack(t *testing.T) {
	wire := apiTrack{
		ID:         "abc",
		Name:       "Song",
		Artists:    []apiArtist{{Name: "A"}, {Name: "B"}},
		DurationMs: 125000,
	}
	wire.Album.Name = "Record"
	wire.Album.Images = []apiImage{{URL: "art", Width: 640}}

	track := transformTrack(wire, "")
	want := Track{
		ID:         "abc",
		Name:       "Song",
		Artists:    []string{"A", "B"},
		Album:      "Record",
		AlbumImage: "art",
		Duration:   125000,
	}
	if !reflect.DeepEqual(track, want) {
		t.Errorf("transformTrack = %+v, want %+v", track, want)
	}

	// caller-supplied image wins over the track's own album art
	track = transformTrack(wire, "override")
	if track.AlbumImage != "override" {
		t.Errorf("AlbumImage = %q, want %q", track.AlbumImage, "override")
	}
}

func TestTransformAlbumFillsTrackAlbumName(t *testing.T) {
	wire := apiAlbum{
		ID:          "alb",
		Name:        "Record",
		Artists:     []apiArtist{{Name: "A"}},
		Images:      []apiImage{{URL: "cover", Width: 640}},
		ReleaseDate: "1999-05-01",
		TotalTracks: 2,
	}
	// album endpoints return simplified tracks with no album object
	wire.Tracks.Items = []apiTrack{{ID: "t1", Name: "One"}, {ID: "t2", Name: "Two"}}

	album := transformAlbum(wire)
	if len(album.Tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(album.Tracks))
	}
	for _, tr := range album.Tracks {
		if tr.Album != "Record" {
			t.Errorf("track %s album = %q, want %q", tr.ID, tr.Album, "Record")
		}
		if tr.AlbumImage != "cover" {
			t.Errorf("track %s image = %q, want %q", tr.ID, tr.AlbumImage, "cover")
		}
	}
}

func TestTransformPlaylistSkipsRemovedTracks(t *testing.T) {
	wire := apiPlaylist{ID: "pl", Name: "Mix"}
	wire.Owner.DisplayName = "someone"
	wire.Tracks.Total = 3
	wire.Tracks.Items = []struct {
		Track *apiTrack `json:"track"`
	}{
		{Track: &apiTrack{ID: "t1", Name: "One"}},
		{Track: nil},
		{Track: &apiTrack{ID: "t2", Name: "Two"}},
	}

	playlist := transformPlaylist(wire)
	if len(playlist.Tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(playlist.Tracks))
	}
	if playlist.Owner != "someone" {
		t.Errorf("owner = %q", playlist.Owner)
	}
	if playlist.TotalTracks != 3 {
		t.Errorf("totalTracks = %d, want 3", playlist.TotalTracks)
	}
}

func TestSuggestionSubtitles(t *testing.T) {
	data := &apiSearchResponse{}

	trackItem := apiTrack{ID: "t1", Name: "Song", Artists: []apiArtist{{Name: "A"}, {Name: "B"}}}
	data.Tracks = &struct {
		Items []apiTrack `json:"items"`
	}{Items: []apiTrack{trackItem}}

	albumItem := apiAlbum{ID: "a1", Name: "Record", Artists: []apiArtist{{Name: "A"}}, ReleaseDate: "2003-10-07"}
	data.Albums = &struct {
		Items []apiAlbum `json:"items"`
	}{Items: []apiAlbum{albumItem}}

	playlistItem := &apiPlaylist{ID: "p1", Name: "Mix"}
	playlistItem.Owner.DisplayName = "dj"
	playlistItem.Tracks.Total = 42
	data.Playlists = &struct {
		Items []*apiPlaylist `json:"items"`
	}{Items: []*apiPlaylist{playlistItem, nil}}

	suggestions := suggestionsFromSearch(data)
	if len(suggestions) != 3 {
		t.Fatalf("got %d suggestions, want 3", len(suggestions))
	}

	wantSubtitles := map[string]string{
		"t1": "A, B",
		"a1": "A • 2003",
		"p1": "42 songs • dj",
	}
	for _, s := range suggestions {
		if want := wantSubtitles[s.ID]; s.Subtitle != want {
			t.Errorf("%s subtitle = %q, want %q", s.ID, s.Subtitle, want)
		}
	}
}
