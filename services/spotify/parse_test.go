package spotify

import "testing"

func TestParseLink(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType ContentType
		wantID   string
		wantOK   bool
	}{
		{
			name:     "track URL",
			input:    "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
			wantType: TypeTrack,
			wantID:   "4uLU6hMCjMI75M1A2tKUQC",
			wantOK:   true,
		},
		{
			name:     "album URL with query string",
			input:    "https://open.spotify.com/album/1ATL5GYt2wsTdKSmrLyvdZ?si=abc123",
			wantType: TypeAlbum,
			wantID:   "1ATL5GYt2wsTdKSmrLyvdZ",
			wantOK:   true,
		},
		{
			name:     "playlist URL with locale segment",
			input:    "https://open.spotify.com/intl-de/playlist/37i9dQZF1DXcBWIGoYBM5M",
			wantType: TypePlaylist,
			wantID:   "37i9dQZF1DXcBWIGoYBM5M",
			wantOK:   true,
		},
		{
			name:     "track URI",
			input:    "spotify:track:4uLU6hMCjMI75M1A2tKUQC",
			wantType: TypeTrack,
			wantID:   "4uLU6hMCjMI75M1A2tKUQC",
			wantOK:   true,
		},
		{
			name:     "playlist URI",
			input:    "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M",
			wantType: TypePlaylist,
			wantID:   "37i9dQZF1DXcBWIGoYBM5M",
			wantOK:   true,
		},
		{
			name:   "artist URL is unsupported",
			input:  "https://open.spotify.com/artist/0TnOYISbd1XYRBk9myaseg",
			wantOK: false,
		},
		{
			name:   "unrelated URL",
			input:  "https://example.com/track/123",
			wantOK: false,
		},
		{
			name:   "empty input",
			input:  "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contentType, id, ok := ParseLink(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseLink(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !tt.wantOK {
				return
			}
			if contentType != tt.wantType {
				t.Errorf("type = %q, want %q", contentType, tt.wantType)
			}
			if id != tt.wantID {
				t.Errorf("id = %q, want %q", id, tt.wantID)
			}
		})
	}
}
