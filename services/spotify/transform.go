package spotify

import (
	"fmt"
	"sort"
	"strings"
)

// bestImage picks the largest image from a Spotify images array.
func bestImage(images []apiImage) string {
	if len(images) == 0 {
		return ""
	}
	sorted := make([]apiImage, len(images))
	copy(sorted, images)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Width > sorted[j].Width })
	return sorted[0].URL
}

func artistNames(artists []apiArtist) []string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return names
}

// transformTrack converts a wire track. albumImage overrides the
// track's own album art when the caller already knows the collection
// image (album pages omit per-track images).
func transformTrack(t apiTrack, albumImage string) Track {
	image := albumImage
	if image == "" {
		image = bestImage(t.Album.Images)
	}
	return Track{
		ID:         t.ID,
		Name:       t.Name,
		Artists:    artistNames(t.Artists),
		Album:      t.Album.Name,
		AlbumImage: image,
		Duration:   t.DurationMs,
	}
}

func transformAlbum(a apiAlbum) Album {
	image := bestImage(a.Images)
	tracks := make([]Track, 0, len(a.Tracks.Items))
	for _, t := range a.Tracks.Items {
		tr := transformTrack(t, image)
		if tr.Album == "" {
			tr.Album = a.Name
		}
		tracks = append(tracks, tr)
	}
	return Album{
		ID:          a.ID,
		Name:        a.Name,
		Artists:     artistNames(a.Artists),
		Image:       image,
		ReleaseDate: a.ReleaseDate,
		TotalTracks: a.TotalTracks,
		Label:       a.Label,
		Tracks:      tracks,
	}
}

func transformPlaylist(p apiPlaylist) Playlist {
	tracks := make([]Track, 0, len(p.Tracks.Items))
	for _, item := range p.Tracks.Items {
		if item.Track == nil {
			continue
		}
		tracks = append(tracks, transformTrack(*item.Track, ""))
	}
	return Playlist{
		ID:          p.ID,
		Name:        p.Name,
		Owner:       p.Owner.DisplayName,
		Image:       bestImage(p.Images),
		TotalTracks: p.Tracks.Total,
		Tracks:      tracks,
	}
}

func suggestionsFromSearch(data *apiSearchResponse) []Suggestion {
	var suggestions []Suggestion

	if data.Tracks != nil {
		for _, t := range data.Tracks.Items {
			suggestions = append(suggestions, Suggestion{
				ID:       t.ID,
				Name:     t.Name,
				Type:     TypeTrack,
				Subtitle: strings.Join(artistNames(t.Artists), ", "),
				Image:    bestImage(t.Album.Images),
			})
		}
	}

	if data.Albums != nil {
		for _, a := range data.Albums.Items {
			year := ""
			if parts := strings.SplitN(a.ReleaseDate, "-", 2); len(parts) > 0 {
				year = parts[0]
			}
			suggestions = append(suggestions, Suggestion{
				ID:       a.ID,
				Name:     a.Name,
				Type:     TypeAlbum,
				Subtitle: fmt.Sprintf("%s • %s", strings.Join(artistNames(a.Artists), ", "), year),
				Image:    bestImage(a.Images),
			})
		}
	}

	if data.Playlists != nil {
		for _, p := range data.Playlists.Items {
			if p == nil {
				continue
			}
			suggestions = append(suggestions, Suggestion{
				ID:       p.ID,
				Name:     p.Name,
				Type:     TypePlaylist,
				Subtitle: fmt.Sprintf("%d songs • %s", p.Tracks.Total, p.Owner.DisplayName),
				Image:    bestImage(p.Images),
			})
		}
	}

	return suggestions
}
