package catalog

import (
	"sort"
	"strings"
	"time"
)

// File is the raw output of a directory scan for a single audio file,
// before any grouping.
type File struct {
	Path        string
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Number      int
	Year        int
	Duration    time.Duration
}

// Organize turns a flat list of scanned files into the artist -> album ->
// track tree. It is a pure function: no I/O, deterministic output order
// (artists and albums case-insensitively by name, albums by year first,
// tracks by number then title).
func Organize(files []File) []Artist {
	type albumKey struct {
		artist string
		album  string
	}

	byAlbum := make(map[albumKey][]File)
	for _, f := range files {
		if f.Album == "" {
			continue
		}
		artist := f.AlbumArtist
		if artist == "" {
			artist = f.Artist
		}
		if artist == "" {
			continue
		}
		k := albumKey{artist: artist, album: f.Album}
		byAlbum[k] = append(byAlbum[k], f)
	}

	byArtist := make(map[string][]Album)
	for k, tracks := range byAlbum {
		sort.SliceStable(tracks, func(i, j int) bool {
			if tracks[i].Number != tracks[j].Number {
				return tracks[i].Number < tracks[j].Number
			}
			return strings.ToLower(tracks[i].Title) < strings.ToLower(tracks[j].Title)
		})

		album := Album{
			ID:     AlbumID(k.artist, k.album),
			Title:  k.album,
			Artist: k.artist,
			Tracks: make([]Track, 0, len(tracks)),
		}
		for _, f := range tracks {
			if album.Year == 0 && f.Year > 0 {
				album.Year = f.Year
			}
			title := f.Title
			if title == "" {
				title = f.Path
			}
			album.Tracks = append(album.Tracks, Track{
				ID:       TrackID(f.Path),
				Title:    title,
				Artist:   f.Artist,
				Album:    f.Album,
				Number:   f.Number,
				Duration: f.Duration,
				Locator:  f.Path,
			})
		}
		byArtist[k.artist] = append(byArtist[k.artist], album)
	}

	artists := make([]Artist, 0, len(byArtist))
	for name, albums := range byArtist {
		sort.SliceStable(albums, func(i, j int) bool {
			if albums[i].Year != albums[j].Year {
				// Unknown years sort last
				if albums[i].Year == 0 || albums[j].Year == 0 {
					return albums[j].Year == 0
				}
				return albums[i].Year < albums[j].Year
			}
			return strings.ToLower(albums[i].Title) < strings.ToLower(albums[j].Title)
		})
		artists = append(artists, Artist{Name: name, Albums: albums})
	}
	sort.SliceStable(artists, func(i, j int) bool {
		return strings.ToLower(artists[i].Name) < strings.ToLower(artists[j].Name)
	})
	return artists
}
