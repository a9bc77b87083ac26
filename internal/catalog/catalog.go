// Package catalog defines the value types shared between the library, the
// serving layer and the playback engine: tracks, albums and artists.
package catalog

import "time"

// Track is an immutable track descriptor. The playback engine only reads it.
type Track struct {
	ID       string        // stable identifier, derived from the locator
	Title    string
	Artist   string
	Album    string
	Number   int           // 1-based track number, 0 when unknown
	Duration time.Duration // nominal duration, 0 before first decode
	Locator  string        // file path or URL resolved by the source loader
}

// Album is an ordered, non-empty sequence of tracks.
type Album struct {
	ID     string
	Title  string
	Artist string
	Year   int // 0 when unknown
	Tracks []Track
}

// Artist groups the albums credited to one album artist.
type Artist struct {
	Name   string
	Albums []Album
}

// IsEmpty reports whether the album has no tracks. Empty albums are
// rejected by the playback engine.
func (a *Album) IsEmpty() bool {
	return len(a.Tracks) == 0
}

// TotalDuration sums the nominal durations of all tracks.
func (a *Album) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range a.Tracks {
		total += t.Duration
	}
	return total
}
