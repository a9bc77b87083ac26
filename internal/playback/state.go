package playback

import (
	"time"

	"github.com/lmenard/platter/internal/catalog"
)

// Status represents the controller state machine.
//
// Valid transitions:
//   - Idle    → Loading  (PlayAlbum)
//   - Loading → Playing  (source started)
//   - Loading → Skipping (load failed, more tracks remain)
//   - Loading → Idle     (load failed on the last track, or Stop)
//   - Skipping → Loading (retry delay elapsed)
//   - Playing → Paused   (Pause) and back (Resume)
//   - Playing → Loading/Playing (track end: cold path / gapless promotion)
//   - any     → Idle     (Stop, album exhausted)
type Status int

const (
	Idle Status = iota
	Loading
	Playing
	Paused
	Skipping
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Loading:
		return "Loading"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	case Skipping:
		return "Skipping"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a playback session is in progress.
func (s Status) IsActive() bool {
	return s != Idle
}

// State is the snapshot published to observers. A fresh copy is built for
// every delivery; mutating a received State never affects the engine or
// other observers.
type State struct {
	Playing  bool
	Track    *catalog.Track // nil when no current track
	Album    *catalog.Album // nil when no session
	Position time.Duration
	Duration time.Duration
}

// clone deep-copies the snapshot so each observer gets its own value.
func (s State) clone() State {
	out := s
	if s.Track != nil {
		track := *s.Track
		out.Track = &track
	}
	if s.Album != nil {
		album := *s.Album
		album.Tracks = append([]catalog.Track(nil), s.Album.Tracks...)
		out.Album = &album
	}
	return out
}
