package scrobble

import (
	"sync"
	"testing"
	"time"

	"github.com/lmenard/platter/internal/catalog"
	"github.com/lmenard/platter/internal/playback"
)

type fakeSubmitter struct {
	mu         sync.Mutex
	nowPlaying []Track
	scrobbles  []Track
}

func (f *fakeSubmitter) UpdateNowPlaying(t Track) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nowPlaying = append(f.nowPlaying, t)
	return nil
}

func (f *fakeSubmitter) Scrobble(t Track) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scrobbles = append(f.scrobbles, t)
	return nil
}

func (f *fakeSubmitter) counts() (nowPlaying, scrobbles int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.nowPlaying), len(f.scrobbles)
}

func playingState(id, title string, position, duration time.Duration) playback.State {
	return playback.State{
		Playing:  true,
		Track:    &catalog.Track{ID: id, Title: title, Artist: "Artist", Album: "Album"},
		Position: position,
		Duration: duration,
	}
}

func TestScrobbler_NowPlayingOnTrackChange(t *testing.T) {
	fake := &fakeSubmitter{}
	s := New(fake, nil)

	s.PlaybackChanged(playingState("t1", "One", 0, 3*time.Minute))
	s.PlaybackChanged(playingState("t1", "One", 10*time.Second, 3*time.Minute))
	s.PlaybackChanged(playingState("t2", "Two", 0, 3*time.Minute))
	s.Close()

	nowPlaying, _ := fake.counts()
	if nowPlaying != 2 {
		t.Errorf("now playing updates = %d, want 2", nowPlaying)
	}
}

func TestScrobbler_ScrobblesAtHalfway(t *testing.T) {
	fake := &fakeSubmitter{}
	s := New(fake, nil)

	s.PlaybackChanged(playingState("t1", "One", 0, 4*time.Minute))
	s.PlaybackChanged(playingState("t1", "One", time.Minute, 4*time.Minute))
	s.PlaybackChanged(playingState("t1", "One", 2*time.Minute, 4*time.Minute))
	s.PlaybackChanged(playingState("t1", "One", 3*time.Minute, 4*time.Minute))
	s.Close()

	_, scrobbles := fake.counts()
	if scrobbles != 1 {
		t.Fatalf("scrobbles = %d, want 1", scrobbles)
	}
	if fake.scrobbles[0].Title != "One" {
		t.Errorf("scrobbled track = %q", fake.scrobbles[0].Title)
	}
}

func TestScrobbler_ShortTracksNeverScrobble(t *testing.T) {
	fake := &fakeSubmitter{}
	s := New(fake, nil)

	s.PlaybackChanged(playingState("t1", "Jingle", 0, 20*time.Second))
	s.PlaybackChanged(playingState("t1", "Jingle", 19*time.Second, 20*time.Second))
	s.Close()

	_, scrobbles := fake.counts()
	if scrobbles != 0 {
		t.Errorf("scrobbles = %d, want 0", scrobbles)
	}
}

func TestScrobbler_ClearedStateResets(t *testing.T) {
	fake := &fakeSubmitter{}
	s := New(fake, nil)

	s.PlaybackChanged(playingState("t1", "One", 0, 3*time.Minute))
	s.PlaybackChanged(playback.State{})
	s.PlaybackChanged(playingState("t1", "One", 0, 3*time.Minute))
	s.Close()

	nowPlaying, _ := fake.counts()
	if nowPlaying != 2 {
		t.Errorf("now playing updates = %d, want 2 after reset", nowPlaying)
	}
}

func TestShouldScrobble(t *testing.T) {
	tests := []struct {
		name     string
		position time.Duration
		duration time.Duration
		want     bool
	}{
		{"too short", 25 * time.Second, 29 * time.Second, false},
		{"before halfway", time.Minute, 3 * time.Minute, false},
		{"at halfway", 90 * time.Second, 3 * time.Minute, true},
		{"long track at 4 minutes", 4 * time.Minute, 20 * time.Minute, true},
		{"long track before 4 minutes", 3 * time.Minute, 20 * time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldScrobble(tt.position, tt.duration); got != tt.want {
				t.Errorf("shouldScrobble(%v, %v) = %v, want %v", tt.position, tt.duration, got, tt.want)
			}
		})
	}
}
