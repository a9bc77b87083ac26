package scrobble

import (
	"log/slog"
	"time"

	"github.com/lmenard/platter/internal/playback"
)

const (
	// Last.fm rules: a track scrobbles after half its duration or four
	// minutes, whichever comes first, and only if it runs at least 30s.
	minTrackLength    = 30 * time.Second
	maxScrobblePoint  = 4 * time.Minute
	stateBufferLength = 64
)

// Scrobbler observes playback state and submits now-playing updates and
// scrobbles. State notifications are forwarded through a buffered channel
// and handled on the scrobbler's own goroutine, so slow Last.fm calls never
// stall the player. Bursts beyond the buffer drop progress updates, which
// at worst delays a scrobble to the next tick.
type Scrobbler struct {
	client Submitter
	log    *slog.Logger
	now    func() time.Time

	states chan playback.State
	closed chan struct{}
	done   chan struct{}

	// current track bookkeeping, touched only by the run goroutine
	trackID   string
	startedAt time.Time
	scrobbled bool
	pending   Track
}

var _ playback.Observer = (*Scrobbler)(nil)

func New(client Submitter, log *slog.Logger) *Scrobbler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Scrobbler{
		client: client,
		log:    log,
		now:    time.Now,
		states: make(chan playback.State, stateBufferLength),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// PlaybackChanged implements playback.Observer.
func (s *Scrobbler) PlaybackChanged(st playback.State) {
	select {
	case s.states <- st:
	case <-s.closed:
	default:
	}
}

// Close stops the forwarding goroutine. Pending submissions finish first.
func (s *Scrobbler) Close() {
	close(s.closed)
	<-s.done
}

func (s *Scrobbler) run() {
	defer close(s.done)
	for {
		select {
		case st := <-s.states:
			s.handle(st)
		case <-s.closed:
			// Drain what already arrived.
			for {
				select {
				case st := <-s.states:
					s.handle(st)
				default:
					return
				}
			}
		}
	}
}

func (s *Scrobbler) handle(st playback.State) {
	if st.Track == nil {
		s.trackID = ""
		return
	}

	if st.Track.ID != s.trackID {
		s.trackID = st.Track.ID
		s.startedAt = s.now()
		s.scrobbled = false
		s.pending = Track{
			Artist:    st.Track.Artist,
			Title:     st.Track.Title,
			Album:     st.Track.Album,
			Duration:  st.Duration,
			StartedAt: s.startedAt,
		}
		if err := s.client.UpdateNowPlaying(s.pending); err != nil {
			s.log.Warn("now playing update failed", "track", st.Track.Title, "error", err)
		}
		return
	}

	if s.scrobbled || !st.Playing {
		return
	}
	if st.Duration > s.pending.Duration {
		s.pending.Duration = st.Duration
	}
	if !shouldScrobble(st.Position, st.Duration) {
		return
	}

	s.scrobbled = true
	if err := s.client.Scrobble(s.pending); err != nil {
		s.log.Warn("scrobble failed", "track", st.Track.Title, "error", err)
	} else {
		s.log.Debug("scrobbled", "track", st.Track.Title)
	}
}

func shouldScrobble(position, duration time.Duration) bool {
	if duration < minTrackLength {
		return false
	}
	threshold := duration / 2
	if maxScrobblePoint < threshold {
		threshold = maxScrobblePoint
	}
	return position >= threshold
}
