package source

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/lmenard/platter/internal/catalog"
	"github.com/lmenard/platter/internal/playback"
)

const resampleQuality = 4

// ErrReleased is returned by Start on a source whose resources have been
// released.
var ErrReleased = errors.New("source released")

// audioSource is a decoded track wired to the shared speaker. It implements
// playback.Source.
type audioSource struct {
	track    catalog.Track
	streamer beep.StreamSeekCloser
	format   beep.Format
	closer   io.Closer
	duration time.Duration

	mu      sync.Mutex
	ctrl    *beep.Ctrl
	started bool

	// finished and released are atomics because the drain callback runs
	// inside the speaker's mix loop and must not take mu (Pause takes mu
	// then the speaker lock, the opposite order).
	finished atomic.Bool
	released atomic.Bool

	ready    chan struct{}
	done     chan struct{}
	errCh    chan error
	doneOnce sync.Once
}

var _ playback.Source = (*audioSource)(nil)

func newAudioSource(track catalog.Track, streamer beep.StreamSeekCloser, format beep.Format, closer io.Closer) *audioSource {
	s := &audioSource{
		track:    track,
		streamer: streamer,
		format:   format,
		closer:   closer,
		duration: format.SampleRate.D(streamer.Len()),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
		errCh:    make(chan error, 1),
	}
	// Decoding is streaming: once the decoder is built the data behind it
	// is already buffered, so the source is immediately ready.
	close(s.ready)
	return s
}

// Start begins feeding the track to the speaker.
func (s *audioSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released.Load() {
		return ErrReleased
	}
	if s.started {
		return nil
	}
	s.started = true

	var st beep.Streamer = s.streamer
	if rate := currentSpeakerRate(); s.format.SampleRate != rate {
		st = beep.Resample(resampleQuality, s.format.SampleRate, rate, st)
	}
	s.ctrl = &beep.Ctrl{Streamer: st}
	speaker.Play(beep.Seq(s.ctrl, beep.Callback(s.onDrained)))
	return nil
}

// onDrained runs inside the speaker mix loop when the streamer stops
// producing samples, either at end of track or on a decode error.
func (s *audioSource) onDrained() {
	s.finished.Store(true)
	if err := s.streamer.Err(); err != nil {
		select {
		case s.errCh <- err:
		default:
		}
		return
	}
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *audioSource) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil || s.released.Load() {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
}

func (s *audioSource) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil || s.released.Load() {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
}

func (s *audioSource) Position() time.Duration {
	if s.released.Load() {
		return 0
	}
	speaker.Lock()
	pos := s.streamer.Position()
	speaker.Unlock()
	return s.format.SampleRate.D(pos)
}

func (s *audioSource) Duration() time.Duration {
	return s.duration
}

func (s *audioSource) Ready() <-chan struct{} {
	return s.ready
}

func (s *audioSource) Done() <-chan struct{} {
	return s.done
}

func (s *audioSource) Err() <-chan error {
	return s.errCh
}

// Release frees the decoder and underlying reader. If the track is still
// audible it is silenced first. Release is idempotent and closes Done.
func (s *audioSource) Release() {
	s.mu.Lock()
	if s.released.Load() {
		s.mu.Unlock()
		return
	}
	s.released.Store(true)
	started := s.started
	s.mu.Unlock()

	// Clear only when this source still owns the speaker: a finished
	// streamer has already been dropped by the mixer, and clearing then
	// would cut off a successor that started in its place.
	if started && !s.finished.Load() {
		speaker.Clear()
	}

	_ = s.streamer.Close()
	if s.closer != nil {
		_ = s.closer.Close()
	}
	s.doneOnce.Do(func() { close(s.done) })
}
