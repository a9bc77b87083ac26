package playback

import (
	"context"
	"sync"
	"time"

	"github.com/lmenard/platter/internal/catalog"
)

// MockSource is a test double for Source.
type MockSource struct {
	mu       sync.Mutex
	track    catalog.Track
	started  bool
	paused   bool
	startErr error
	releases int
	position time.Duration
	duration time.Duration

	ready chan struct{}
	done  chan struct{}
	errCh chan error

	readyOnce sync.Once
	doneOnce  sync.Once
}

// NewMockSource creates a mock source for the given track. It is not
// ready until SignalReady is called.
func NewMockSource(track catalog.Track) *MockSource {
	return &MockSource{
		track:    track,
		duration: track.Duration,
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
		errCh:    make(chan error, 1),
	}
}

func (m *MockSource) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.started = true
	m.paused = false
	return nil
}

func (m *MockSource) Pause() {
	m.mu.Lock()
	m.paused = true
	m.mu.Unlock()
}

func (m *MockSource) Resume() {
	m.mu.Lock()
	m.paused = false
	m.mu.Unlock()
}

func (m *MockSource) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *MockSource) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *MockSource) Ready() <-chan struct{} { return m.ready }

func (m *MockSource) Done() <-chan struct{} { return m.done }

func (m *MockSource) Err() <-chan error { return m.errCh }

// Release is idempotent and closes Done so watchers unpark.
func (m *MockSource) Release() {
	m.mu.Lock()
	m.releases++
	m.mu.Unlock()
	m.doneOnce.Do(func() { close(m.done) })
}

// Test helpers

func (m *MockSource) Track() catalog.Track { return m.track }

func (m *MockSource) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

func (m *MockSource) PausedState() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *MockSource) Releases() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releases
}

func (m *MockSource) SetStartError(err error) {
	m.mu.Lock()
	m.startErr = err
	m.mu.Unlock()
}

func (m *MockSource) SetPosition(d time.Duration) {
	m.mu.Lock()
	m.position = d
	m.mu.Unlock()
}

func (m *MockSource) SetDuration(d time.Duration) {
	m.mu.Lock()
	m.duration = d
	m.mu.Unlock()
}

// SignalReady marks the source as buffered enough for gapless handoff.
func (m *MockSource) SignalReady() {
	m.readyOnce.Do(func() { close(m.ready) })
}

// SimulateFinished simulates the natural end of the track.
func (m *MockSource) SimulateFinished() {
	m.doneOnce.Do(func() { close(m.done) })
}

// SimulateError simulates a run-time playback failure.
func (m *MockSource) SimulateError(err error) {
	select {
	case m.errCh <- err:
	default:
	}
}

// Verify MockSource implements Source at compile time.
var _ Source = (*MockSource)(nil)

// MockLoader is a test double for Loader. Sources it returns are ready
// immediately unless SetAutoReady(false) is called.
type MockLoader struct {
	mu        sync.Mutex
	calls     []string
	failFor   map[string]error
	sources   []*MockSource
	autoReady bool
}

// NewMockLoader creates a mock loader.
func NewMockLoader() *MockLoader {
	return &MockLoader{
		failFor:   make(map[string]error),
		autoReady: true,
	}
}

func (l *MockLoader) Load(_ context.Context, track catalog.Track) (Source, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, track.Locator)
	if err := l.failFor[track.Locator]; err != nil {
		return nil, err
	}
	s := NewMockSource(track)
	if l.autoReady {
		s.SignalReady()
	}
	l.sources = append(l.sources, s)
	return s, nil
}

// Test helpers

// FailWith makes loads for the given locator fail.
func (l *MockLoader) FailWith(locator string, err error) {
	l.mu.Lock()
	l.failFor[locator] = err
	l.mu.Unlock()
}

func (l *MockLoader) SetAutoReady(v bool) {
	l.mu.Lock()
	l.autoReady = v
	l.mu.Unlock()
}

// LoadCalls returns the locators requested so far, in order.
func (l *MockLoader) LoadCalls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// Sources returns every source handed out so far, in order.
func (l *MockLoader) Sources() []*MockSource {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*MockSource(nil), l.sources...)
}

// LastSource returns the most recently created source, or nil.
func (l *MockLoader) LastSource() *MockSource {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.sources) == 0 {
		return nil
	}
	return l.sources[len(l.sources)-1]
}

// Verify MockLoader implements Loader at compile time.
var _ Loader = (*MockLoader)(nil)
