package playback

import (
	"context"
	"time"

	"github.com/lmenard/platter/internal/catalog"
)

// Source is a loaded track ready to produce audio. A source moves through
// at most one start and one release; all other calls are observations.
//
// Implementations must make Release idempotent and safe to call from any
// goroutine, including concurrently with a watcher blocked on Done or Err.
type Source interface {
	// Start begins audible playback. Calling Start on an already started
	// source is a no-op; starting a released source returns an error.
	Start() error

	// Pause and Resume toggle audibility without losing the position.
	Pause()
	Resume()

	// Position is the current play position; Duration the track's total
	// length, known from load time.
	Position() time.Duration
	Duration() time.Duration

	// Ready is closed once enough audio is buffered for an immediate,
	// glitch-free Start.
	Ready() <-chan struct{}

	// Done is closed when the track ends naturally or the source is
	// released, whichever comes first. Waiters never leak.
	Done() <-chan struct{}

	// Err delivers at most one unrecoverable mid-playback failure. A
	// source that fails does not also close Done.
	Err() <-chan error

	// Release frees decoder and transport resources and closes Done.
	// Idempotent.
	Release()
}

// Loader turns a catalog track into a playable source. Load is called off
// the controller's lock and must honor ctx cancellation; a returned source
// that is never started must still be releasable.
type Loader interface {
	Load(ctx context.Context, track catalog.Track) (Source, error)
}
