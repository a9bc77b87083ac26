package playback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lmenard/platter/internal/catalog"
)

const (
	defaultRetryDelay       = 500 * time.Millisecond
	defaultReleaseDelay     = 250 * time.Millisecond
	defaultProgressInterval = 500 * time.Millisecond
	defaultLoadTimeout      = 30 * time.Second
)

// Option configures a Controller.
type Option func(*Controller)

// WithRetryDelay sets the pause between an unrecoverable track failure and
// the attempt on the following track.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Controller) { c.retryDelay = d }
}

// WithReleaseDelay sets how long a superseded source is kept alive after
// its replacement has started.
func WithReleaseDelay(d time.Duration) Option {
	return func(c *Controller) { c.releaseDelay = d }
}

// WithProgressInterval sets how often position updates are published while
// playing.
func WithProgressInterval(d time.Duration) Option {
	return func(c *Controller) { c.progressInterval = d }
}

// WithLoadTimeout bounds a single source load.
func WithLoadTimeout(d time.Duration) Option {
	return func(c *Controller) { c.loadTimeout = d }
}

// Controller owns the playback session and drives the gapless state
// machine. The public surface is exactly PlayAlbum, Pause, Resume and
// Stop: no seek and no user-initiated skip, ever. Failures never return
// from these methods; they surface only through the state stream.
type Controller struct {
	mu sync.Mutex

	loader Loader
	events *Broadcaster
	log    *slog.Logger

	retryDelay       time.Duration
	releaseDelay     time.Duration
	progressInterval time.Duration
	loadTimeout      time.Duration

	// Session. album is a private copy, index always within bounds while
	// album is set. active and pending are exclusively owned here; there
	// is exactly one lookahead slot, never a queue.
	album      *catalog.Album
	index      int
	active     Source
	pending    Source
	pendingIdx int
	status     Status

	// generation is bumped on every PlayAlbum and Stop. Every deferred
	// continuation captures it at schedule time and drops itself if the
	// session has moved on; this replaces cancellation.
	generation uint64
	retryArmed bool
}

// New creates a controller publishing through events. A nil events or log
// gets a fresh broadcaster / the default logger.
func New(loader Loader, events *Broadcaster, log *slog.Logger, opts ...Option) *Controller {
	if events == nil {
		events = NewBroadcaster()
	}
	if log == nil {
		log = slog.Default()
	}
	c := &Controller{
		loader:           loader,
		events:           events,
		log:              log,
		retryDelay:       defaultRetryDelay,
		releaseDelay:     defaultReleaseDelay,
		progressInterval: defaultProgressInterval,
		loadTimeout:      defaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Events returns the broadcaster carrying state snapshots.
func (c *Controller) Events() *Broadcaster { return c.events }

// Subscribe registers an observer on the underlying broadcaster.
func (c *Controller) Subscribe(o Observer) *Subscription {
	return c.events.Subscribe(o)
}

// State returns the latest published snapshot.
func (c *Controller) State() State { return c.events.State() }

// Status returns the current machine status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// PlayAlbum starts a session playing album front to back from startIndex.
// An empty album is a complete no-op: no state change, no loader call.
// Starting a new album implicitly stops the previous session's sources.
func (c *Controller) PlayAlbum(album catalog.Album, startIndex int) {
	if album.IsEmpty() {
		c.log.Warn("ignoring play request for empty album", "album", album.Title)
		return
	}
	if startIndex < 0 || startIndex >= len(album.Tracks) {
		startIndex = 0
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.releaseSessionSourcesLocked()

	session := album
	session.Tracks = append([]catalog.Track(nil), album.Tracks...)
	c.album = &session
	c.index = startIndex
	c.status = Loading

	track := session.Tracks[startIndex]
	c.log.Info("starting album",
		"artist", session.Artist, "album", session.Title, "tracks", len(session.Tracks))
	c.events.Publish(State{
		Track:    &track,
		Album:    c.album,
		Duration: track.Duration,
	})
	c.mu.Unlock()

	go c.loadCurrent(gen)
}

// Pause suspends the active source. No-op unless something is playing.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != Playing || c.active == nil {
		return
	}
	c.active.Pause()
	c.status = Paused
	st := c.snapshotLocked()
	st.Playing = false
	c.events.Publish(st)
}

// Resume continues from the exact suspended position. No-op unless paused.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != Paused || c.active == nil {
		return
	}
	c.active.Resume()
	c.status = Playing
	st := c.snapshotLocked()
	st.Playing = true
	c.events.Publish(st)
}

// Stop ends the session. The fully cleared state is published before any
// source teardown runs, so an observer reacting to "stopped" never races
// with cleanup. Safe to call repeatedly and when idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.generation++
	active, pending := c.active, c.pending
	c.active, c.pending = nil, nil
	c.album = nil
	c.index = 0
	c.status = Idle
	c.events.Publish(State{})
	c.mu.Unlock()

	if active != nil {
		active.Release()
	}
	if pending != nil {
		pending.Release()
	}
}

// releaseSessionSourcesLocked stops the previous session's sources so two
// albums never overlap.
func (c *Controller) releaseSessionSourcesLocked() {
	if c.active != nil {
		c.active.Release()
		c.active = nil
	}
	if c.pending != nil {
		c.pending.Release()
		c.pending = nil
	}
}

// snapshotLocked builds a State from the live session.
func (c *Controller) snapshotLocked() State {
	st := State{}
	if c.album == nil {
		return st
	}
	track := c.album.Tracks[c.index]
	st.Track = &track
	st.Album = c.album
	st.Playing = c.status == Playing
	if c.active != nil {
		st.Position = c.active.Position()
		st.Duration = c.active.Duration()
	}
	if st.Duration == 0 {
		st.Duration = track.Duration
	}
	return st
}

// loadCurrent is the cold half of the single-track start procedure: fetch
// a source for the track at the cursor, then begin playback.
func (c *Controller) loadCurrent(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.album == nil {
		c.mu.Unlock()
		return
	}
	track := c.album.Tracks[c.index]
	c.status = Loading
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.loadTimeout)
	src, err := c.loader.Load(ctx, track)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || c.album == nil {
		if err == nil {
			src.Release()
		}
		return
	}
	if err != nil {
		c.log.Warn("track load failed",
			"track", track.Title, "locator", track.Locator, "err", err)
		c.failLocked(gen)
		return
	}
	if startErr := c.beginLocked(src, gen); startErr != nil {
		c.log.Warn("track start failed", "track", track.Title, "err", startErr)
		src.Release()
		c.failLocked(gen)
	}
}

// beginLocked makes src the active source for the track at the cursor and
// begins audible playback. The previously active source, if any, is only
// torn down once the new start is confirmed, and then after a short grace
// period.
func (c *Controller) beginLocked(src Source, gen uint64) error {
	if err := src.Start(); err != nil {
		return err
	}

	old := c.active
	c.active = src
	c.status = Playing

	track := c.album.Tracks[c.index]
	dur := src.Duration()
	if dur == 0 {
		dur = track.Duration
	}
	c.log.Info("playing track", "number", track.Number, "track", track.Title)
	c.events.Publish(State{
		Playing:  true,
		Track:    &track,
		Album:    c.album,
		Duration: dur,
	})

	go c.watch(src, gen)
	go c.publishProgress(src, gen)
	go c.armPrefetch(src, gen)

	if old != nil && old != src {
		c.deferRelease(old)
	}
	return nil
}

// watch waits for the source's one-shot end or error notification and
// feeds it back into the state machine. A released source closes Done, so
// this never leaks.
func (c *Controller) watch(src Source, gen uint64) {
	select {
	case <-src.Done():
		c.onSourceDone(src, gen)
	case err, ok := <-src.Err():
		if ok {
			c.onSourceErr(src, gen, err)
		}
	}
}

// onSourceDone handles the natural end of the active source.
func (c *Controller) onSourceDone(src Source, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Identity check: a stale notification from a superseded source must
	// never advance the cursor.
	if gen != c.generation || src != c.active || c.album == nil {
		return
	}
	c.advanceLocked(gen)
}

// onSourceErr handles a run-time playback failure of the active source.
// Recovery is the same as for a load failure: move on to the next track.
func (c *Controller) onSourceErr(src Source, gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || src != c.active || c.album == nil {
		return
	}
	track := c.album.Tracks[c.index]
	c.log.Warn("playback error, skipping ahead", "track", track.Title, "err", err)
	c.active = nil
	src.Release()
	c.advanceLocked(gen)
}

// advanceLocked moves the cursor past the current track. The gapless path
// promotes the prefetched source with zero additional load work; without
// one we fall back to a cold load.
func (c *Controller) advanceLocked(gen uint64) {
	if c.index >= len(c.album.Tracks)-1 {
		c.log.Info("album finished", "album", c.album.Title)
		c.finishLocked()
		return
	}
	c.index++

	if c.pending != nil {
		src := c.pending
		idx := c.pendingIdx
		c.pending = nil
		if idx == c.index {
			err := c.beginLocked(src, gen)
			if err == nil {
				return
			}
			c.log.Warn("prefetched source failed to start", "err", err)
			src.Release()
			c.failLocked(gen)
			return
		}
		// Lookahead for a stale index; should not happen, but never keep
		// more than one pending source.
		src.Release()
	}

	c.status = Loading
	go c.loadCurrent(gen)
}

// failLocked applies the skip policy after an unrecoverable track failure:
// advance and retry after a short delay, or finish if this was the last
// track. At most one retry is in flight at a time.
func (c *Controller) failLocked(gen uint64) {
	if c.index >= len(c.album.Tracks)-1 {
		c.log.Warn("unrecoverable failure on last track, stopping", "album", c.album.Title)
		c.finishLocked()
		return
	}
	c.index++
	c.status = Skipping

	if c.retryArmed {
		return
	}
	c.retryArmed = true
	time.AfterFunc(c.retryDelay, func() {
		c.mu.Lock()
		c.retryArmed = false
		stale := gen != c.generation || c.album == nil
		c.mu.Unlock()
		if stale {
			return
		}
		c.loadCurrent(gen)
	})
}

// finishLocked ends the session in the exhausted shape: cleared snapshot
// first, then source teardown.
func (c *Controller) finishLocked() {
	active, pending := c.active, c.pending
	c.active, c.pending = nil, nil
	c.album = nil
	c.index = 0
	c.status = Idle
	c.events.Publish(State{})
	if active != nil {
		active.Release()
	}
	if pending != nil {
		pending.Release()
	}
}

// deferRelease tears down a superseded source after a short, bounded
// grace period, so a failed replacement start does not leave silence.
func (c *Controller) deferRelease(src Source) {
	time.AfterFunc(c.releaseDelay, src.Release)
}

// publishProgress republishes the snapshot while the source is playing
// and its position moves. Ticks for a superseded source are dropped by
// identity check, not by cancellation.
func (c *Controller) publishProgress(src Source, gen uint64) {
	ticker := time.NewTicker(c.progressInterval)
	defer ticker.Stop()

	var last time.Duration
	for {
		select {
		case <-src.Done():
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		if gen != c.generation || src != c.active || c.album == nil {
			c.mu.Unlock()
			return
		}
		if c.status == Playing {
			if pos := src.Position(); pos != last {
				last = pos
				c.events.Publish(c.snapshotLocked())
			}
		}
		c.mu.Unlock()
	}
}

// armPrefetch waits until the active source is buffered enough to play
// uninterrupted, then loads the next track into the single lookahead
// slot. Prefetch failures are swallowed; the transition simply takes the
// cold path.
func (c *Controller) armPrefetch(src Source, gen uint64) {
	select {
	case <-src.Ready():
	case <-src.Done():
		return
	}

	c.mu.Lock()
	if gen != c.generation || src != c.active || c.album == nil {
		c.mu.Unlock()
		return
	}
	next := c.index + 1
	if next >= len(c.album.Tracks) {
		// Last track: nothing to look ahead to.
		c.mu.Unlock()
		return
	}
	if c.pending != nil {
		if c.pendingIdx == next {
			c.mu.Unlock()
			return
		}
		c.pending.Release()
		c.pending = nil
	}
	track := c.album.Tracks[next]
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.loadTimeout)
	loaded, err := c.loader.Load(ctx, track)
	cancel()
	if err != nil {
		c.log.Debug("prefetch failed", "track", track.Title, "err", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || src != c.active || c.album == nil || c.index+1 != next {
		loaded.Release()
		return
	}
	c.pending = loaded
	c.pendingIdx = next
	c.log.Debug("prefetched next track", "track", track.Title)
}
