package playback

import "sync"

// Observer receives playback state snapshots. Callbacks run synchronously
// on the publishing goroutine, in subscription order; they must return
// promptly and must not call back into the Broadcaster or the Controller
// from within the callback.
type Observer interface {
	PlaybackChanged(State)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(State)

// PlaybackChanged implements Observer.
func (f ObserverFunc) PlaybackChanged(s State) { f(s) }

// Subscription is the handle returned by Subscribe. Cancel stops delivery
// and is safe to call more than once.
type Subscription struct {
	b    *Broadcaster
	once sync.Once
	id   uint64
}

// Cancel removes the observer from the broadcaster.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.b.remove(s.id)
	})
}

type registration struct {
	id       uint64
	observer Observer
}

// Broadcaster holds the latest State and delivers every update to all
// registered observers, synchronously and in subscription order.
type Broadcaster struct {
	mu        sync.Mutex
	state     State
	observers []registration
	nextID    uint64
}

// NewBroadcaster creates a broadcaster holding the zero (idle) state.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registers an observer and immediately delivers the current
// snapshot to it, so late subscribers are never out of sync.
func (b *Broadcaster) Subscribe(o Observer) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.observers = append(b.observers, registration{id: id, observer: o})
	o.PlaybackChanged(b.state.clone())
	return &Subscription{b: b, id: id}
}

func (b *Broadcaster) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, reg := range b.observers {
		if reg.id == id {
			b.observers = append(b.observers[:i], b.observers[i+1:]...)
			return
		}
	}
}

// State returns a copy of the latest published snapshot.
func (b *Broadcaster) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.clone()
}

// Publish stores the snapshot and notifies every observer with its own
// copy. Delivery is serialized: a publish completes before the next one
// starts, so observers see a monotonic sequence of snapshots.
func (b *Broadcaster) Publish(s State) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = s
	for _, reg := range b.observers {
		reg.observer.PlaybackChanged(s.clone())
	}
}
