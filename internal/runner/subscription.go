package runner

import (
	"sync"

	"github.com/vovakirdan/nodewar/internal/world"
)

// Frame is what subscribers see after every tick.
type Frame struct {
	Tick    uint64 // The tick that was just simulated
	World   *world.World
	Events  []world.GameEvent
	Digest  string
	Paused  bool
	Dropped int // Events cut by the breakers this tick
}

// Subscription receives frames from a runner.
type Subscription struct {
	id       int
	frames   chan Frame
	done     chan struct{}
	doneOnce sync.Once
}

func newSubscription(id, bufferSize int) *Subscription {
	if bufferSize < 1 {
		bufferSize = 16
	}
	return &Subscription{
		id:     id,
		frames: make(chan Frame, bufferSize),
		done:   make(chan struct{}),
	}
}

// send never blocks. When the buffer is full the oldest frame is dropped.
func (s *Subscription) send(f Frame) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.frames <- f:
	default:
		select {
		case <-s.frames:
		default:
		}
		select {
		case s.frames <- f:
		default:
		}
	}
}

// Frames returns the channel frames arrive on.
func (s *Subscription) Frames() <-chan Frame {
	return s.frames
}

// Done closes once the subscription has been closed.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close stops delivery. Safe to call multiple times.
func (s *Subscription) Close() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

func (s *Subscription) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// subscribers tracks live subscriptions.
type subscribers struct {
	mu   sync.Mutex
	next int
	subs map[int]*Subscription
}

func (r *subscribers) add(bufferSize int) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subs == nil {
		r.subs = make(map[int]*Subscription)
	}
	r.next++
	s := newSubscription(r.next, bufferSize)
	r.subs[s.id] = s
	return s
}

func (r *subscribers) broadcast(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.subs {
		if s.closed() {
			delete(r.subs, id)
			continue
		}
		s.send(f)
	}
}

func (r *subscribers) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.subs {
		if !s.closed() {
			n++
		}
	}
	return n
}

func (r *subscribers) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.subs {
		s.Close()
		delete(r.subs, id)
	}
}
