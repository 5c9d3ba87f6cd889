// Package events drains a tick's events through registered handlers,
// following chain reactions breadth-first under two circuit breakers, and
// keeps a bounded history of what happened.
package events

import (
	"github.com/vovakirdan/nodewar/internal/world"
)

const (
	DefaultMaxEventDepth    = 10
	DefaultMaxEventsPerTick = 1000
)

// Config bounds a single drain. Zero fields fall back to the defaults.
type Config struct {
	MaxEventDepth    int
	MaxEventsPerTick int
}

// DefaultConfig returns the standard breaker limits.
func DefaultConfig() Config {
	return Config{
		MaxEventDepth:    DefaultMaxEventDepth,
		MaxEventsPerTick: DefaultMaxEventsPerTick,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxEventDepth <= 0 {
		c.MaxEventDepth = DefaultMaxEventDepth
	}
	if c.MaxEventsPerTick <= 0 {
		c.MaxEventsPerTick = DefaultMaxEventsPerTick
	}
	return c
}

// DropReason says which breaker discarded an event.
type DropReason string

const (
	DropDepth DropReason = "depth"
	DropCount DropReason = "count"
)

// Dropped is an event the breakers refused to run.
type Dropped struct {
	Event  world.GameEvent
	Depth  int
	Reason DropReason
}

// Stats summarizes a drain.
type Stats struct {
	TotalProcessed  int
	TotalDropped    int
	DeepestDepth    int // Largest depth that was actually processed
	MaxDepthReached bool
	MaxCountReached bool
}

// Result is the outcome of ProcessEventQueue.
type Result struct {
	World     *world.World
	Processed []world.GameEvent // In processing order
	Dropped   []Dropped
	Stats     Stats
}

// queued is one worklist slot.
type queued struct {
	event world.GameEvent
	depth int
}

// ProcessEventQueue runs evts through the registry in strict FIFO order.
//
// The worklist is a flat slice walked by index. Events returned by a handler
// get their parent's depth plus one and go to the tail, so every sibling runs
// before any child. An event at depth >= MaxEventDepth is dropped without
// calling its handler. Once MaxEventsPerTick events have been processed every
// remaining event is dropped. Types with no handler count as processed and
// change nothing.
func ProcessEventQueue(w *world.World, evts []world.GameEvent, reg *Registry, cfg Config) Result {
	cfg = cfg.withDefaults()
	res := Result{World: w}

	work := make([]queued, 0, len(evts))
	for _, e := range evts {
		work = append(work, queued{event: e})
	}

	for head := 0; head < len(work); head++ {
		item := work[head]

		if res.Stats.TotalProcessed >= cfg.MaxEventsPerTick {
			res.Stats.MaxCountReached = true
			for _, rest := range work[head:] {
				res.Dropped = append(res.Dropped, Dropped{Event: rest.event, Depth: rest.depth, Reason: DropCount})
			}
			break
		}
		if item.depth >= cfg.MaxEventDepth {
			res.Stats.MaxDepthReached = true
			res.Dropped = append(res.Dropped, Dropped{Event: item.event, Depth: item.depth, Reason: DropDepth})
			continue
		}

		res.Processed = append(res.Processed, item.event)
		res.Stats.TotalProcessed++
		res.Stats.DeepestDepth = max(res.Stats.DeepestDepth, item.depth)

		h, ok := reg.Handler(item.event.Type)
		if !ok {
			continue
		}
		out := h(res.World, item.event)
		if out.World != nil {
			res.World = out.World
		}
		for _, child := range out.Events {
			work = append(work, queued{event: child, depth: item.depth + 1})
		}
	}

	res.Stats.TotalDropped = len(res.Dropped)
	return res
}
