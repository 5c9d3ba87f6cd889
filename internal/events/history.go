package events

import (
	"slices"

	"github.com/vovakirdan/nodewar/internal/world"
)

// DefaultHistorySize is used when NewHistory gets a non-positive size.
const DefaultHistorySize = 1000

// History is a bounded log of events, oldest first. Operations return a new
// History and never touch the receiver's slice.
type History struct {
	Events        []world.GameEvent
	MaxSize       int
	TotalRecorded int // Counts every event ever appended, pruned or not
}

// NewHistory creates an empty history holding at most maxSize events.
func NewHistory(maxSize int) History {
	if maxSize <= 0 {
		maxSize = DefaultHistorySize
	}
	return History{MaxSize: maxSize}
}

// Append records one event.
func (h History) Append(e world.GameEvent) History {
	return h.AppendMany([]world.GameEvent{e})
}

// AppendMany records events in order, pruning the oldest on overflow.
func (h History) AppendMany(evts []world.GameEvent) History {
	if len(evts) == 0 {
		return h
	}
	out := make([]world.GameEvent, 0, len(h.Events)+len(evts))
	out = append(out, h.Events...)
	out = append(out, evts...)
	h.Events = prune(out, h.limit())
	h.TotalRecorded += len(evts)
	return h
}

// InRange returns events whose tick lies in [from, to].
func (h History) InRange(from, to uint64) []world.GameEvent {
	var out []world.GameEvent
	for _, e := range h.Events {
		if e.Tick >= from && e.Tick <= to {
			out = append(out, e)
		}
	}
	return out
}

// ForEntity returns events about entityID.
func (h History) ForEntity(entityID string) []world.GameEvent {
	var out []world.GameEvent
	for _, e := range h.Events {
		if e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out
}

// Recent returns the newest n events, oldest first.
func (h History) Recent(n int) []world.GameEvent {
	if n <= 0 {
		return nil
	}
	start := max(len(h.Events)-n, 0)
	return slices.Clone(h.Events[start:])
}

// Clear drops every stored event. TotalRecorded is kept.
func (h History) Clear() History {
	h.Events = nil
	return h
}

// Resize changes the capacity, pruning the oldest events if needed.
func (h History) Resize(maxSize int) History {
	if maxSize <= 0 {
		maxSize = DefaultHistorySize
	}
	h.MaxSize = maxSize
	h.Events = prune(slices.Clone(h.Events), maxSize)
	return h
}

// Len returns the number of stored events.
func (h History) Len() int {
	return len(h.Events)
}

func (h History) limit() int {
	if h.MaxSize <= 0 {
		return DefaultHistorySize
	}
	return h.MaxSize
}

func prune(evts []world.GameEvent, limit int) []world.GameEvent {
	if len(evts) <= limit {
		return evts
	}
	return evts[len(evts)-limit:]
}
