package events

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/vovakirdan/nodewar/internal/world"
)

// ErrDuplicateHandler is returned when a type already has a handler.
var ErrDuplicateHandler = errors.New("events: handler already registered")

// HandlerResult is what a handler hands back: the world after reacting to
// the event and any follow-up events. A nil World keeps the current one.
type HandlerResult struct {
	World  *world.World
	Events []world.GameEvent
}

// Handler reacts to one event. Handlers must be pure.
type Handler func(w *world.World, e world.GameEvent) HandlerResult

// Registry maps event types to handlers. Each simulation (or test) builds its
// own; there is no package-level registry.
type Registry struct {
	handlers map[world.EventType]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[world.EventType]Handler)}
}

// Register adds a handler for t.
func (r *Registry) Register(t world.EventType, h Handler) error {
	if h == nil {
		return fmt.Errorf("events: nil handler for %s", t)
	}
	if _, exists := r.handlers[t]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, t)
	}
	r.handlers[t] = h
	return nil
}

// MustRegister is Register for static wiring. It panics on error.
func (r *Registry) MustRegister(t world.EventType, h Handler) *Registry {
	if err := r.Register(t, h); err != nil {
		panic(err)
	}
	return r
}

// Handler returns the handler for t. A nil registry has no handlers.
func (r *Registry) Handler(t world.EventType) (Handler, bool) {
	if r == nil {
		return nil, false
	}
	h, ok := r.handlers[t]
	return h, ok
}

// Types returns the registered event types in sorted order.
func (r *Registry) Types() []world.EventType {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.handlers))
}
