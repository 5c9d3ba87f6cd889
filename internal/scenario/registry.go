package scenario

import (
	"embed"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknown is returned by Create for ids that were never registered.
var ErrUnknown = errors.New("scenario: unknown scenario")

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Info contains metadata about a registered scenario.
type Info struct {
	ID          string
	Name        string
	Description string
}

// Factory creates a fresh instance of a scenario.
type Factory func() (*Scenario, error)

var (
	factories = make(map[string]Factory)
	infos     = make(map[string]Info)
	mu        sync.RWMutex
)

func init() {
	Register("diamond", Builtin("builtin/diamond.yaml"))
	Register("frontier", Builtin("builtin/frontier.yaml"))
}

// Builtin returns a factory that parses an embedded scenario file.
func Builtin(name string) Factory {
	return func() (*Scenario, error) {
		data, err := builtinFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("scenario: cannot read builtin %s: %w", name, err)
		}
		return Parse(data)
	}
}

// Register adds a scenario factory to the catalogue.
// Panics if the id is taken or the factory cannot build its scenario.
func Register(id string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("scenario: %q already registered", id))
	}

	// Build once to validate the factory and capture its metadata
	s, err := f()
	if err != nil {
		panic(fmt.Sprintf("scenario: %q does not build: %v", id, err))
	}

	factories[id] = f
	infos[id] = Info{ID: id, Name: s.Name, Description: s.Description}
}

// List returns information about all registered scenarios, sorted by ID.
func List() []Info {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]Info, 0, len(infos))
	for _, info := range infos {
		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create builds a new instance of a registered scenario.
func Create(id string) (*Scenario, error) {
	mu.RLock()
	f, ok := factories[id]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknown, id)
	}
	return f()
}

// Exists checks if a scenario with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}

// Resolve treats ref as a registered id first and a file path second.
func Resolve(ref string) (*Scenario, error) {
	if Exists(ref) {
		return Create(ref)
	}
	return Load(ref)
}
