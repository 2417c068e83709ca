package significance

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrUnknownHandler is returned when a handler name is not registered.
var ErrUnknownHandler = errors.New("unknown significance handler")

// Built-in handler names.
const (
	NameDistance = "distance"
	NameAge      = "age"
)

// Registry maps handler names used in effect type configuration to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates registry with the built-in distance and age handlers.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	r.Register(NameDistance, Distance{})
	r.Register(NameAge, Age{})
	return r
}

// Register adds or replaces a handler. Names are case-insensitive.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[strings.ToLower(strings.TrimSpace(name))] = h
}

// Lookup returns handler by name.
// Empty name returns nil, nil: the effect type does not rank.
func (r *Registry) Lookup(name string) (Handler, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHandler, name)
	}
	return h, nil
}

// Has reports whether name resolves (empty name always resolves).
func (r *Registry) Has(name string) bool {
	_, err := r.Lookup(name)
	return err == nil
}

// Names returns registered handler names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
