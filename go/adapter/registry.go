package adapter

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownAdapter is returned by Get for names that were never registered.
var ErrUnknownAdapter = errors.New("unknown adapter")

// The process-wide adapter registry. Registrations happen at process start;
// thereafter the registry is read-only and never evicted.
var registry = struct {
	mu sync.RWMutex
	m  map[string]Adapter
}{m: make(map[string]Adapter)}

// Register adds an adapter under its Name. Registering the same name twice
// panics, as it means two adapter packages collide.
func Register(a Adapter) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, ok := registry.m[a.Name()]; ok {
		panic(fmt.Sprintf("adapter %q registered twice", a.Name()))
	}
	registry.m[a.Name()] = a
}

// Get resolves a registered adapter by name.
func Get(name string) (Adapter, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	var a, ok = registry.m[name]
	if !ok {
		return nil, fmt.Errorf("adapter %q: %w", name, ErrUnknownAdapter)
	}
	return a, nil
}

// Names returns the registered adapter names, in no particular order.
func Names() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	var out []string
	for name := range registry.m {
		out = append(out, name)
	}
	return out
}
