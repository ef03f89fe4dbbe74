// Package hatch is a process-wide registry of well-known functions.
//
// It lets code that holds no reference to a component reach one of its
// operations by name. Each installation is owned: uninstalling only removes
// the entry if nobody replaced it in the meantime.
package hatch

import (
	"errors"
	"strings"
	"sync"
)

// AuthName is the name under which the session store exposes its
// open-auth-overlay operation.
const AuthName = "devbasicsAuth"

// Sentinel errors.
var (
	ErrNotInstalled = errors.New("hatch not installed")
	ErrEmptyName    = errors.New("empty hatch name")
)

// Func is an installed operation. The argument is an optional mode.
type Func func(mode string)

type entry struct {
	token uint64
	fn    Func
}

// Registry holds installed functions. The zero value is not usable; use
// NewRegistry or Default.
type Registry struct {
	mu      sync.RWMutex
	next    uint64
	entries map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

var defaultRegistry = NewRegistry() //nolint:gochecknoglobals // process-wide registry

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Install publishes fn under name, replacing any previous owner. The returned
// function removes the entry if it is still the one installed here.
func (r *Registry) Install(name string, fn Func) (func(), error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if fn == nil {
		return nil, errors.New("hatch: nil function")
	}

	r.mu.Lock()
	r.next++
	token := r.next
	r.entries[name] = entry{token: token, fn: fn}
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if cur, ok := r.entries[name]; ok && cur.token == token {
				delete(r.entries, name)
			}
		})
	}, nil
}

// Call invokes the function installed under name.
func (r *Registry) Call(name, mode string) error {
	r.mu.RLock()
	e, ok := r.entries[strings.TrimSpace(name)]
	r.mu.RUnlock()
	if !ok {
		return ErrNotInstalled
	}
	e.fn(mode)
	return nil
}

// Installed reports whether name currently has an owner.
func (r *Registry) Installed(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[strings.TrimSpace(name)]
	return ok
}
