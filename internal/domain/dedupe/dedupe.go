// Package dedupe defines the interface for idempotency tracking.
package dedupe

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultWindow = 1024

// Deduper records seen IDs so the same broadcast is delivered at most once.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id, allowing it to be delivered again. Used when a
	// recorded event could not be handed to any subscriber.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// windowDeduper keeps the most recent IDs in an LRU. Older IDs fall out of
// the window and are treated as new.
type windowDeduper struct {
	mu     sync.Mutex
	window int
	seen   *lru.Cache[string, struct{}]
}

// NewInMemoryDeduper creates a bounded deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &windowDeduper{window: defaultWindow}
	for _, opt := range opts {
		opt(d)
	}
	// lru.New only fails for a non-positive size, which options rule out.
	d.seen, _ = lru.New[string, struct{}](d.window)
	return d
}

// SeenAndRecord implements Deduper.
func (d *windowDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen.Contains(id) {
		return true
	}
	d.seen.Add(id, struct{}{})
	return false
}

// Unrecord implements Deduper.
func (d *windowDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen.Remove(id)
}

// Size returns the number of IDs currently in the window.
func (d *windowDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.seen.Len())
}
