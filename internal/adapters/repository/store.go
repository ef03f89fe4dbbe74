// Package repository provides the durable key/value slots the session
// store persists into.
package repository

import "context"

// Store provides read/write access to named slots. Each slot holds a single
// serialized value that is replaced atomically: readers see either the old or
// the new value, never a partial write.
type Store interface {
	// Get returns the slot content. Returns ErrNotFound if the slot is empty.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the slot content.
	Set(ctx context.Context, key string, value []byte) error

	// Remove clears the slot. Removing an empty slot is not an error.
	Remove(ctx context.Context, key string) error
}
