package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/okian/devbasics/pkg/metrics"
)

// MemoryStore is an in-process Store. Contents are lost on exit.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrInvalidKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.slots[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	s.mu.Lock()
	s.slots[key] = append([]byte(nil), value...)
	s.mu.Unlock()
	metrics.RecordSlotWrite("set", "ok")
	return nil
}

// Remove implements Store.
func (s *MemoryStore) Remove(_ context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	s.mu.Lock()
	delete(s.slots, key)
	s.mu.Unlock()
	metrics.RecordSlotWrite("remove", "ok")
	return nil
}

var _ Store = (*MemoryStore)(nil)
