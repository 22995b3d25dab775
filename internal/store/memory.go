package store

import (
	"context"
	"sync"

	"github.com/serroba/shortlink/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
type MemoryStore struct {
	mu       sync.RWMutex
	mappings map[shortener.Code]shortener.Mapping
}

// NewMemoryStore creates a new in-memory mapping store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mappings: make(map[shortener.Code]shortener.Mapping),
	}
}

func (m *MemoryStore) TryClaim(_ context.Context, mapping shortener.Mapping) (shortener.Mapping, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.mappings[mapping.Code()]; taken {
		return shortener.Mapping{}, false, nil
	}

	m.mappings[mapping.Code()] = mapping

	return mapping, true, nil
}

func (m *MemoryStore) Lookup(_ context.Context, code shortener.Code) (shortener.Mapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mapping, ok := m.mappings[code]
	if !ok {
		return shortener.Mapping{}, shortener.ErrNotFound
	}

	return mapping, nil
}

// Len returns the number of stored mappings.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.mappings)
}

// Compile-time check.
var _ shortener.Repository = (*MemoryStore)(nil)
