package memory

import (
	"context"
	"sync"

	"github.com/yemen-sarraf/sarraf/storage"
)

// Storage is an in-memory hierarchical store, used for tests and dry runs
type Storage struct {
	leaves map[string]any

	mu sync.RWMutex
}

func NewStorage() *Storage {
	return &Storage{
		leaves: make(map[string]any),
	}
}

func (s *Storage) Get(_ context.Context, path string, out any) error {
	s.mu.RLock()

	snapshot := make(map[string]any, len(s.leaves))
	for k, v := range s.leaves {
		snapshot[k] = v
	}

	s.mu.RUnlock()

	return storage.Assemble(snapshot, path, out)
}

func (s *Storage) Update(_ context.Context, updates map[string]any) error {
	flat := storage.Leaves(updates)

	s.mu.Lock()

	for path, value := range flat {
		s.leaves[path] = value
	}

	s.mu.Unlock()

	return nil
}
