package artifact

import (
	"sort"
	"sync"

	"github.com/hupe1980/agrimesh/internal/util"
)

// InMemoryStore is an in-process ArtifactStore. Data is copied on save and
// retrieval so callers cannot mutate stored buffers.
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string][]byte
}

// NewInMemoryStore returns an empty in-memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{artifacts: make(map[string][]byte)}
}

// Save stores (or overwrites) the artifact bytes under name.
func (a *InMemoryStore) Save(name string, data []byte) error {
	if !util.SafeFileName(name) {
		return ErrInvalidName
	}
	cp := make([]byte, len(data))
	copy(cp, data)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.artifacts[name] = cp
	return nil
}

// Get returns a copy of the stored artifact bytes or ErrNotFound.
func (a *InMemoryStore) Get(name string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.artifacts[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// List returns the stored names in lexical order.
func (a *InMemoryStore) List() ([]string, error) {
	a.mu.RLock()
	names := make([]string, 0, len(a.artifacts))
	for name := range a.artifacts {
		names = append(names, name)
	}
	a.mu.RUnlock()
	sort.Strings(names)
	return names, nil
}

// Delete removes the artifact if present or returns ErrNotFound.
func (a *InMemoryStore) Delete(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.artifacts[name]; !ok {
		return ErrNotFound
	}
	delete(a.artifacts, name)
	return nil
}
