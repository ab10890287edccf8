package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryBackend implements Backend using an in-memory map.
// This implementation is intended for testing only.
type MemoryBackend struct {
	objects map[string]time.Time
	deleted []string
	mu      sync.RWMutex
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		objects: make(map[string]time.Time),
	}
}

// Put stores an object. A zero created time simulates missing metadata.
func (m *MemoryBackend) Put(name string, created time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[name] = created
}

// Name implements Backend.
func (m *MemoryBackend) Name() string {
	return "memory"
}

// List implements Backend. Objects are returned sorted by name.
func (m *MemoryBackend) List(ctx context.Context, prefix string) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var objects []Object
	for name, created := range m.objects {
		if strings.HasPrefix(name, prefix) {
			objects = append(objects, Object{Name: name, Created: created})
		}
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Name < objects[j].Name
	})

	return objects, nil
}

// Ping implements Backend.
func (m *MemoryBackend) Ping(ctx context.Context) error {
	return ctx.Err()
}

// DeletePrefix implements Backend.
func (m *MemoryBackend) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for name := range m.objects {
		if strings.HasPrefix(name, prefix) {
			delete(m.objects, name)
			count++
		}
	}
	m.deleted = append(m.deleted, prefix)

	return count, nil
}

// Len returns the number of stored objects.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.objects)
}

// DeletedPrefixes returns the prefixes passed to DeletePrefix, in call order.
func (m *MemoryBackend) DeletedPrefixes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]string(nil), m.deleted...)
}
