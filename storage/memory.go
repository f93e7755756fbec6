package storage

import (
	"context"
	"sync"
)

const watchBuffer = 16

// MemoryBackend is an in-process store shared by any number of tab views.
type MemoryBackend struct {
	mu       sync.RWMutex
	data     map[string]string
	watchers map[chan Change]struct{}
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data:     make(map[string]string),
		watchers: make(map[chan Change]struct{}),
	}
}

// Tab returns a view of the backend whose writes are attributed to origin.
func (b *MemoryBackend) Tab(origin string) *MemoryKV {
	return &MemoryKV{backend: b, origin: origin}
}

func (b *MemoryBackend) publish(change Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.watchers {
		select {
		case ch <- change:
		default:
		}
	}
}

// MemoryKV is a tab-scoped view of a [MemoryBackend].
type MemoryKV struct {
	backend *MemoryBackend
	origin  string
}

// NewMemoryKV returns a store backed by its own private backend, suitable as a per-tab
// ephemeral store.
func NewMemoryKV() *MemoryKV {
	return NewMemoryBackend().Tab(NewTabID())
}

// Origin returns the tab identifier stamped on changes made through this view.
func (m *MemoryKV) Origin() string {
	return m.origin
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.backend.mu.RLock()
	defer m.backend.mu.RUnlock()
	v, ok := m.backend.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.backend.mu.Lock()
	m.backend.data[key] = value
	m.backend.mu.Unlock()

	m.backend.publish(Change{Key: key, Origin: m.origin})
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, keys ...string) error {
	removed := make([]string, 0, len(keys))

	m.backend.mu.Lock()
	for _, key := range keys {
		if _, ok := m.backend.data[key]; ok {
			delete(m.backend.data, key)
			removed = append(removed, key)
		}
	}
	m.backend.mu.Unlock()

	for _, key := range removed {
		m.backend.publish(Change{Key: key, Origin: m.origin, Deleted: true})
	}
	return nil
}

// Clear removes every key in the backend.
func (m *MemoryKV) Clear(ctx context.Context) error {
	return m.Delete(ctx, m.Keys()...)
}

// Keys returns the keys currently present.
func (m *MemoryKV) Keys() []string {
	m.backend.mu.RLock()
	defer m.backend.mu.RUnlock()
	keys := make([]string, 0, len(m.backend.data))
	for k := range m.backend.data {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of keys present.
func (m *MemoryKV) Len() int {
	m.backend.mu.RLock()
	defer m.backend.mu.RUnlock()
	return len(m.backend.data)
}

func (m *MemoryKV) Watch(ctx context.Context) (<-chan Change, error) {
	ch := make(chan Change, watchBuffer)

	m.backend.mu.Lock()
	m.backend.watchers[ch] = struct{}{}
	m.backend.mu.Unlock()

	context.AfterFunc(ctx, func() {
		m.backend.mu.Lock()
		delete(m.backend.watchers, ch)
		m.backend.mu.Unlock()
		close(ch)
	})

	return ch, nil
}
