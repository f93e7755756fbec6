package navigation

import (
	"context"
	"sync"
)

// History is the tab's navigation stack.
type History interface {
	// Replace overwrites the current entry with path.
	Replace(ctx context.Context, path string) error
	// Push appends path after the current entry, discarding any forward entries.
	Push(ctx context.Context, path string) error
}

// MemoryHistory is an in-process [History] with browser back/forward semantics.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []string
	index   int
}

// NewMemoryHistory returns a history whose entries are initial, positioned at the last one.
func NewMemoryHistory(initial ...string) *MemoryHistory {
	h := &MemoryHistory{entries: append([]string(nil), initial...)}
	if len(h.entries) == 0 {
		h.entries = []string{"/"}
	}
	h.index = len(h.entries) - 1
	return h
}

func (h *MemoryHistory) Replace(_ context.Context, path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.index] = path
	return nil
}

func (h *MemoryHistory) Push(_ context.Context, path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], path)
	h.index = len(h.entries) - 1
	return nil
}

// Current returns the entry the tab is showing.
func (h *MemoryHistory) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index]
}

// Back moves one entry back and returns it. At the first entry it stays put.
func (h *MemoryHistory) Back() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index > 0 {
		h.index--
	}
	return h.entries[h.index]
}

// Entries returns a copy of the whole stack.
func (h *MemoryHistory) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}
