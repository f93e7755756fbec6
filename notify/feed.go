package notify

import (
	"slices"
	"sync"
)

// Feed holds the current notifications keyed by id, newest first. The unread count is
// always derived from the items, never stored.
type Feed struct {
	mu    sync.RWMutex
	items []Item
	index map[string]int
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{index: make(map[string]int)}
}

// Merge inserts new items and replaces existing ones by id, then re-sorts. A replaced item
// stays read once read, locally or by the incoming item. Items are never removed by a merge.
func (f *Feed) Merge(incoming []Item) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, item := range incoming {
		if item.ID == "" {
			continue
		}
		if pos, ok := f.index[item.ID]; ok {
			item.Read = item.Read || f.items[pos].Read
			f.items[pos] = item
			continue
		}
		f.index[item.ID] = len(f.items)
		f.items = append(f.items, item)
	}

	slices.SortStableFunc(f.items, func(a, b Item) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	for pos, item := range f.items {
		f.index[item.ID] = pos
	}
}

// Contains reports whether an item with id is in the feed.
func (f *Feed) Contains(id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.index[id]
	return ok
}

// Items returns a copy of the feed in display order.
func (f *Feed) Items() []Item {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.items)
}

// Len returns the number of items.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}

// UnreadCount returns the number of items not yet marked read.
func (f *Feed) UnreadCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := 0
	for _, item := range f.items {
		if !item.Read {
			n++
		}
	}
	return n
}

// MarkRead marks one item read. It reports whether the item exists.
func (f *Feed) MarkRead(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	pos, ok := f.index[id]
	if !ok {
		return false
	}
	f.items[pos].Read = true
	return true
}

// MarkAllRead marks every item read and returns how many changed.
func (f *Feed) MarkAllRead() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for i := range f.items {
		if !f.items[i].Read {
			f.items[i].Read = true
			n++
		}
	}
	return n
}
