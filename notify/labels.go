package notify

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LabelCache memoizes party labels in front of a [PartyResolver]. Only successful lookups
// are cached, so a failing party is retried on the next refresh.
//
// Invalidate starts a new generation: a lookup that began before it does not write its
// result back, so labels from a previous session never reappear after logout.
type LabelCache struct {
	resolver PartyResolver
	cache    *expirable.LRU[string, string]

	mu         sync.Mutex
	generation uint64
}

// NewLabelCache wraps resolver with an LRU of size entries, each kept for ttl.
func NewLabelCache(resolver PartyResolver, size int, ttl time.Duration) *LabelCache {
	if size <= 0 {
		size = 256
	}
	return &LabelCache{
		resolver: resolver,
		cache:    expirable.NewLRU[string, string](size, nil, ttl),
	}
}

func (c *LabelCache) ResolveParty(ctx context.Context, partyID string) (string, error) {
	if label, ok := c.cache.Get(partyID); ok {
		return label, nil
	}
	gen := c.currentGeneration()
	label, err := c.resolver.ResolveParty(ctx, partyID)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	if c.generation == gen {
		c.cache.Add(partyID, label)
	}
	c.mu.Unlock()
	return label, nil
}

func (c *LabelCache) currentGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Invalidate drops every cached label. Logout calls it so the next user sees fresh names.
func (c *LabelCache) Invalidate(context.Context) error {
	c.mu.Lock()
	c.generation++
	c.cache.Purge()
	c.mu.Unlock()
	return nil
}

// Len returns the number of cached labels.
func (c *LabelCache) Len() int {
	return c.cache.Len()
}
