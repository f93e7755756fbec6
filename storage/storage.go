package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrUnavailable wraps backend failures (quota, restricted context, network).
var ErrUnavailable = errors.New("storage unavailable")

// KV is a string key-value store. Missing keys are reported through the bool result, never
// as errors, and deleting a missing key succeeds.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Ephemeral is a per-tab store that can be wiped wholesale.
type Ephemeral interface {
	KV
	Clear(ctx context.Context) error
}

// Change describes a write observed on a shared store.
type Change struct {
	Key     string `json:"key"`
	Origin  string `json:"origin"`
	Deleted bool   `json:"deleted,omitempty"`
}

// Watcher delivers changes made to a shared store, including those made by other tabs.
//
// The returned channel is closed once ctx is done. Delivery is best-effort: a slow reader
// may miss changes, which is acceptable because every change only triggers a refresh.
type Watcher interface {
	Watch(ctx context.Context) (<-chan Change, error)
}

// Databases deletes named embedded client-side databases.
type Databases interface {
	DeleteDatabase(ctx context.Context, name string) error
}

// NewTabID returns a fresh identifier for a tab, used as the origin of store changes.
func NewTabID() string {
	return uuid.NewString()
}
