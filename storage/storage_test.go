package storage

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisKV(t *testing.T, origin string) (*RedisKV, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisKV(rdb, "vs", origin), mr, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func TestMemoryKVBasics(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	if _, ok, err := kv.Get(ctx, "token"); ok || err != nil {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, "token", "abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, _ := kv.Get(ctx, "token"); !ok || v != "abc" {
		t.Fatalf("unexpected get %q %v", v, ok)
	}
	if err := kv.Delete(ctx, "token", "missing"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := kv.Delete(ctx, "token"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	_ = kv.Set(ctx, "a", "1")
	_ = kv.Set(ctx, "b", "2")
	if err := kv.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if kv.Len() != 0 {
		t.Fatalf("expected empty store, got %d keys", kv.Len())
	}
}

func TestMemoryBackendSharedAcrossTabs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	backend := NewMemoryBackend()
	tabA := backend.Tab("tab-a")
	tabB := backend.Tab("tab-b")

	changes, err := tabB.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := tabA.Set(ctx, "roles", `["Vet"]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, _ := tabB.Get(ctx, "roles"); !ok || v != `["Vet"]` {
		t.Fatalf("tab b did not observe write: %q %v", v, ok)
	}

	select {
	case change := <-changes:
		if change.Key != "roles" || change.Origin != "tab-a" {
			t.Fatalf("unexpected change %+v", change)
		}
	case <-time.After(time.Second):
		t.Fatal("no change delivered")
	}

	cancel()
	select {
	case _, ok := <-changes:
		if ok {
			t.Fatal("expected closed channel after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("watch channel not closed")
	}
}

func TestRedisKVRoundTripAndClear(t *testing.T) {
	kv, _, done := newRedisKV(t, "tab-1")
	defer done()
	ctx := context.Background()

	if err := kv.Set(ctx, "token", "abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, err := kv.Get(ctx, "token"); err != nil || !ok || v != "abc" {
		t.Fatalf("get: %q %v %v", v, ok, err)
	}
	if err := kv.Delete(ctx, "token", "never-set"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "token"); ok {
		t.Fatal("expected token deleted")
	}

	_ = kv.Set(ctx, "a", "1")
	_ = kv.Set(ctx, "b", "2")
	if err := kv.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	for _, k := range []string{"a", "b"} {
		if _, ok, _ := kv.Get(ctx, k); ok {
			t.Fatalf("expected %s cleared", k)
		}
	}
}

func TestRedisKVUnavailable(t *testing.T) {
	kv, mr, done := newRedisKV(t, "tab-1")
	defer done()
	mr.Close()

	if _, _, err := kv.Get(context.Background(), "token"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := kv.Set(context.Background(), "token", "x"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestRedisKVWatchPublishesOrigin(t *testing.T) {
	writer, mr, done := newRedisKV(t, "tab-writer")
	defer done()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	reader := NewRedisKV(rdb, "vs", "tab-reader")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := reader.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := writer.Set(context.Background(), "notifications", "1"); err != nil {
		t.Fatalf("set: %v", err)
	}

	select {
	case change := <-changes:
		if change.Key != "notifications" || change.Origin != "tab-writer" {
			t.Fatalf("unexpected change %+v", change)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change delivered")
	}
}

func TestMemoryCookiesAttributeScopedDeletion(t *testing.T) {
	ctx := context.Background()
	jar := NewMemoryCookies(false)

	if err := jar.SetCookie(ctx, &http.Cookie{Name: "roles", Value: "a", Path: "/", Domain: "clinic.test"}); err != nil {
		t.Fatalf("set domain cookie: %v", err)
	}
	if err := jar.SetCookie(ctx, &http.Cookie{Name: "roles", Value: "b", Path: "/"}); err != nil {
		t.Fatalf("set host cookie: %v", err)
	}
	if jar.Len() != 2 {
		t.Fatalf("expected two scoped entries, got %d", jar.Len())
	}

	_ = jar.SetCookie(ctx, &http.Cookie{Name: "roles", Path: "/", MaxAge: -1})
	if jar.Len() != 1 {
		t.Fatalf("host-only delete must leave domain cookie, got %d", jar.Len())
	}

	_ = jar.SetCookie(ctx, &http.Cookie{Name: "roles", Path: "/", Domain: ".clinic.test", Expires: time.Unix(0, 0)})
	if jar.Len() != 0 {
		t.Fatalf("expected all cookies gone, got %d", jar.Len())
	}
}

func TestMemoryCookiesRejectSecureOnInsecureContext(t *testing.T) {
	jar := NewMemoryCookies(false)
	err := jar.SetCookie(context.Background(), &http.Cookie{Name: "roles", Value: "x", Secure: true})
	if !errors.Is(err, ErrInsecureCookie) {
		t.Fatalf("expected ErrInsecureCookie, got %v", err)
	}
}

func TestMemoryCookiesMaxAgeExpiry(t *testing.T) {
	jar := NewMemoryCookies(true)
	now := time.Unix(1_700_000_000, 0)
	jar.now = func() time.Time { return now }

	_ = jar.SetCookie(context.Background(), &http.Cookie{Name: "roles", Value: "x", MaxAge: 60})
	if _, ok := jar.Value("roles"); !ok {
		t.Fatal("expected live cookie")
	}
	now = now.Add(61 * time.Second)
	if _, ok := jar.Value("roles"); ok {
		t.Fatal("expected cookie to lapse after max-age")
	}
}

func TestDirDatabasesDelete(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "petsCache", "v1"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	dbs := DirDatabases{Root: root}

	if err := dbs.DeleteDatabase(context.Background(), "petsCache"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "petsCache")); !os.IsNotExist(err) {
		t.Fatalf("expected database removed, stat err=%v", err)
	}
	if err := dbs.DeleteDatabase(context.Background(), "petsCache"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if err := dbs.DeleteDatabase(context.Background(), "../escape"); err == nil {
		t.Fatal("expected traversal name to be rejected")
	}
}
