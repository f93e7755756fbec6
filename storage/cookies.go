package storage

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrInsecureCookie is returned when a Secure cookie is written from an insecure context.
var ErrInsecureCookie = errors.New("secure cookie rejected on insecure transport")

// CookieStore is the secondary, cookie-like store.
//
// Cookies returns only name and value for each visible cookie, the same view a page script
// gets: the attributes a cookie was written with are not recoverable at delete time.
type CookieStore interface {
	SetCookie(ctx context.Context, c *http.Cookie) error
	Cookies(ctx context.Context) ([]*http.Cookie, error)
}

type cookieKey struct {
	name   string
	domain string
	path   string
}

type cookieEntry struct {
	value   string
	expires time.Time
}

// MemoryCookies emulates a browser cookie jar for a single origin. Entries are keyed by
// (name, domain, path), so an expiring write only removes the entry it exactly addresses.
type MemoryCookies struct {
	mu      sync.Mutex
	secure  bool
	entries map[cookieKey]cookieEntry
	now     func() time.Time
}

// NewMemoryCookies returns an empty jar. secure reports whether the page was served over a
// secure transport; insecure jars reject Secure cookies.
func NewMemoryCookies(secure bool) *MemoryCookies {
	return &MemoryCookies{
		secure:  secure,
		entries: make(map[cookieKey]cookieEntry),
		now:     time.Now,
	}
}

func (j *MemoryCookies) SetCookie(_ context.Context, c *http.Cookie) error {
	if c == nil || c.Name == "" {
		return errors.New("cookie name empty")
	}
	if c.Secure && !j.secure {
		return ErrInsecureCookie
	}

	key := cookieKey{
		name:   c.Name,
		domain: strings.TrimPrefix(strings.ToLower(c.Domain), "."),
		path:   c.Path,
	}
	if key.path == "" {
		key.path = "/"
	}

	now := j.now()

	j.mu.Lock()
	defer j.mu.Unlock()

	if c.MaxAge < 0 || (!c.Expires.IsZero() && !c.Expires.After(now)) {
		delete(j.entries, key)
		return nil
	}

	entry := cookieEntry{value: c.Value}
	switch {
	case c.MaxAge > 0:
		entry.expires = now.Add(time.Duration(c.MaxAge) * time.Second)
	case !c.Expires.IsZero():
		entry.expires = c.Expires
	}
	j.entries[key] = entry
	return nil
}

func (j *MemoryCookies) Cookies(_ context.Context) ([]*http.Cookie, error) {
	now := j.now()

	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]*http.Cookie, 0, len(j.entries))
	for key, entry := range j.entries {
		if !entry.expires.IsZero() && !entry.expires.After(now) {
			delete(j.entries, key)
			continue
		}
		out = append(out, &http.Cookie{Name: key.name, Value: entry.value})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out, nil
}

// Len returns the number of live entries, counting each (name, domain, path) separately.
func (j *MemoryCookies) Len() int {
	cookies, _ := j.Cookies(context.Background())
	return len(cookies)
}

// Value returns the first live value stored under name.
func (j *MemoryCookies) Value(name string) (string, bool) {
	cookies, _ := j.Cookies(context.Background())
	for _, c := range cookies {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}
