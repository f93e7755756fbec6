package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/MrEthical07/vetsession/jwt"
	"github.com/MrEthical07/vetsession/storage"
)

// ErrSessionExpired is the unauthenticated reason for a credential past its expiry.
var ErrSessionExpired = errors.New("session expired")

// ErrEmptyRoleSet is the unauthenticated reason for a credential carrying no roles.
var ErrEmptyRoleSet = errors.New("session holds no roles")

// ErrStorageRead is the unauthenticated reason when the primary store could not be read.
var ErrStorageRead = errors.New("session storage read failed")

// ErrStorageWrite wraps failed writes and deletes. The session may not persist past the tab.
var ErrStorageWrite = errors.New("session storage write failed")

const minCookieMaxAge = time.Hour

// Options configures a [Store].
type Options struct {
	// CookieMaxAge is the lifetime of the role cookie. Values below one hour are raised to one hour.
	CookieMaxAge time.Duration
	// CookieDomain is the domain the role cookie may have been written under, if any.
	CookieDomain string
	// SecureTransport marks the role cookie Secure; set it when the page is served over TLS.
	SecureTransport bool
	// ExtraKeys are additional primary keys removed on purge.
	ExtraKeys []string
	Now       func() time.Time
	Logger    *slog.Logger
}

// Store reads, writes and purges a session across the primary store, the cookie store and the
// per-tab ephemeral store.
//
// Writes are best-effort and not transactional: each store is written independently and a
// failure in one is logged and reported without rolling back the others.
type Store struct {
	primary storage.KV
	cookies storage.CookieStore
	tab     storage.Ephemeral
	opts    Options
	keys    []string
	logger  *slog.Logger
}

// NewStore creates a session [Store]. tab may be nil when no per-tab store exists.
func NewStore(primary storage.KV, cookies storage.CookieStore, tab storage.Ephemeral, opts Options) *Store {
	if opts.CookieMaxAge < minCookieMaxAge {
		opts.CookieMaxAge = minCookieMaxAge
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	keys := slices.Clone(KnownKeys)
	for _, k := range opts.ExtraKeys {
		if k = strings.TrimSpace(k); k != "" && !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}

	return &Store{
		primary: primary,
		cookies: cookies,
		tab:     tab,
		opts:    opts,
		keys:    keys,
		logger:  logger.With(slog.String("component", "session_store")),
	}
}

// Keys returns the primary keys swept by [Store.Purge].
func (s *Store) Keys() []string {
	return slices.Clone(s.keys)
}

// Load reads and validates the stored credential.
//
// It never returns an error: a missing, unreadable, malformed, expired or role-less
// credential yields an unauthenticated [State] whose Reason says why. Malformed, expired
// and role-less credentials are purged before returning.
func (s *Store) Load(ctx context.Context) State {
	raw, ok, err := s.primary.Get(ctx, KeyToken)
	if err != nil {
		s.logger.Warn("session credential read failed", slog.String("error", err.Error()))
		return unauthenticated(fmt.Errorf("%w: %v", ErrStorageRead, err))
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return unauthenticated(nil)
	}

	claims, err := jwt.Decode(raw)
	if err != nil {
		return s.reject(ctx, err, "session credential malformed")
	}
	if jwt.IsExpired(claims, s.opts.Now()) {
		return s.reject(ctx, ErrSessionExpired, "session credential expired")
	}
	if len(claims.Roles) == 0 {
		return s.reject(ctx, ErrEmptyRoleSet, "session credential has no roles")
	}

	return State{
		Status:     StatusAuthenticated,
		Credential: raw,
		Claims:     claims,
	}
}

func (s *Store) reject(ctx context.Context, reason error, msg string) State {
	s.logger.Info(msg, slog.String("reason", reason.Error()))
	if err := s.Purge(ctx); err != nil {
		s.logger.Warn("session purge after rejection incomplete", slog.String("error", err.Error()))
	}
	return unauthenticated(reason)
}

// Save writes the credential to the primary store and the serialized role set to both the
// primary store and the role cookie. Every write is attempted; the returned error joins the
// failures, each wrapping [ErrStorageWrite].
func (s *Store) Save(ctx context.Context, credential string, roles jwt.RoleSet) error {
	serialized := roles.Serialize()
	var errs []error

	if err := s.primary.Set(ctx, KeyToken, credential); err != nil {
		errs = append(errs, s.writeFailed("primary", KeyToken, err))
	}
	if err := s.primary.Set(ctx, KeyRoles, serialized); err != nil {
		errs = append(errs, s.writeFailed("primary", KeyRoles, err))
	}
	if err := s.cookies.SetCookie(ctx, s.roleCookie(serialized)); err != nil {
		errs = append(errs, s.writeFailed("cookie", KeyRoles, err))
	}

	return errors.Join(errs...)
}

// SetAuxiliary writes one of the auxiliary identifiers (clinic id, vet id, ...) to the primary
// store. Only keys swept by purge are accepted.
func (s *Store) SetAuxiliary(ctx context.Context, key, value string) error {
	if key == KeyToken || key == KeyRoles || !slices.Contains(s.keys, key) {
		return fmt.Errorf("unknown auxiliary key %q", key)
	}
	if err := s.primary.Set(ctx, key, value); err != nil {
		return s.writeFailed("primary", key, err)
	}
	return nil
}

func (s *Store) writeFailed(store, key string, err error) error {
	s.logger.Warn("session write failed",
		slog.String("store", store),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%w: %s %s: %v", ErrStorageWrite, store, key, err)
}

func (s *Store) roleCookie(serialized string) *http.Cookie {
	return &http.Cookie{
		Name:     KeyRoles,
		Value:    url.QueryEscape(serialized),
		Path:     "/",
		MaxAge:   int(s.opts.CookieMaxAge / time.Second),
		Secure:   s.opts.SecureTransport,
		SameSite: http.SameSiteLaxMode,
	}
}

// Purge removes every trace of the session. It is idempotent: purging an empty session
// succeeds and leaves it empty.
//
// Cookies are expired under every attribute combination they may have been written with
// (host-only or domain-scoped, secure or not, Max-Age or Expires form), and every cookie
// still visible afterwards is expired the same way. Individual expiry writes that the jar
// rejects are expected and ignored.
func (s *Store) Purge(ctx context.Context) error {
	var errs []error

	if err := s.primary.Delete(ctx, s.keys...); err != nil {
		errs = append(errs, s.writeFailed("primary", "*", err))
	}

	if s.tab != nil {
		if err := s.tab.Clear(ctx); err != nil {
			errs = append(errs, s.writeFailed("tab", "*", err))
		}
	}

	for _, name := range s.keys {
		s.expireCookie(ctx, name)
	}

	remaining, err := s.cookies.Cookies(ctx)
	if err != nil {
		errs = append(errs, s.writeFailed("cookie", "*", err))
	}
	for _, c := range remaining {
		s.expireCookie(ctx, c.Name)
	}

	if len(errs) == 0 {
		s.logger.Debug("session purged")
	}
	return errors.Join(errs...)
}

func (s *Store) expireCookie(ctx context.Context, name string) {
	epoch := time.Unix(0, 0).UTC()
	for _, domain := range s.cookieDomains() {
		for _, secure := range []bool{false, true} {
			variants := []*http.Cookie{
				{Name: name, Path: "/", Domain: domain, Secure: secure, MaxAge: -1, SameSite: http.SameSiteLaxMode},
				{Name: name, Path: "/", Domain: domain, Secure: secure, Expires: epoch, SameSite: http.SameSiteLaxMode},
			}
			for _, c := range variants {
				_ = s.cookies.SetCookie(ctx, c)
			}
		}
	}
}

func (s *Store) cookieDomains() []string {
	domain := strings.TrimPrefix(strings.TrimSpace(s.opts.CookieDomain), ".")
	if domain == "" {
		return []string{""}
	}
	return []string{"", domain, "." + domain}
}

// Mirror reports the role list as currently persisted in the primary store and the cookie.
func (s *Store) Mirror(ctx context.Context) (RoleMirror, error) {
	var mirror RoleMirror

	raw, ok, err := s.primary.Get(ctx, KeyRoles)
	if err != nil {
		return mirror, fmt.Errorf("%w: %v", ErrStorageRead, err)
	}
	if ok {
		mirror.Primary, _ = jwt.ParseRoleSet(raw)
	}

	cookies, err := s.cookies.Cookies(ctx)
	if err != nil {
		return mirror, fmt.Errorf("%w: %v", ErrStorageRead, err)
	}
	for _, c := range cookies {
		if c.Name != KeyRoles {
			continue
		}
		value, err := url.QueryUnescape(c.Value)
		if err != nil {
			value = c.Value
		}
		mirror.Cookie, _ = jwt.ParseRoleSet(value)
		break
	}

	mirror.Consistent = slices.Equal(mirror.Primary, mirror.Cookie)
	return mirror, nil
}
