package vetsession

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// Config is the engine configuration. Start from [DefaultConfig]; [Builder.Build] validates
// it and keeps its own copy.
type Config struct {
	Session   SessionConfig
	Cookie    CookieConfig
	Logout    LogoutConfig
	Notify    NotifyConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
	LoginPath string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the primary store layout.
type SessionConfig struct {
	// RedisPrefix namespaces keys when the primary store is Redis.
	RedisPrefix string
	// ExtraKeys are additional primary keys removed on logout.
	ExtraKeys []string
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig controls the role cookie.
type CookieConfig struct {
	MaxAge          time.Duration
	Domain          string
	SecureTransport bool
}

/*
====================================
LOGOUT CONFIG
====================================
*/

// LogoutConfig lists the embedded databases deleted on logout.
type LogoutConfig struct {
	Databases []string
}

/*
====================================
NOTIFY CONFIG
====================================
*/

// NotifyConfig controls notification polling.
type NotifyConfig struct {
	Period            time.Duration
	FlagInterval      time.Duration
	FlagKey           string
	FetchLimit        int
	AwaitingStatus    string
	PlaceholderLabel  string
	LookupConcurrency int
	LabelCacheSize    int
	LabelCacheTTL     time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher. With DropIfFull a full buffer drops
// events instead of blocking the caller. Logout waits up to LogoutFlushTimeout for the
// buffered events to reach the sink before [Engine.Logout] returns.
type AuditConfig struct {
	Enabled            bool
	BufferSize         int
	DropIfFull         bool
	LogoutFlushTimeout time.Duration
}

// MetricsConfig toggles the engine counters and the logout latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RedisPrefix: "vetsession",
		},
		Cookie: CookieConfig{
			MaxAge: 24 * time.Hour,
		},
		Notify: NotifyConfig{
			Period:            30 * time.Second,
			FlagInterval:      2 * time.Second,
			FlagKey:           "notifications:refresh",
			FetchLimit:        20,
			AwaitingStatus:    "Pending",
			PlaceholderLabel:  "Unknown client",
			LookupConcurrency: 4,
			LabelCacheSize:    256,
			LabelCacheTTL:     5 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize:         1024,
			DropIfFull:         true,
			LogoutFlushTimeout: 2 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		LoginPath: "/login",
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Session.ExtraKeys = slices.Clone(cfg.Session.ExtraKeys)
	out.Logout.Databases = slices.Clone(cfg.Logout.Databases)
	return out
}

// Validate checks cfg for values the engine cannot run with.
//
// Validate returns a joined error listing every problem found.
func (c *Config) Validate() error {
	var errs []error

	if !strings.HasPrefix(c.LoginPath, "/") {
		errs = append(errs, errors.New("LoginPath must be an absolute path"))
	}

	if c.Cookie.MaxAge < time.Hour {
		errs = append(errs, errors.New("Cookie.MaxAge must be at least one hour"))
	}
	if c.Cookie.MaxAge > 7*24*time.Hour {
		errs = append(errs, errors.New("Cookie.MaxAge must not exceed seven days"))
	}
	if strings.ContainsAny(c.Cookie.Domain, " /;") {
		errs = append(errs, errors.New("Cookie.Domain is not a valid domain"))
	}

	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		errs = append(errs, errors.New("Session.RedisPrefix must not be empty"))
	}
	for _, k := range c.Session.ExtraKeys {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, errors.New("Session.ExtraKeys must not contain empty keys"))
			break
		}
	}

	for _, name := range c.Logout.Databases {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, errors.New("Logout.Databases must not contain empty names"))
			break
		}
	}

	n := c.Notify
	if n.Period <= 0 {
		errs = append(errs, errors.New("Notify.Period must be > 0"))
	}
	if n.FlagInterval <= 0 || n.FlagInterval > n.Period {
		errs = append(errs, errors.New("Notify.FlagInterval must be > 0 and not exceed Notify.Period"))
	}
	if n.FetchLimit <= 0 || n.FetchLimit > 100 {
		errs = append(errs, errors.New("Notify.FetchLimit must be in 1..100"))
	}
	if strings.TrimSpace(n.AwaitingStatus) == "" {
		errs = append(errs, errors.New("Notify.AwaitingStatus must not be empty"))
	}
	if n.LookupConcurrency <= 0 {
		errs = append(errs, errors.New("Notify.LookupConcurrency must be > 0"))
	}
	if n.LabelCacheSize <= 0 || n.LabelCacheTTL <= 0 {
		errs = append(errs, errors.New("Notify label cache size and TTL must be > 0"))
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		errs = append(errs, errors.New("Audit.BufferSize must be > 0 when audit is enabled"))
	}
	if c.Audit.LogoutFlushTimeout < 0 {
		errs = append(errs, errors.New("Audit.LogoutFlushTimeout must be >= 0"))
	}

	return errors.Join(errs...)
}
