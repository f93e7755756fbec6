package vetsession

import (
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/vetsession/internal/audit"
	"github.com/MrEthical07/vetsession/navigation"
	"github.com/MrEthical07/vetsession/session"
	"github.com/MrEthical07/vetsession/storage"
	"github.com/MrEthical07/vetsession/transport"
	"github.com/redis/go-redis/v9"
)

// Builder collects the stores, collaborators and configuration for one tab's [Engine].
//
// A cookie store and either a primary store or a Redis client are required; everything
// else has an in-memory or no-op default. Build may be called once.
type Builder struct {
	config Config
	logger *slog.Logger
	redis  redis.UniversalClient

	primary    storage.KV
	cookies    storage.CookieStore
	tab        storage.Ephemeral
	databases  storage.Databases
	history    navigation.History
	redirector Redirector
	headers    *transport.DefaultHeaders
	auditSink  AuditSink
	caches     []CacheInvalidator

	tabID string
	now   func() time.Time

	built bool
}

// New returns a builder holding the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithLogger sets the structured logger shared by every component.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithRedis uses client as the primary store, namespaced by Config.Session.RedisPrefix.
// Cross-tab change signals travel over Redis pub/sub.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithPrimaryStore sets the primary key-value store. It takes precedence over WithRedis.
func (b *Builder) WithPrimaryStore(kv storage.KV) *Builder {
	b.primary = kv
	return b
}

// WithCookieStore sets the cookie store. It is required.
func (b *Builder) WithCookieStore(cookies storage.CookieStore) *Builder {
	b.cookies = cookies
	return b
}

// WithTabStore sets the per-tab ephemeral store. An in-memory store is used otherwise.
func (b *Builder) WithTabStore(tab storage.Ephemeral) *Builder {
	b.tab = tab
	return b
}

// WithDatabases sets the embedded database handle used on logout.
func (b *Builder) WithDatabases(dbs storage.Databases) *Builder {
	b.databases = dbs
	return b
}

// WithHistory sets the navigation history rewritten on logout.
func (b *Builder) WithHistory(h navigation.History) *Builder {
	b.history = h
	return b
}

// WithRedirector sets how the engine sends the tab to the login view.
func (b *Builder) WithRedirector(r Redirector) *Builder {
	b.redirector = r
	return b
}

// WithHeaders shares an existing default header set with the engine.
func (b *Builder) WithHeaders(h *transport.DefaultHeaders) *Builder {
	b.headers = h
	return b
}

// WithAuditSink sets the audit sink. Audit must also be enabled in the config.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithCacheInvalidator registers a cache flushed on logout. It may be called more than once.
func (b *Builder) WithCacheInvalidator(c CacheInvalidator) *Builder {
	if c != nil {
		b.caches = append(b.caches, c)
	}
	return b
}

// WithTabID fixes the tab id instead of generating one.
func (b *Builder) WithTabID(id string) *Builder {
	b.tabID = id
	return b
}

// WithMetricsEnabled toggles the engine's counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the logout latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

func (b *Builder) withClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and wires the engine. A builder can be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.cookies == nil {
		return nil, errors.New("cookie store required")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tabID := b.tabID
	if tabID == "" {
		tabID = storage.NewTabID()
	}

	// -------- PRIMARY STORE --------
	primary := b.primary
	if primary == nil {
		if b.redis == nil {
			return nil, errors.New("primary store or redis client required")
		}
		primary = storage.NewRedisKV(b.redis, cfg.Session.RedisPrefix, tabID)
	}

	tab := b.tab
	if tab == nil {
		tab = storage.NewMemoryKV()
	}

	headers := b.headers
	if headers == nil {
		headers = transport.NewDefaultHeaders()
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	// -------- SESSION STORE --------
	store := session.NewStore(primary, b.cookies, tab, session.Options{
		CookieMaxAge:    cfg.Cookie.MaxAge,
		CookieDomain:    cfg.Cookie.Domain,
		SecureTransport: cfg.Cookie.SecureTransport,
		ExtraKeys:       cfg.Session.ExtraKeys,
		Now:             now,
		Logger:          logger,
	})

	b.built = true

	return &Engine{
		config:     cfg,
		logger:     logger.With(slog.String("component", "engine"), slog.String("tab_id", tabID)),
		baseLogger: logger,
		tabID:      tabID,
		store:      store,
		primary:    primary,
		cookies:    b.cookies,
		tab:        tab,
		databases:  b.databases,
		history:    b.history,
		redirector: b.redirector,
		headers:    headers,
		caches:     append([]CacheInvalidator(nil), b.caches...),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
			TabID:      tabID,
			Origin:     cfg.Cookie.Domain,
			Now:        now,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		now:     now,
	}, nil
}
