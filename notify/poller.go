package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// ErrUpstreamFetch wraps a failed fetch of the notification list. The feed is left as it was.
var ErrUpstreamFetch = errors.New("notification fetch failed")

// ErrPartyLookup wraps a failed party label lookup. It never fails a refresh.
var ErrPartyLookup = errors.New("party lookup failed")

// State is the poller's fetch state.
type State uint8

const (
	StateIdle State = iota
	StateFetching
)

func (s State) String() string {
	if s == StateFetching {
		return "fetching"
	}
	return "idle"
}

// Config configures a [Poller].
type Config struct {
	// FetchLimit is the number of candidates requested per refresh.
	FetchLimit int
	// AwaitingStatus is the status, compared case-insensitively, of items that need action.
	AwaitingStatus string
	// PlaceholderLabel replaces a party label that could not be resolved.
	PlaceholderLabel string
	// LookupConcurrency bounds parallel party lookups within one refresh.
	LookupConcurrency int
	Registerer        prometheus.Registerer
	Logger            *slog.Logger
	Now               func() time.Time
}

func (c Config) withDefaults() Config {
	if c.FetchLimit <= 0 {
		c.FetchLimit = 20
	}
	if strings.TrimSpace(c.AwaitingStatus) == "" {
		c.AwaitingStatus = "Pending"
	}
	if c.PlaceholderLabel == "" {
		c.PlaceholderLabel = "Unknown client"
	}
	if c.LookupConcurrency <= 0 {
		c.LookupConcurrency = 4
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Poller refreshes a [Feed] from upstream. At most one fetch is outstanding at a time:
// a refresh requested while another is running returns immediately.
type Poller struct {
	cfg     Config
	source  ItemSource
	parties PartyResolver
	feed    *Feed
	metrics *collectors
	logger  *slog.Logger

	mu          sync.Mutex
	state       State
	lastErr     error
	lastRefresh time.Time
}

// NewPoller creates a poller over source. parties may be nil, in which case every item gets
// the placeholder label.
func NewPoller(source ItemSource, parties PartyResolver, cfg Config) *Poller {
	cfg = cfg.withDefaults()
	return &Poller{
		cfg:     cfg,
		source:  source,
		parties: parties,
		feed:    NewFeed(),
		metrics: newCollectors(cfg.Registerer),
		logger:  cfg.Logger.With(slog.String("component", "notify_poller")),
	}
}

// Refresh fetches, filters, labels and merges actionable items into the feed.
//
// It returns nil without fetching when a refresh is already in flight. On a failed fetch
// the feed is unchanged and the returned error, also kept as [Poller.LastError], wraps
// [ErrUpstreamFetch]; the next trigger retries.
func (p *Poller) Refresh(ctx context.Context) error {
	p.mu.Lock()
	if p.state == StateFetching {
		p.mu.Unlock()
		p.metrics.refreshTotal.WithLabelValues(OutcomeDeduplicated).Inc()
		return nil
	}
	p.state = StateFetching
	p.mu.Unlock()

	err := p.fetchGuarded(ctx)

	p.mu.Lock()
	p.state = StateIdle
	p.lastErr = err
	if err == nil {
		p.lastRefresh = p.cfg.Now()
	}
	p.mu.Unlock()

	if err != nil {
		p.metrics.refreshTotal.WithLabelValues(OutcomeError).Inc()
		p.logger.WarnContext(ctx, "notification refresh failed", slog.String("error", err.Error()))
		return err
	}
	p.metrics.refreshTotal.WithLabelValues(OutcomeOK).Inc()
	p.metrics.unread.Set(float64(p.feed.UnreadCount()))
	return nil
}

// fetchGuarded turns a panicking source into a failed fetch so the poller returns to Idle.
func (p *Poller) fetchGuarded(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrUpstreamFetch, r)
		}
	}()
	return p.fetch(ctx)
}

func (p *Poller) fetch(ctx context.Context) error {
	candidates, err := p.source.ListActionable(ctx, p.cfg.FetchLimit)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}

	// Items awaiting action enter the feed. Items already in the feed are updated whatever
	// their status; one that no longer awaits action is settled as read.
	items := make([]Item, 0, len(candidates))
	awaiting := 0
	for _, item := range candidates {
		if strings.EqualFold(strings.TrimSpace(item.Status), p.cfg.AwaitingStatus) {
			items = append(items, item)
			awaiting++
			continue
		}
		if p.feed.Contains(item.ID) {
			item.Read = true
			items = append(items, item)
		}
	}

	var g errgroup.Group
	g.SetLimit(p.cfg.LookupConcurrency)
	for i := range items {
		g.Go(func() error {
			items[i].PartyLabel = p.label(ctx, items[i].PartyID)
			return nil
		})
	}
	_ = g.Wait()

	p.feed.Merge(items)
	p.logger.DebugContext(ctx, "notification refresh done",
		slog.Int("candidates", len(candidates)),
		slog.Int("awaiting", awaiting),
		slog.Int("updated", len(items)-awaiting),
		slog.Int("unread", p.feed.UnreadCount()),
	)
	return nil
}

func (p *Poller) label(ctx context.Context, partyID string) string {
	if p.parties == nil || partyID == "" {
		return p.cfg.PlaceholderLabel
	}

	label, err := p.lookup(ctx, partyID)
	if err == nil && strings.TrimSpace(label) != "" {
		return label
	}
	if err == nil {
		err = errors.New("empty label")
	}
	p.metrics.lookupFailures.Inc()
	p.logger.DebugContext(ctx, "party label unavailable",
		slog.String("party_id", partyID),
		slog.String("error", fmt.Errorf("%w: %v", ErrPartyLookup, err).Error()),
	)
	return p.cfg.PlaceholderLabel
}

func (p *Poller) lookup(ctx context.Context, partyID string) (label string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.parties.ResolveParty(ctx, partyID)
}

// State returns the current fetch state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// LastError returns the error of the most recent completed refresh, or nil.
func (p *Poller) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// LastRefresh returns when the last successful refresh completed.
func (p *Poller) LastRefresh() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRefresh
}

// Feed returns the poller's feed.
func (p *Poller) Feed() *Feed {
	return p.feed
}

// Items returns the feed in display order.
func (p *Poller) Items() []Item {
	return p.feed.Items()
}

// UnreadCount returns the number of unread items.
func (p *Poller) UnreadCount() int {
	return p.feed.UnreadCount()
}

// MarkRead marks one item read locally. Nothing is sent upstream.
func (p *Poller) MarkRead(id string) bool {
	ok := p.feed.MarkRead(id)
	p.metrics.unread.Set(float64(p.feed.UnreadCount()))
	return ok
}

// MarkAllRead marks every item read locally and returns how many changed.
func (p *Poller) MarkAllRead() int {
	n := p.feed.MarkAllRead()
	p.metrics.unread.Set(0)
	return n
}
