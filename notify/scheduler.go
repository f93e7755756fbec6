package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/MrEthical07/vetsession/storage"
)

// ErrSchedulerRunning is returned by Start on a scheduler that is already running.
var ErrSchedulerRunning = errors.New("notify scheduler already running")

// TriggerStart names the refresh fired when the scheduler starts.
const TriggerStart = "start"

// DefaultFlagKey is the ephemeral key other components set to request a refresh in this tab.
const DefaultFlagKey = "notifications:refresh"

// SchedulerConfig configures a [Scheduler].
type SchedulerConfig struct {
	// Period is the timer trigger interval.
	Period time.Duration
	// FlagInterval is how often the refresh flag is polled.
	FlagInterval time.Duration
	// FlagKey is read and deleted from Flags on each flag poll.
	FlagKey string
	// Flags is the per-tab store holding the refresh flag. Nil disables the flag trigger.
	Flags storage.KV
	// Watcher delivers shared-store changes. Nil disables the storage trigger.
	Watcher storage.Watcher
	// Origin is this tab's id; changes it made itself are ignored.
	Origin string
	Logger *slog.Logger
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	if c.Period <= 0 {
		c.Period = 30 * time.Second
	}
	if c.FlagInterval <= 0 {
		c.FlagInterval = 2 * time.Second
	}
	if c.FlagKey == "" {
		c.FlagKey = DefaultFlagKey
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Scheduler drives a [Poller] from the timer, focus, storage-change, in-tab event and flag
// triggers. All of its goroutines belong to one cancellation scope that Stop tears down.
type Scheduler struct {
	poller *Poller
	cfg    SchedulerConfig
	logger *slog.Logger

	focus  chan struct{}
	events chan struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup
}

// NewScheduler creates a stopped scheduler for poller.
func NewScheduler(poller *Poller, cfg SchedulerConfig) *Scheduler {
	cfg = cfg.withDefaults()
	return &Scheduler{
		poller: poller,
		cfg:    cfg,
		logger: cfg.Logger.With(slog.String("component", "notify_scheduler")),
		focus:  make(chan struct{}, 1),
		events: make(chan struct{}, 1),
	}
}

// Start subscribes to the shared store, fires an initial refresh and begins listening for
// triggers. The scheduler runs until Stop is called or ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrSchedulerRunning
	}

	ctx, cancel := context.WithCancel(ctx)

	var changes <-chan storage.Change
	if s.cfg.Watcher != nil {
		ch, err := s.cfg.Watcher.Watch(ctx)
		if err != nil {
			cancel()
			return err
		}
		changes = ch
	}

	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go s.loop(ctx, changes)

	s.logger.Debug("notification scheduler started",
		slog.Duration("period", s.cfg.Period),
		slog.Duration("flag_interval", s.cfg.FlagInterval),
	)
	return nil
}

// Stop cancels every timer and listener and waits for in-flight refreshes to return.
// Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Debug("notification scheduler stopped")
}

// Running reports whether the scheduler has been started and not stopped.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Focus reports that the view regained focus.
func (s *Scheduler) Focus() {
	notify(s.focus)
}

// Signal reports that another component in this tab changed upstream data.
func (s *Scheduler) Signal() {
	notify(s.events)
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop(ctx context.Context, changes <-chan storage.Change) {
	defer s.wg.Done()

	timer := time.NewTicker(s.cfg.Period)
	defer timer.Stop()

	var flagC <-chan time.Time
	if s.cfg.Flags != nil {
		flagTicker := time.NewTicker(s.cfg.FlagInterval)
		defer flagTicker.Stop()
		flagC = flagTicker.C
	}

	s.fire(ctx, TriggerStart)

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.fire(ctx, TriggerTimer)
		case <-s.focus:
			s.fire(ctx, TriggerFocus)
		case <-s.events:
			s.fire(ctx, TriggerEvent)
		case change, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if change.Origin == s.cfg.Origin {
				continue
			}
			s.fire(ctx, TriggerStorage)
		case <-flagC:
			if s.takeFlag(ctx) {
				s.fire(ctx, TriggerFlag)
			}
		}
	}
}

func (s *Scheduler) takeFlag(ctx context.Context) bool {
	_, ok, err := s.cfg.Flags.Get(ctx, s.cfg.FlagKey)
	if err != nil {
		s.logger.Debug("refresh flag read failed", slog.String("error", err.Error()))
		return false
	}
	if !ok {
		return false
	}
	if err := s.cfg.Flags.Delete(ctx, s.cfg.FlagKey); err != nil {
		s.logger.Debug("refresh flag delete failed", slog.String("error", err.Error()))
	}
	return true
}

func (s *Scheduler) fire(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	s.poller.metrics.triggerTotal.WithLabelValues(trigger).Inc()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.poller.Refresh(ctx); err != nil {
			s.logger.Debug("triggered refresh failed",
				slog.String("trigger", trigger),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// RequestRefresh sets the refresh flag in flags, for components that cannot reach the
// scheduler directly.
func RequestRefresh(ctx context.Context, flags storage.KV, key string) error {
	if key == "" {
		key = DefaultFlagKey
	}
	return flags.Set(ctx, key, time.Now().UTC().Format(time.RFC3339Nano))
}
