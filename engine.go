package vetsession

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/vetsession/internal/audit"
	"github.com/MrEthical07/vetsession/internal/flows"
	"github.com/MrEthical07/vetsession/jwt"
	"github.com/MrEthical07/vetsession/navigation"
	"github.com/MrEthical07/vetsession/notify"
	"github.com/MrEthical07/vetsession/permission"
	"github.com/MrEthical07/vetsession/session"
	"github.com/MrEthical07/vetsession/storage"
	"github.com/MrEthical07/vetsession/transport"
	"github.com/prometheus/client_golang/prometheus"
)

// Engine ties the session store, role resolution, menus, logout and notifications together
// for one tab.
//
// Engine methods are safe for concurrent use after [Builder.Build].
type Engine struct {
	config     Config
	logger     *slog.Logger
	baseLogger *slog.Logger
	tabID      string

	store      *session.Store
	primary    storage.KV
	cookies    storage.CookieStore
	tab        storage.Ephemeral
	databases  storage.Databases
	history    navigation.History
	redirector Redirector
	headers    *transport.DefaultHeaders

	cacheMu sync.Mutex
	caches  []CacheInvalidator

	audit   *audit.Dispatcher
	metrics *Metrics
	now     func() time.Time
}

// Close flushes pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// TabID returns the id this engine stamps on shared-store changes.
func (e *Engine) TabID() string {
	return e.tabID
}

// Headers returns the default request headers mirroring the credential.
func (e *Engine) Headers() *transport.DefaultHeaders {
	return e.headers
}

// HTTPClient returns a client that sends the default headers on every request.
func (e *Engine) HTTPClient(base http.RoundTripper) *http.Client {
	return transport.NewClient(e.headers, base)
}

// Login stores a credential returned by the API and mirrors it into the default headers.
//
// A credential that is malformed, expired or role-less is refused with the matching error
// and nothing is stored. When the credential is accepted but a store write fails, Login
// returns the authenticated state together with an error wrapping [ErrStorageWrite]: the
// session works for this tab but may not survive a reload.
func (e *Engine) Login(ctx context.Context, credential string) (session.State, error) {
	if e == nil || e.store == nil {
		return session.State{}, ErrEngineNotReady
	}

	credential = strings.TrimSpace(credential)
	state, err := e.Validate(credential)
	if err != nil {
		e.metricInc(MetricLoginRejected)
		e.logger.InfoContext(ctx, "credential refused", slog.String("reason", err.Error()))
		return state, err
	}
	claims := state.Claims

	writeErr := e.store.Save(ctx, credential, claims.Roles)
	if claims.Subject != "" {
		writeErr = errors.Join(writeErr, e.store.SetAuxiliary(ctx, session.KeyUserID, claims.Subject))
	}
	if claims.Name != "" {
		writeErr = errors.Join(writeErr, e.store.SetAuxiliary(ctx, session.KeyUserName, claims.Name))
	}
	e.headers.SetBearer(credential)

	if writeErr != nil {
		e.metricInc(MetricStorageWriteFailure)
		e.logger.WarnContext(ctx, "session not fully persisted", slog.String("error", writeErr.Error()))
	}
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditInput{
		eventType: audit.EventSessionSaved,
		userID:    claims.Subject,
		err:       writeErr,
		metadata:  map[string]string{"roles": claims.Roles.String()},
	})

	return state, writeErr
}

// Validate decodes credential and checks expiry and roles against the engine clock without
// touching any store. It is the check [Engine.Login] applies before saving.
func (e *Engine) Validate(credential string) (session.State, error) {
	if e == nil {
		return session.State{}, ErrEngineNotReady
	}
	credential = strings.TrimSpace(credential)
	claims, err := jwt.Decode(credential)
	if err == nil && jwt.IsExpired(claims, e.now()) {
		err = ErrSessionExpired
	}
	if err == nil && len(claims.Roles) == 0 {
		err = ErrEmptyRoleSet
	}
	if err != nil {
		return session.State{Status: session.StatusUnauthenticated, Reason: err}, err
	}
	return session.State{
		Status:     session.StatusAuthenticated,
		Credential: credential,
		Claims:     claims,
	}, nil
}

// Load reads the stored session. It never fails: problems are reported through the
// returned state's Reason.
//
// A stored credential that is malformed, expired or role-less has already been purged by
// the time Load returns; the default headers are cleared and the tab is sent to the login
// view.
func (e *Engine) Load(ctx context.Context) session.State {
	if e == nil || e.store == nil {
		return session.State{Status: session.StatusUnauthenticated, Reason: ErrEngineNotReady}
	}

	state := e.store.Load(ctx)
	if state.Authenticated() {
		e.metricInc(MetricSessionLoaded)
		e.headers.SetBearer(state.Credential)
		return state
	}

	e.headers.SetBearer("")

	switch reason := state.Reason; {
	case reason == nil:
		e.metricInc(MetricSessionAbsent)
		return state
	case errors.Is(reason, ErrStorageRead):
		e.metricInc(MetricStorageReadFailure)
		return state
	case errors.Is(reason, ErrSessionExpired):
		e.metricInc(MetricSessionExpired)
		e.emitAudit(ctx, auditInput{eventType: audit.EventSessionExpired, err: reason})
	case errors.Is(reason, ErrEmptyRoleSet):
		e.metricInc(MetricSessionEmptyRoles)
		e.emitAudit(ctx, auditInput{eventType: audit.EventSessionMalformed, err: reason})
	default:
		e.metricInc(MetricSessionMalformed)
		e.emitAudit(ctx, auditInput{eventType: audit.EventSessionMalformed, err: reason})
	}

	e.emitAudit(ctx, auditInput{eventType: audit.EventSessionPurged, metadata: map[string]string{"cause": state.Reason.Error()}})
	e.redirectToLogin(ctx)
	return state
}

func (e *Engine) redirectToLogin(ctx context.Context) {
	if e.redirector == nil {
		return
	}
	if err := e.redirector.Redirect(ctx, e.config.LoginPath); err != nil {
		e.logger.WarnContext(ctx, "login redirect failed", slog.String("error", err.Error()))
	}
}

// View resolves the active role, title and menu for path.
//
// The session comes from ctx when attached with [WithSession], otherwise it is loaded.
// An unauthenticated session yields [ErrNotAuthenticated]. A path whose role the session
// does not hold still renders that role's chrome; the mismatch is logged, counted and
// audited but not enforced, since the API authorizes every request.
func (e *Engine) View(ctx context.Context, path string) (View, error) {
	if e == nil || e.store == nil {
		return View{}, ErrEngineNotReady
	}

	state, ok := SessionFromContext(ctx)
	if !ok {
		state = e.Load(ctx)
	}
	if !state.Authenticated() {
		return View{Session: state, Path: path}, ErrNotAuthenticated
	}

	res := permission.ResolveDetail(path, state.Roles())
	if res.Source == permission.SourcePath && !res.Held {
		e.metricInc(MetricRoleMismatch)
		e.logger.WarnContext(ctx, "path role not held by session",
			slog.String("path", path),
			slog.String("role", res.Role.String()),
			slog.String("held", state.Roles().String()),
		)
		e.emitAudit(ctx, auditInput{
			eventType: audit.EventRoleMismatch,
			userID:    state.Claims.Subject,
			path:      path,
			err:       errors.New("role not held"),
			metadata:  map[string]string{"role": res.Role.String(), "held": state.Roles().String()},
		})
	}
	e.metricInc(MetricViewResolved)

	return View{
		Session:    state,
		Path:       path,
		Role:       res.Role,
		Resolution: res,
		Title:      navigation.Title(res.Role),
		Menu:       navigation.BuildMenu(res.Role),
	}, nil
}

// Logout tears the session down. Every step runs even when earlier ones fail; the report
// says which did.
func (e *Engine) Logout(ctx context.Context) LogoutReport {
	if e == nil || e.store == nil {
		return LogoutReport{}
	}

	var userID string
	if state, ok := SessionFromContext(ctx); ok && state.Claims != nil {
		userID = state.Claims.Subject
	}

	start := e.now()
	report := flows.RunLogout(ctx, flows.LogoutDeps{
		Headers:       e.headers,
		SessionStore:  e.store,
		TabStore:      e.tab,
		Databases:     e.databases,
		DatabaseNames: e.config.Logout.Databases,
		History:       e.history,
		Cache:         e.cacheInvalidator(),
		Redirector:    e.redirector,
		LoginPath:     e.config.LoginPath,
		Logger:        e.baseLogger,
		Now:           e.now,
	})
	if e.metrics != nil {
		e.metrics.Observe(MetricLogoutLatency, e.now().Sub(start))
	}

	out := LogoutReport{Steps: make([]LogoutStep, 0, len(report.Steps))}
	for _, step := range report.Steps {
		out.Steps = append(out.Steps, LogoutStep{
			Name:     step.Name,
			Skipped:  step.Skipped,
			Err:      step.Err,
			Duration: step.Duration,
		})
	}

	failed := report.Failed()
	e.metricInc(MetricLogout)
	if e.metrics != nil {
		e.metrics.Add(MetricLogoutStepFailure, uint64(len(failed)))
	}
	e.emitAudit(ctx, auditInput{
		eventType: audit.EventLogout,
		userID:    userID,
		err:       report.Err(),
		metadata:  map[string]string{"failed_steps": strings.Join(failed, ",")},
	})
	e.flushAudit(ctx)

	return out
}

// flushAudit gives the buffered audit events, the logout record included, a bounded chance
// to reach the sink before the tab leaves the portal.
func (e *Engine) flushAudit(ctx context.Context) {
	if e.audit == nil {
		return
	}
	if timeout := e.config.Audit.LogoutFlushTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
	}
	if err := e.audit.Flush(ctx); err != nil {
		e.logger.WarnContext(ctx, "audit flush on logout incomplete", slog.String("error", err.Error()))
	}
}

func (e *Engine) cacheInvalidator() flows.CacheInvalidator {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	if len(e.caches) == 0 {
		return nil
	}
	return invalidators(append([]CacheInvalidator(nil), e.caches...))
}

func (e *Engine) addCacheInvalidator(c CacheInvalidator) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	e.caches = append(e.caches, c)
}

// SetAuxiliary stores one of the auxiliary session identifiers, such as the clinic id.
func (e *Engine) SetAuxiliary(ctx context.Context, key, value string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	return e.store.SetAuxiliary(ctx, key, value)
}

// Mirror reports the role list as persisted in the primary store and the cookie.
func (e *Engine) Mirror(ctx context.Context) (session.RoleMirror, error) {
	if e == nil || e.store == nil {
		return session.RoleMirror{}, ErrEngineNotReady
	}
	return e.store.Mirror(ctx)
}

// NewNotifications wires a poller and its scheduler for this tab.
//
// Party labels go through an expiring cache that logout flushes. When the primary store
// can be watched, changes made by other tabs trigger a refresh. Collectors are registered
// on reg, which may be nil.
func (e *Engine) NewNotifications(source notify.ItemSource, parties notify.PartyResolver, reg prometheus.Registerer) (*notify.Poller, *notify.Scheduler) {
	n := e.config.Notify

	var resolver notify.PartyResolver
	if parties != nil {
		cache := notify.NewLabelCache(parties, n.LabelCacheSize, n.LabelCacheTTL)
		e.addCacheInvalidator(cache)
		resolver = cache
	}

	poller := notify.NewPoller(source, resolver, notify.Config{
		FetchLimit:        n.FetchLimit,
		AwaitingStatus:    n.AwaitingStatus,
		PlaceholderLabel:  n.PlaceholderLabel,
		LookupConcurrency: n.LookupConcurrency,
		Registerer:        reg,
		Logger:            e.baseLogger,
		Now:               e.now,
	})

	watcher, _ := e.primary.(storage.Watcher)
	scheduler := notify.NewScheduler(poller, notify.SchedulerConfig{
		Period:       n.Period,
		FlagInterval: n.FlagInterval,
		FlagKey:      n.FlagKey,
		Flags:        e.tab,
		Watcher:      watcher,
		Origin:       e.tabID,
		Logger:       e.baseLogger,
	})

	return poller, scheduler
}

// RequestNotificationRefresh asks this tab's scheduler to refresh on its next flag poll.
func (e *Engine) RequestNotificationRefresh(ctx context.Context) error {
	if e == nil || e.tab == nil {
		return ErrEngineNotReady
	}
	return notify.RequestRefresh(ctx, e.tab, e.config.Notify.FlagKey)
}
