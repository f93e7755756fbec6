package flows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Logout step names, in execution order.
const (
	StepClearHeaders    = "clear_headers"
	StepPurgeSession    = "purge_session"
	StepClearTab        = "clear_tab"
	StepDeleteDatabases = "delete_databases"
	StepRewriteHistory  = "rewrite_history"
	StepInvalidateCache = "invalidate_cache"
	StepRedirect        = "redirect"
)

type LogoutHeaders interface {
	Clear()
}

type LogoutSessionStore interface {
	Purge(ctx context.Context) error
}

type LogoutTabStore interface {
	Clear(ctx context.Context) error
}

type LogoutDatabases interface {
	DeleteDatabase(ctx context.Context, name string) error
}

type LogoutHistory interface {
	Replace(ctx context.Context, path string) error
	Push(ctx context.Context, path string) error
}

// CacheInvalidator is an optional background cache flushed on logout.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type Redirector interface {
	Redirect(ctx context.Context, path string) error
}

// LogoutDeps captures logout flow dependencies. Nil dependencies skip their step.
type LogoutDeps struct {
	Headers       LogoutHeaders
	SessionStore  LogoutSessionStore
	TabStore      LogoutTabStore
	Databases     LogoutDatabases
	DatabaseNames []string
	History       LogoutHistory
	Cache         CacheInvalidator
	Redirector    Redirector
	LoginPath     string
	Logger        *slog.Logger
	Now           func() time.Time
}

// StepResult is the outcome of one logout step.
type StepResult struct {
	Name     string
	Skipped  bool
	Err      error
	Duration time.Duration
}

// LogoutReport lists every step that ran, in order.
type LogoutReport struct {
	Steps []StepResult
}

// Err joins the errors of all failed steps, or returns nil.
func (r LogoutReport) Err() error {
	var errs []error
	for _, step := range r.Steps {
		if step.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.Name, step.Err))
		}
	}
	return errors.Join(errs...)
}

// Failed returns the names of failed steps.
func (r LogoutReport) Failed() []string {
	var out []string
	for _, step := range r.Steps {
		if step.Err != nil {
			out = append(out, step.Name)
		}
	}
	return out
}

// Step returns the result named name.
func (r LogoutReport) Step(name string) (StepResult, bool) {
	for _, step := range r.Steps {
		if step.Name == name {
			return step, true
		}
	}
	return StepResult{}, false
}

// RunLogout tears down the client session. Every step runs regardless of earlier failures,
// including panics, so the user is never left looking signed in.
func RunLogout(ctx context.Context, deps LogoutDeps) LogoutReport {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With(slog.String("component", "logout"))

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	loginPath := deps.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}

	var report LogoutReport
	run := func(name string, skip bool, fn func() error) {
		result := StepResult{Name: name, Skipped: skip}
		if !skip {
			start := now()
			result.Err = guard(fn)
			result.Duration = now().Sub(start)
		}
		logStep(ctx, logger, result)
		report.Steps = append(report.Steps, result)
	}

	run(StepClearHeaders, deps.Headers == nil, func() error {
		deps.Headers.Clear()
		return nil
	})
	run(StepPurgeSession, deps.SessionStore == nil, func() error {
		return deps.SessionStore.Purge(ctx)
	})
	run(StepClearTab, deps.TabStore == nil, func() error {
		return deps.TabStore.Clear(ctx)
	})
	run(StepDeleteDatabases, deps.Databases == nil || len(deps.DatabaseNames) == 0, func() error {
		var errs []error
		for _, name := range deps.DatabaseNames {
			if err := guard(func() error { return deps.Databases.DeleteDatabase(ctx, name) }); err != nil {
				logger.Warn("database delete failed", slog.String("database", name), slog.String("error", err.Error()))
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
		return errors.Join(errs...)
	})
	run(StepRewriteHistory, deps.History == nil, func() error {
		// Replace then push leaves the login view both behind and in front of the cursor,
		// so one back action cannot reach an authenticated view.
		if err := deps.History.Replace(ctx, loginPath); err != nil {
			return err
		}
		return deps.History.Push(ctx, loginPath)
	})
	run(StepInvalidateCache, deps.Cache == nil, func() error {
		return deps.Cache.Invalidate(ctx)
	})
	run(StepRedirect, deps.Redirector == nil, func() error {
		return deps.Redirector.Redirect(ctx, loginPath)
	})

	return report
}

func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func logStep(ctx context.Context, logger *slog.Logger, result StepResult) {
	switch {
	case result.Skipped:
		logger.DebugContext(ctx, "logout step skipped", slog.String("step", result.Name))
	case result.Err != nil:
		logger.WarnContext(ctx, "logout step failed",
			slog.String("step", result.Name),
			slog.String("error", result.Err.Error()),
			slog.Duration("duration", result.Duration),
		)
	default:
		logger.InfoContext(ctx, "logout step done",
			slog.String("step", result.Name),
			slog.Duration("duration", result.Duration),
		)
	}
}
