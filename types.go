package vetsession

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/vetsession/navigation"
	"github.com/MrEthical07/vetsession/permission"
	"github.com/MrEthical07/vetsession/session"
)

// Redirector sends the tab to another view.
type Redirector interface {
	Redirect(ctx context.Context, path string) error
}

// CacheInvalidator is a background cache flushed on logout.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// View is everything a page needs to render its chrome for the current session.
type View struct {
	Session    session.State
	Path       string
	Role       permission.Role
	Resolution permission.Resolution
	Title      string
	Menu       []navigation.MenuItem
}

// LogoutStep is the outcome of one logout step.
type LogoutStep struct {
	Name     string
	Skipped  bool
	Err      error
	Duration time.Duration
}

// LogoutReport lists every logout step in execution order.
type LogoutReport struct {
	Steps []LogoutStep
}

// Err joins the errors of failed steps. A non-nil error does not mean the user is still
// signed in: every step runs regardless.
func (r LogoutReport) Err() error {
	var errs []error
	for _, step := range r.Steps {
		if step.Err != nil {
			errs = append(errs, step.Err)
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

type invalidators []CacheInvalidator

func (list invalidators) Invalidate(ctx context.Context) error {
	var errs []error
	for _, inv := range list {
		if err := inv.Invalidate(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
