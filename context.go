package vetsession

import (
	"context"

	"github.com/MrEthical07/vetsession/session"
)

type sessionContextKey struct{}

// WithSession attaches a loaded session state to ctx. Views downstream read it with
// [SessionFromContext] instead of loading the stores again.
func WithSession(ctx context.Context, state session.State) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, state)
}

// SessionFromContext returns the session state attached by [WithSession].
func SessionFromContext(ctx context.Context) (session.State, bool) {
	if ctx == nil {
		return session.State{}, false
	}
	state, ok := ctx.Value(sessionContextKey{}).(session.State)
	return state, ok
}
