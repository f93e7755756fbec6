package vetsession

import (
	"context"

	"github.com/MrEthical07/vetsession/internal/audit"
)

type auditInput struct {
	eventType string
	userID    string
	path      string
	err       error
	metadata  map[string]string
}

func (e *Engine) emitAudit(ctx context.Context, in auditInput) {
	if e == nil || e.audit == nil {
		return
	}

	event := audit.Event{
		Timestamp: e.now(),
		EventType: in.eventType,
		UserID:    in.userID,
		TabID:     e.tabID,
		Path:      in.path,
		Success:   in.err == nil,
		Metadata:  in.metadata,
	}
	if in.err != nil {
		event.Error = in.err.Error()
	}

	e.audit.Emit(ctx, event)
}
