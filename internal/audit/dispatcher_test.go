package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("disabled dispatcher must be nil")
	}
	d.Emit(context.Background(), Event{EventType: EventLogout})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reports drops")
	}
}

func TestDispatcherDeliversBeforeClose(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	d.Emit(context.Background(), Event{EventType: EventSessionSaved, UserID: "u1", Success: true})
	d.Emit(context.Background(), Event{EventType: EventLogout, Success: true})
	d.Close()

	got := []string{(<-sink.Events()).EventType, (<-sink.Events()).EventType}
	if got[0] != EventSessionSaved || got[1] != EventLogout {
		t.Fatalf("unexpected order %v", got)
	}

	d.Emit(context.Background(), Event{EventType: EventSessionPurged})
	select {
	case ev := <-sink.Events():
		t.Fatalf("event after close delivered: %+v", ev)
	default:
	}
}

func TestJSONWriterSinkOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{EventType: EventRoleMismatch, Path: "/vet/x"})
	sink.Emit(context.Background(), Event{EventType: EventLogout})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var ev Event
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.EventType != EventRoleMismatch || ev.Path != "/vet/x" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestSlogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	sink := NewSlogSink(logger)

	sink.Emit(context.Background(), Event{EventType: EventLogout, Success: false, Error: "redirect failed"})

	out := buf.String()
	if !strings.Contains(out, `"level":"WARN"`) || !strings.Contains(out, `"component":"audit"`) {
		t.Fatalf("unexpected log line %s", out)
	}
	if !strings.Contains(out, `"error":"redirect failed"`) {
		t.Fatalf("error attribute missing: %s", out)
	}
}

type panicSink struct{}

func (panicSink) Emit(context.Context, Event) { panic("sink exploded") }

func TestDispatcherSurvivesPanickingSink(t *testing.T) {
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, panicSink{})
	d.Emit(context.Background(), Event{EventType: EventLogout})
	d.Emit(context.Background(), Event{EventType: EventLogout})
	d.Close()
	if d.SinkPanics() != 2 {
		t.Fatalf("expected 2 recovered panics, got %d", d.SinkPanics())
	}
}

func TestDispatcherStampsTabMetadata(t *testing.T) {
	at := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	sink := NewChannelSink(4)
	d := NewDispatcher(Config{
		Enabled:    true,
		BufferSize: 4,
		TabID:      "tab-7",
		Origin:     "portal.vet.test",
		Now:        func() time.Time { return at },
	}, sink)

	callerMeta := map[string]string{"failed_steps": ""}
	d.Emit(context.Background(), Event{EventType: EventLogout, Metadata: callerMeta})
	d.Emit(context.Background(), Event{
		EventType: EventSessionSaved,
		TabID:     "tab-other",
		Timestamp: at.Add(-time.Minute),
		Metadata:  map[string]string{"origin": "kiosk"},
	})
	d.Close()

	first, second := <-sink.Events(), <-sink.Events()
	if first.TabID != "tab-7" || !first.Timestamp.Equal(at) {
		t.Fatalf("unstamped event %+v", first)
	}
	if first.Metadata["origin"] != "portal.vet.test" || first.Metadata["failed_steps"] != "" {
		t.Fatalf("metadata %v", first.Metadata)
	}
	if _, ok := callerMeta["origin"]; ok {
		t.Fatal("caller metadata map mutated")
	}
	if second.TabID != "tab-other" || !second.Timestamp.Equal(at.Add(-time.Minute)) || second.Metadata["origin"] != "kiosk" {
		t.Fatalf("emitter fields overwritten %+v", second)
	}
}

type gatedSink struct {
	gate chan struct{}
	mu   sync.Mutex
	got  []string
}

func (s *gatedSink) Emit(_ context.Context, ev Event) {
	<-s.gate
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, ev.EventType)
}

func (s *gatedSink) delivered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.got...)
}

func TestFlushWaitsForBufferedEvents(t *testing.T) {
	sink := &gatedSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4, DropIfFull: true}, sink)
	defer d.Close()

	d.Emit(context.Background(), Event{EventType: EventSessionPurged})
	d.Emit(context.Background(), Event{EventType: EventLogout})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	err := d.Flush(ctx)
	cancel()
	if err == nil {
		t.Fatal("flush returned before the sink accepted anything")
	}

	close(sink.gate)
	if err := d.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	got := sink.delivered()
	if len(got) != 2 || got[0] != EventSessionPurged || got[1] != EventLogout {
		t.Fatalf("delivered %v", got)
	}
}

func TestFlushOnFullBufferDoesNotDropMarker(t *testing.T) {
	sink := &gatedSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)
	defer d.Close()

	// the first event may already sit in the sink; the rest fill the buffer or drop
	for range 4 {
		d.Emit(context.Background(), Event{EventType: EventRoleMismatch})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops on a full buffer")
	}

	done := make(chan error, 1)
	go func() { done <- d.Flush(context.Background()) }()
	close(sink.gate)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("flush: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("flush never completed")
	}
}

func TestNilDispatcherFlush(t *testing.T) {
	var d *Dispatcher
	if err := d.Flush(context.Background()); err != nil {
		t.Fatalf("nil flush: %v", err)
	}
}
