// Package audit implements async dispatching of session lifecycle events.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, slog, no-op).
//   - [Dispatcher]: buffered async relay for one tab, with drop-if-full / block-if-full
//     semantics, tab id and origin stamping, and a Flush barrier used on logout.
//   - [Event]: structured record with timestamp, type, user, tab, path and metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit. That responsibility belongs to the Engine and flow functions.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import vetsession or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
