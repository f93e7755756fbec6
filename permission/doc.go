// Package permission defines the closed set of portal roles and resolves the active role for
// a view from the current path and the session's role set.
//
// # Architecture boundaries
//
// This package is pure: no I/O, no clock, no storage. It decides what a view displays, not
// what a user may do; the portal API enforces authorization independently.
//
// # What this package must NOT do
//
//   - Import vetsession, session, or storage.
//   - Treat a path/role mismatch as an error. It is reported through [Resolution.Held].
package permission
