// Package vetsession provides the client-side session core of the clinic portal: it
// decodes the API's bearer credential, mirrors the user's roles across the primary store,
// the role cookie and the per-tab store, resolves the active role and menu for each view,
// tears everything down on logout, and keeps the notification feed fresh.
//
// The package is designed for concurrent use: Engine methods are safe to call from
// multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// vetsession is the public surface. It exposes [Engine], [Builder], [Config], and value
// types ([View], [LogoutReport], [MetricsSnapshot]). Component logic lives in the jwt,
// session, storage, permission, navigation, notify and transport packages; logout
// orchestration and audit dispatch live under internal/.
//
// # What this package must NOT do
//
//   - Verify credential signatures or make authorization decisions; the API does both.
//   - Keep a loaded session in package-level state. Sessions travel in a context via
//     [WithSession].
//   - Import any sub-package that re-imports vetsession (no import cycles).
package vetsession
