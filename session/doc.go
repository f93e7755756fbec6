// Package session persists the signed-in user's credential and role list across the primary
// store, the role cookie and the per-tab store, and removes them again on logout.
//
// # Load
//
// [Store.Load] decodes the stored credential and returns a [State]. Malformed, expired and
// role-less credentials are purged and reported as unauthenticated; a failed read is
// reported as unauthenticated without touching the stores.
//
// # Purge
//
// The cookie store only exposes names and values, so the attributes a cookie was written
// with are unknown at delete time. [Store.Purge] therefore expires each known name under
// every domain, secure and expiry-form combination it may have been set with, then sweeps
// whatever names remain visible.
//
// # Architecture boundaries
//
// This package owns the session key layout and the write/purge protocol. It does NOT resolve
// roles to areas, build menus or drive logout side effects such as history rewriting.
//
// # What this package must NOT do
//
//   - Verify credential signatures; the API is the authority.
//   - Cache a [State] beyond the call that produced it.
//   - Import the root package, navigation or notify (no upward imports).
package session
