// Package middleware exposes net/http guards for server-rendered portal pages.
//
// # Guards
//
//   - [Guard] decodes the bearer or cookie credential and attaches the session.
//   - [RequireRole] admits sessions holding one of the listed roles.
//   - [RequirePathRole] admits sessions holding the role that owns the path prefix.
//
// Guard fails closed: a missing, malformed, expired or role-less credential never reaches
// the wrapped handler.
//
// # Architecture boundaries
//
// Credential checks are delegated to Engine.Validate, and role lookups to the permission
// package. The guards never touch the session stores, so a rejected request leaves the
// tab's persisted session alone.
//
// # What this package must NOT do
//
//   - Parse credentials directly.
//   - Purge or write session state.
package middleware
