// Package storage provides the persisted stores a portal session is mirrored across: a shared
// primary key-value store ([MemoryKV], [RedisKV]), a per-tab ephemeral store, a cookie-like
// store ([MemoryCookies]) and embedded client databases ([DirDatabases]).
//
// # What this package must NOT do
//
//   - Interpret credentials or role sets; values are opaque strings.
//   - Order or lock writes across stores. Callers rely on idempotent deletes instead.
package storage
