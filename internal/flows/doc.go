// Package flows contains pure-function orchestrators for multi-step Engine operations.
//
// [RunLogout] accepts a typed dependency struct and returns a per-step report without
// side-effects beyond those dependencies, so it can be tested with fakes and the Engine
// stays thin.
//
// # Architecture boundaries
//
// Flow functions coordinate the header mirror, session store, tab store, embedded databases,
// history, caches and redirector. They do NOT own any of these resources; ownership stays
// with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import vetsession (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency interfaces.
package flows
