// Package notify keeps the notification feed of the signed-in user up to date.
//
// # Components
//
//   - [Feed]: items keyed by id, newest first, with a derived unread count.
//   - [Poller]: Idle/Fetching state machine that fetches, filters, labels and merges.
//   - [Scheduler]: timer, focus, storage-change, in-tab event and flag triggers.
//   - [LabelCache]: expiring LRU of party labels.
//   - [HTTPSource]: REST implementation of [ItemSource] and [PartyResolver].
//
// Read state is local: marking items read never writes to a store or calls upstream.
package notify
