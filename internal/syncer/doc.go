// Package syncer replicates a governance space's proposal and vote streams
// into durable storage.
//
// An Engine polls both streams sequentially on a fixed interval. Each stream
// keeps its own cursor, loaded from the store at start. Items are fetched
// strictly after the cursor in ascending creation order, persisted together
// with the new cursor in one store call, and only then is the in-memory
// cursor moved (write-then-commit).
//
// Votes are immutable, so the vote cursor simply follows the provider's
// continuation marker or the last item's creation time. Proposals can still
// change while pending or active, so the proposal cursor never moves past
// the first open proposal in a page (see AdvanceCursor).
//
// Fetch and persist failures are logged, counted and retried on the next
// cycle. A cursor moving backward is an invariant violation: it stops the
// loop and is reported through Err.
package syncer
