package state

import "sync/atomic"

// ScopeID identifies a scope in the graph. IDs are unique for the
// lifetime of the process and never reused, so a stale ID held by an
// asynchronous producer can always be safely checked for existence.
type ScopeID uint64

// ListenerID identifies a registered listener.
type ListenerID uint64

// Scopes and listeners draw from one process-wide counter. Sharing the
// sequence keeps every ID distinct, which makes stale handles fail
// lookups instead of aliasing a newer object.
var globalIDCounter uint64

// nextID allocates the next ID. Atomic because graphs on different
// goroutines share the counter, even though each graph itself is
// single-threaded.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}
