package state

// ListenerFunc is the callback contract for listeners. It receives the
// graph and the current resolved values of every variable in the
// listener's needed set, not just the one that changed.
//
// Callbacks run on the graph's consumer goroutine. Structural mutations
// requested through g (CreateScope, RemoveScope, Register, Unregister)
// during a propagation pass are queued and applied after the pass
// completes. A returned error is reported through the graph's error
// hook and does not stop the remaining listeners of the pass.
type ListenerFunc func(g *Graph, values Bindings) error

// listener is a reactive subscription registered in a scope.
type listener struct {
	id    ListenerID
	scope ScopeID

	// needed are the variable names this listener depends on, resolved
	// relative to the scope it is registered in.
	needed []string

	fn ListenerFunc
}

// needs reports whether name is in the listener's needed set.
func (l *listener) needs(name string) bool {
	for _, n := range l.needed {
		if n == name {
			return true
		}
	}
	return false
}
