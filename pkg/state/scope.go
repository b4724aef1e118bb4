package state

// scope is a node in the graph's tree. Variables defined here shadow
// same-named variables in ancestors for this scope and its descendants.
type scope struct {
	id     ScopeID
	name   string
	parent ScopeID // 0 for the root scope

	// children in creation order. Order matters for deterministic
	// propagation and for leaf-first teardown.
	children []ScopeID

	// vars holds the variables defined directly in this scope.
	vars Bindings

	// listeners registered in this scope, in registration order.
	listeners []*listener
}

// definesLocally reports whether the scope defines name itself,
// ignoring ancestors.
func (s *scope) definesLocally(name string) bool {
	_, ok := s.vars[name]
	return ok
}

// removeChild drops a child ID from the children list, preserving order.
func (s *scope) removeChild(id ScopeID) {
	for i, c := range s.children {
		if c == id {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}

// removeListener drops a listener from this scope, preserving order.
func (s *scope) removeListener(id ListenerID) {
	for i, l := range s.listeners {
		if l.id == id {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}
