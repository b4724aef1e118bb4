// Package state implements the reactive scope graph that drives Weft
// UI rebuilds.
//
// The graph is a tree of scopes. Each scope holds named variables and a
// set of listeners; variables defined in a scope are visible to that
// scope and all of its descendants, with local definitions shadowing
// inherited ones.
//
// # Core Types
//
// Graph owns the whole tree:
//
//	g, root := NewGraph(WithRootBindings(state.Bindings{"user": "anna"}))
//	child, _ := g.CreateScope(root, state.Bindings{"count": 0})
//
// Listeners subscribe to a set of variable names, resolved from the
// scope they are registered in:
//
//	g.Register(child, []string{"count", "user"}, func(g *state.Graph, vs state.Bindings) error {
//	    fmt.Println(vs["user"], vs["count"])
//	    return nil
//	})
//
// Setting a variable propagates to every listener that resolves that
// variable to the scope that owns it:
//
//	g.SetValue(child, "count", 1)
//
// # Structural Mutation
//
// Scope creation, scope removal, and listener registration requested
// from inside a listener callback are queued and applied after the
// current propagation pass completes. A callback may remove its own
// scope without corrupting the pass.
//
// # Threading
//
// A Graph is owned by a single consumer goroutine. Asynchronous
// producers hand updates to that goroutine through a Driver rather
// than touching the graph directly.
package state
