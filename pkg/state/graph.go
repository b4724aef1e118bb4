package state

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Graph is the scope tree together with its listener registry and
// pending-mutation queue. All methods must be called from the single
// consumer goroutine that owns the graph (see Driver).
type Graph struct {
	// scopes is the arena of live scope records, keyed by stable ID.
	// IDs of removed scopes are never reused, so lookups on stale IDs
	// simply miss.
	scopes map[ScopeID]*scope
	root   ScopeID

	// byListener indexes live listeners for unregistration.
	byListener map[ListenerID]*listener

	// passDepth is > 0 while a propagation pass (possibly nested via
	// SetValue from a callback) is running.
	passDepth int

	// pending are structural mutations queued during a pass, FIFO.
	pending []mutation

	// pendingScopes indexes queued scope creations by ID, so a scope
	// created earlier in the same pass can be the target of further
	// mutations before its creation has been applied.
	pendingScopes map[ScopeID]*scopeSeed

	// draining guards against re-entrant queue drains: applying a
	// queued registration runs its initial invocation, which may queue
	// further mutations.
	draining bool

	rootBindings Bindings

	logger      *slog.Logger
	equals      EqualsFunc
	errorHook   func(*ListenerError)
	removalHook func(ScopeID)
	metrics     *graphMetrics
	tracer      trace.Tracer
}

// NewGraph creates an empty graph with a root scope and returns both.
func NewGraph(opts ...Option) (*Graph, ScopeID) {
	g := &Graph{
		scopes:        make(map[ScopeID]*scope),
		byListener:    make(map[ListenerID]*listener),
		pendingScopes: make(map[ScopeID]*scopeSeed),
		rootBindings:  make(Bindings),
		logger:        slog.Default().With("component", "state"),
		equals:        defaultEquals,
	}

	for _, opt := range opts {
		opt(g)
	}

	root := &scope{
		id:   ScopeID(nextID()),
		name: "root",
		vars: g.rootBindings,
	}
	g.rootBindings = nil
	g.scopes[root.id] = root
	g.root = root.id

	if g.metrics != nil {
		g.metrics.scopes.Inc()
	}
	return g, root.id
}

// Root returns the root scope's ID.
func (g *Graph) Root() ScopeID {
	return g.root
}

// scopeKnown reports whether id names a live scope or one whose
// creation is queued in the current pass. Callbacks may keep building
// on a scope they just created; the queued mutations sort themselves
// out at drain time because creation was enqueued first.
func (g *Graph) scopeKnown(id ScopeID) bool {
	if _, ok := g.scopes[id]; ok {
		return true
	}
	_, ok := g.pendingScopes[id]
	return ok
}

// CreateScope allocates a new scope as a child of parent, seeded with
// the given initial bindings. The returned ID is valid immediately, but
// when called during a propagation pass the scope becomes resolvable
// only after the pass completes.
func (g *Graph) CreateScope(parent ScopeID, initial Bindings) (ScopeID, error) {
	return g.CreateScopeNamed("", parent, initial)
}

// CreateScopeNamed is CreateScope with a debug name attached to the
// scope (custom widget name, repeat construct, ...).
func (g *Graph) CreateScopeNamed(name string, parent ScopeID, initial Bindings) (ScopeID, error) {
	if !g.scopeKnown(parent) {
		return 0, &UnknownScopeError{Scope: parent}
	}

	id := ScopeID(nextID())
	vars := make(Bindings, len(initial))
	for k, v := range initial {
		vars[k] = v
	}

	if g.inPass() {
		seed := &scopeSeed{parent: parent, name: name, vars: vars}
		g.pendingScopes[id] = seed
		g.enqueue(mutation{kind: mutCreateScope, scope: id, seed: seed})
		return id, nil
	}
	g.attachScope(id, name, parent, vars)
	return id, nil
}

// attachScope links a new scope record into the tree.
func (g *Graph) attachScope(id ScopeID, name string, parent ScopeID, vars Bindings) {
	s := &scope{id: id, name: name, parent: parent, vars: vars}
	g.scopes[id] = s
	g.scopes[parent].children = append(g.scopes[parent].children, id)

	if g.metrics != nil {
		g.metrics.scopes.Inc()
	}
	g.logger.Debug("scope created", "scope", id, "parent", parent, "name", name)
}

// RemoveScope detaches the subtree rooted at id and destroys it,
// descendants first. All listeners registered in the subtree are
// unregistered without being invoked. When called during a propagation
// pass the removal is queued and applied after the pass completes.
func (g *Graph) RemoveScope(id ScopeID) error {
	if !g.scopeKnown(id) {
		return &UnknownScopeError{Scope: id}
	}

	if g.inPass() {
		g.enqueue(mutation{kind: mutRemoveScope, scope: id})
		return nil
	}
	g.removeScopeNow(id)
	return nil
}

// removeScopeNow tears down the subtree post-order, so cleanup
// notifications fire leaf first.
func (g *Graph) removeScopeNow(id ScopeID) {
	s, ok := g.scopes[id]
	if !ok {
		return
	}

	children := append([]ScopeID(nil), s.children...)
	for _, child := range children {
		g.removeScopeNow(child)
	}

	for _, l := range s.listeners {
		delete(g.byListener, l.id)
		if g.metrics != nil {
			g.metrics.listeners.Dec()
		}
	}
	s.listeners = nil

	if parent, ok := g.scopes[s.parent]; ok {
		parent.removeChild(id)
	}
	delete(g.scopes, id)

	if g.metrics != nil {
		g.metrics.scopes.Dec()
	}
	g.logger.Debug("scope removed", "scope", id, "name", s.name)

	if g.removalHook != nil {
		g.removalHook(id)
	}
}

// Resolve walks from scope toward the root and returns the first scope
// that defines name directly. The second result is false if name is
// undefined along the whole chain, or if scope itself is unknown.
func (g *Graph) Resolve(scope ScopeID, name string) (ScopeID, bool) {
	s, ok := g.scopes[scope]
	for ok {
		if s.definesLocally(name) {
			return s.id, true
		}
		if s.parent == 0 {
			break
		}
		s, ok = g.scopes[s.parent]
	}
	return 0, false
}

// GetValue resolves name from scope and reads it. Read-only: it never
// errors, returning false for unknown scopes and undefined names alike.
func (g *Graph) GetValue(scope ScopeID, name string) (Value, bool) {
	owner, ok := g.Resolve(scope, name)
	if !ok {
		return nil, false
	}
	return g.scopes[owner].vars[name], true
}

// SetValue resolves the owning scope for name starting at origin,
// stores value there, and propagates the change to every listener that
// resolves name to that scope. Setting a variable to a value equal to
// its current one is a no-op.
//
// SetValue may be called from inside a listener callback; the nested
// change propagates inline and structural mutations stay queued until
// the outermost pass completes.
func (g *Graph) SetValue(origin ScopeID, name string, value Value) error {
	if !g.scopeKnown(origin) {
		return &UnknownScopeError{Scope: origin}
	}

	// Walk any pending-creation prefix of the chain. A write that lands
	// in a queued scope just updates its seed bindings: nothing can be
	// listening there yet, and queued listeners read the seed when they
	// attach.
	start := origin
	for {
		seed, ok := g.pendingScopes[start]
		if !ok {
			break
		}
		if _, defined := seed.vars[name]; defined {
			if !g.equals(seed.vars[name], value) {
				seed.vars[name] = value
			}
			return nil
		}
		start = seed.parent
	}

	ownerID, ok := g.Resolve(start, name)
	if !ok {
		return &UndefinedVariableError{Scope: origin, Name: name}
	}

	owner := g.scopes[ownerID]
	if g.equals(owner.vars[name], value) {
		return nil
	}
	owner.vars[name] = value

	g.beginPass()
	defer g.endPass()
	g.runPass(ownerID, name)
	return nil
}

// Register attaches a listener to scope. The callback is invoked once
// immediately to establish initial state; that first invocation is an
// initialization, not a change. When called during a propagation pass,
// attachment and the initial invocation are deferred until the pass
// completes; the returned ID is valid either way.
func (g *Graph) Register(scope ScopeID, needed []string, fn ListenerFunc) (ListenerID, error) {
	if !g.scopeKnown(scope) {
		return 0, &UnknownScopeError{Scope: scope}
	}

	l := &listener{
		id:     ListenerID(nextID()),
		scope:  scope,
		needed: append([]string(nil), needed...),
		fn:     fn,
	}

	if g.inPass() {
		g.enqueue(mutation{kind: mutRegister, listener: l})
		return l.id, nil
	}
	g.attachListener(l)
	return l.id, nil
}

// attachListener links the listener into its scope and runs the
// initial invocation under pass accounting, so structural mutations it
// requests are queued like any other callback's.
func (g *Graph) attachListener(l *listener) {
	s, ok := g.scopes[l.scope]
	if !ok {
		g.logger.Warn("dropping listener registration for removed scope", "scope", l.scope, "listener", l.id)
		return
	}
	s.listeners = append(s.listeners, l)
	g.byListener[l.id] = l
	if g.metrics != nil {
		g.metrics.listeners.Inc()
	}

	g.beginPass()
	defer g.endPass()
	g.invoke(l, "")
}

// ListenersFor returns, in registration order, the IDs of the
// listeners registered in scope whose needed set contains name.
func (g *Graph) ListenersFor(scope ScopeID, name string) []ListenerID {
	s, ok := g.scopes[scope]
	if !ok {
		return nil
	}
	var ids []ListenerID
	for _, l := range s.listeners {
		if l.needs(name) {
			ids = append(ids, l.id)
		}
	}
	return ids
}

// Unregister detaches a listener before its scope is destroyed. It is
// a no-op for unknown IDs. During a propagation pass the detachment is
// queued; the listener may still run in the current pass.
func (g *Graph) Unregister(id ListenerID) {
	if g.inPass() {
		g.enqueue(mutation{kind: mutUnregister, listenerID: id})
		return
	}
	g.unregisterNow(id)
}

func (g *Graph) unregisterNow(id ListenerID) {
	l, ok := g.byListener[id]
	if !ok {
		return
	}
	delete(g.byListener, id)
	if s, ok := g.scopes[l.scope]; ok {
		s.removeListener(id)
	}
	if g.metrics != nil {
		g.metrics.listeners.Dec()
	}
}
