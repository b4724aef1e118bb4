package state

// mutationKind discriminates queued structural mutations.
type mutationKind uint8

const (
	mutCreateScope mutationKind = iota + 1
	mutRemoveScope
	mutRegister
	mutUnregister
)

// scopeSeed is the not-yet-attached state of a scope whose creation is
// queued. The graph indexes seeds by ID so later mutations in the same
// pass can target the scope, and so writes to its variables land before
// any listener sees them.
type scopeSeed struct {
	parent ScopeID
	name   string
	vars   Bindings
}

// mutation is one queued structural change. Mutations preserve FIFO
// order relative to each other and are applied only after the
// propagation pass that produced them has fully completed.
type mutation struct {
	kind mutationKind

	// mutCreateScope / mutRemoveScope
	scope ScopeID
	seed  *scopeSeed

	// mutRegister
	listener *listener

	// mutUnregister
	listenerID ListenerID
}

func (g *Graph) enqueue(m mutation) {
	g.pending = append(g.pending, m)
	if g.metrics != nil {
		g.metrics.queued.Inc()
	}
}

// drainAndApply applies queued mutations in FIFO order. Applying a
// registration runs its initial invocation, which may queue further
// mutations; the loop keeps going until the queue is empty. This is the
// only place the tree's shape changes as a result of callback requests.
func (g *Graph) drainAndApply() {
	g.draining = true
	defer func() { g.draining = false }()

	for len(g.pending) > 0 {
		m := g.pending[0]
		g.pending = g.pending[1:]
		g.apply(m)
	}
}

// apply revalidates each mutation against the current tree: an earlier
// queued removal may have taken the parent (or the whole target
// subtree) with it.
func (g *Graph) apply(m mutation) {
	switch m.kind {
	case mutCreateScope:
		delete(g.pendingScopes, m.scope)
		if _, ok := g.scopes[m.seed.parent]; !ok {
			g.logger.Warn("dropping queued scope creation, parent removed",
				"scope", m.scope, "parent", m.seed.parent)
			return
		}
		g.attachScope(m.scope, m.seed.name, m.seed.parent, m.seed.vars)

	case mutRemoveScope:
		// Already gone if an ancestor's queued removal ran first.
		g.removeScopeNow(m.scope)

	case mutRegister:
		g.attachListener(m.listener)

	case mutUnregister:
		g.unregisterNow(m.listenerID)
	}
}
