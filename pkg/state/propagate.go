package state

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// inPass reports whether a propagation pass is currently running.
func (g *Graph) inPass() bool {
	return g.passDepth > 0
}

func (g *Graph) beginPass() {
	g.passDepth++
}

// endPass closes one nesting level. The mutation queue drains only when
// the outermost pass has fully completed.
func (g *Graph) endPass() {
	g.passDepth--
	if g.passDepth == 0 && !g.draining {
		g.drainAndApply()
	}
}

// runPass invokes every listener affected by a change of name whose
// owning scope is owner. Must run between beginPass and endPass.
func (g *Graph) runPass(owner ScopeID, name string) {
	start := time.Now()

	var span trace.Span
	if g.tracer != nil {
		_, span = g.tracer.Start(context.Background(), "state.propagate",
			trace.WithAttributes(
				attribute.String("variable", name),
				attribute.Int64("scope", int64(owner)),
			))
	}

	// Snapshot the affected set before invoking anything: callbacks may
	// queue structural changes, and queued registrations must not join
	// the current pass.
	affected := g.collectAffected(owner, name)

	if span != nil {
		span.SetAttributes(attribute.Int("affected", len(affected)))
	}

	for _, l := range affected {
		g.invoke(l, name)
	}

	if g.metrics != nil {
		g.metrics.passes.Inc()
		g.metrics.passDuration.Observe(time.Since(start).Seconds())
	}
	if span != nil {
		span.End()
	}
}

// collectAffected gathers, in deterministic order, the listeners that
// resolve name to the owning scope: first the owner's own listeners,
// then descendants breadth-first. A branch is pruned as soon as a
// descendant re-defines name, since that shadows the owner for the
// whole subtree.
func (g *Graph) collectAffected(owner ScopeID, name string) []*listener {
	var affected []*listener

	queue := []ScopeID{owner}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		s, ok := g.scopes[id]
		if !ok {
			continue
		}
		if id != owner && s.definesLocally(name) {
			continue
		}

		for _, l := range s.listeners {
			if l.needs(name) {
				affected = append(affected, l)
			}
		}
		queue = append(queue, s.children...)
	}
	return affected
}

// invoke runs one listener callback with the current resolved values of
// its full needed set. Failures are isolated: they are reported and the
// pass continues. changed is the variable that triggered the pass, or
// "" for the initial invocation at registration time.
func (g *Graph) invoke(l *listener, changed string) {
	values := make(Bindings, len(l.needed))
	for _, n := range l.needed {
		if v, ok := g.GetValue(l.scope, n); ok {
			values[n] = v
		}
	}

	if g.metrics != nil {
		g.metrics.invocations.Inc()
	}

	if err := l.fn(g, values); err != nil {
		g.reportListenerError(&ListenerError{
			Listener: l.id,
			Scope:    l.scope,
			Variable: changed,
			Err:      err,
		})
	}
}

func (g *Graph) reportListenerError(err *ListenerError) {
	if g.metrics != nil {
		g.metrics.failures.Inc()
	}
	if g.errorHook != nil {
		g.errorHook(err)
		return
	}
	g.logger.Error("listener failed",
		"listener", err.Listener,
		"scope", err.Scope,
		"variable", err.Variable,
		"error", err.Err)
}
