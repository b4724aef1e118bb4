package build

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/weftui/weft/pkg/state"
)

// Builder builds widget trees, registering the scopes and listeners
// that keep them live. It must be used on the graph's consumer
// goroutine.
type Builder struct {
	graph    *state.Graph
	factory  Factory
	defs     map[string]*Def
	teardown func(state.ScopeID)
	logger   *slog.Logger

	// trace, when set, accumulates the graph resources a build creates.
	// Dynamic slots use it to release a child's bindings before
	// rebuilding.
	trace *buildTrace
}

// buildTrace records the listeners and scopes one subtree build
// registered, so the whole subtree can be released later.
type buildTrace struct {
	listeners []state.ListenerID
	scopes    []state.ScopeID
}

func (t *buildTrace) release(g *state.Graph) {
	for _, id := range t.listeners {
		g.Unregister(id)
	}
	for _, id := range t.scopes {
		// Already gone if the toolkit unmapped the widget first.
		_ = g.RemoveScope(id)
	}
	t.listeners = nil
	t.scopes = nil
}

// register is graph.Register plus trace accounting.
func (b *Builder) register(scope state.ScopeID, needed []string, fn state.ListenerFunc) (state.ListenerID, error) {
	id, err := b.graph.Register(scope, needed, fn)
	if err == nil && b.trace != nil {
		b.trace.listeners = append(b.trace.listeners, id)
	}
	return id, err
}

// createScope is graph.CreateScopeNamed plus trace accounting.
func (b *Builder) createScope(name string, parent state.ScopeID, initial state.Bindings) (state.ScopeID, error) {
	id, err := b.graph.CreateScopeNamed(name, parent, initial)
	if err == nil && b.trace != nil {
		b.trace.scopes = append(b.trace.scopes, id)
	}
	return id, err
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the builder's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithTeardown sets the function called when an unmapped widget's scope
// should be removed. The default removes the scope directly; embeddings
// whose unmap signals arrive off-thread should pass a function that
// marshals onto the consumer goroutine (Driver.RemoveScope).
func WithTeardown(fn func(state.ScopeID)) Option {
	return func(b *Builder) {
		if fn != nil {
			b.teardown = fn
		}
	}
}

// New creates a Builder over graph using the toolkit's factory and the
// known custom widget definitions.
func New(graph *state.Graph, factory Factory, defs map[string]*Def, opts ...Option) *Builder {
	b := &Builder{
		graph:   graph,
		factory: factory,
		defs:    defs,
		logger:  slog.Default().With("component", "build"),
	}
	b.teardown = func(id state.ScopeID) {
		if err := graph.RemoveScope(id); err != nil {
			b.logger.Debug("teardown", "scope", id, "error", err)
		}
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build constructs the widget described by use. For a custom widget
// this sets up a new scope seeded with the argument values, registers
// the forwarding listeners that keep those arguments reactive, and
// recursively builds the definition body. inv carries the invocation
// context for "children" expansion inside custom widget bodies; it is
// nil outside of them.
func (b *Builder) Build(callingScope state.ScopeID, use *Use, inv *Invocation) (Widget, error) {
	if def, ok := b.defs[use.Name]; ok {
		return b.buildCustom(callingScope, def, use)
	}
	return b.buildBuiltin(callingScope, use, inv)
}

func (b *Builder) buildCustom(callingScope state.ScopeID, def *Def, use *Use) (Widget, error) {
	// Resolve the argument expressions the use supplies for the
	// definition's expected args. Definition order keeps registration
	// deterministic.
	exprs := make([]Expr, len(def.Args))
	initial := make(state.Bindings, len(def.Args))
	for i, spec := range def.Args {
		expr, ok := use.Attrs[spec.Name]
		if !ok {
			if !spec.Optional {
				return nil, &MissingAttrError{Widget: use.Name, Attr: spec.Name}
			}
			expr = Literal{Value: ""}
		}
		exprs[i] = expr

		v, err := b.evalInScope(callingScope, expr)
		if err != nil {
			return nil, fmt.Errorf("build: evaluating %s.%s: %w", use.Name, spec.Name, err)
		}
		initial[spec.Name] = v
	}

	scopeID, err := b.createScope(use.Name, callingScope, initial)
	if err != nil {
		return nil, err
	}

	// Keep arguments reactive: forward re-evaluated expressions from
	// the calling scope into the widget's scope. The forwarding
	// listeners live in the calling scope and die with it.
	for i, spec := range def.Args {
		refs := exprs[i].VarRefs()
		if len(refs) == 0 {
			continue
		}
		argName, expr := spec.Name, exprs[i]
		_, err := b.register(callingScope, refs, func(g *state.Graph, values state.Bindings) error {
			v, err := expr.Eval(values)
			if err != nil {
				return err
			}
			return g.SetValue(scopeID, argName, v)
		})
		if err != nil {
			return nil, err
		}
	}

	w, err := b.Build(scopeID, def.Body, &Invocation{Scope: callingScope, Children: use.Children})
	if err != nil {
		return nil, err
	}

	w.OnUnmap(func() { b.teardown(scopeID) })
	return w, nil
}

func (b *Builder) buildBuiltin(callingScope state.ScopeID, use *Use, inv *Invocation) (Widget, error) {
	args := &Args{
		Scope:      callingScope,
		Use:        use,
		Invocation: inv,
		builder:    b,
		unhandled:  make(map[string]bool, len(use.Attrs)),
	}
	for name := range use.Attrs {
		args.unhandled[name] = true
	}

	w, err := b.factory.New(args)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, &UnknownWidgetError{Widget: use.Name}
	}

	if container, ok := w.(Container); ok && len(use.Children) > 0 {
		if err := b.populateChildren(callingScope, container, use.Children, inv); err != nil {
			return nil, err
		}
	}

	if len(args.unhandled) > 0 {
		names := make([]string, 0, len(args.unhandled))
		for name := range args.unhandled {
			names = append(names, name)
		}
		sort.Strings(names)
		b.logger.Warn("unknown attributes", "widget", use.Name, "attrs", names)
	}
	return w, nil
}

// populateChildren adds the given child uses to a container. A child
// named "children" is the slot marker inside a custom widget body and
// expands to the children the widget was invoked with.
func (b *Builder) populateChildren(scope state.ScopeID, container Container, children []*Use, inv *Invocation) error {
	for _, child := range children {
		if child.Name == "children" {
			if inv == nil {
				return ErrNoCustomInvocation
			}
			if err := b.expandChildren(scope, child, container, inv); err != nil {
				return err
			}
			continue
		}
		w, err := b.Build(scope, child, inv)
		if err != nil {
			return err
		}
		container.AddChild(w)
	}
	return nil
}

// expandChildren handles one "children" slot. Without an nth attribute
// every passed child is built, in the invocation's scope. With nth, a
// dedicated box holds the selected child and a listener swaps it
// whenever the index expression changes.
func (b *Builder) expandChildren(scope state.ScopeID, use *Use, container Container, inv *Invocation) error {
	nth, ok := use.Attrs["nth"]
	if !ok {
		for _, child := range inv.Children {
			w, err := b.Build(inv.Scope, child, nil)
			if err != nil {
				return err
			}
			container.AddChild(w)
		}
		return nil
	}

	box, err := b.factory.NewBox()
	if err != nil {
		return err
	}
	container.AddChild(box)

	current := &buildTrace{}
	box.OnUnmap(func() { current.release(b.graph) })

	_, err = b.register(scope, nth.VarRefs(), func(g *state.Graph, values state.Bindings) error {
		v, err := nth.Eval(values)
		if err != nil {
			return err
		}
		idx, err := asInt(v)
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(inv.Children) {
			return fmt.Errorf("build: no child at index %d", idx)
		}

		outer := b.trace
		next := &buildTrace{}
		b.trace = next
		w, err := b.Build(inv.Scope, inv.Children[idx], nil)
		b.trace = outer
		if err != nil {
			next.release(g)
			return err
		}
		if outer != nil {
			outer.listeners = append(outer.listeners, next.listeners...)
			outer.scopes = append(outer.scopes, next.scopes...)
		}

		// The outgoing child's bindings must not keep firing.
		current.release(g)
		*current = *next
		box.Clear()
		box.AddChild(w)
		return nil
	})
	return err
}

// evalInScope evaluates expr against the bindings its references
// resolve to from scope. Unresolvable references are simply absent from
// the bindings; the evaluator decides whether that is an error.
func (b *Builder) evalInScope(scope state.ScopeID, expr Expr) (state.Value, error) {
	refs := expr.VarRefs()
	bindings := make(state.Bindings, len(refs))
	for _, ref := range refs {
		if v, ok := b.graph.GetValue(scope, ref); ok {
			bindings[ref] = v
		}
	}
	return expr.Eval(bindings)
}

func asInt(v state.Value) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("build: expected integer index, got %T", v)
	}
}

// Args is handed to Factory.New while a built-in widget is constructed.
// The factory resolves attributes through it; anything left unresolved
// is reported as an unknown attribute.
type Args struct {
	// Scope the widget is being built in.
	Scope state.ScopeID

	// Use being built.
	Use *Use

	// Invocation context, nil outside custom widget bodies.
	Invocation *Invocation

	builder   *Builder
	unhandled map[string]bool
}

// Graph exposes the underlying state graph, for factories that need
// direct reads.
func (a *Args) Graph() *state.Graph {
	return a.builder.graph
}

// BindAttr resolves a required attribute reactively: apply is called
// with the evaluated value now and again whenever a referenced variable
// changes. Returns MissingAttrError if the use lacks the attribute.
func (a *Args) BindAttr(name string, apply func(state.Value) error) error {
	expr, ok := a.Use.Attrs[name]
	if !ok {
		return &MissingAttrError{Widget: a.Use.Name, Attr: name}
	}
	delete(a.unhandled, name)
	return a.builder.bindExpr(a.Scope, expr, apply)
}

// BindOptionalAttr is BindAttr for attributes that may be absent.
func (a *Args) BindOptionalAttr(name string, apply func(state.Value) error) error {
	if _, ok := a.Use.Attrs[name]; !ok {
		return nil
	}
	return a.BindAttr(name, apply)
}

// bindExpr applies a constant expression once, or registers a listener
// that re-applies the expression on every change of its references.
func (b *Builder) bindExpr(scope state.ScopeID, expr Expr, apply func(state.Value) error) error {
	refs := expr.VarRefs()
	if len(refs) == 0 {
		v, err := expr.Eval(nil)
		if err != nil {
			return err
		}
		return apply(v)
	}

	_, err := b.register(scope, refs, func(g *state.Graph, values state.Bindings) error {
		v, err := expr.Eval(values)
		if err != nil {
			return err
		}
		return apply(v)
	})
	return err
}
