package state

import (
	"errors"
	"testing"
)

// recorder is a test listener callback that records its invocations.
type recorder struct {
	calls int
	last  Bindings
}

func (r *recorder) fn(g *Graph, values Bindings) error {
	r.calls++
	r.last = values
	return nil
}

func TestNewGraphRoot(t *testing.T) {
	g, root := NewGraph(WithRootBindings(Bindings{"user": "anna"}))

	if g.Root() != root {
		t.Errorf("Root() = %d, want %d", g.Root(), root)
	}
	if v, ok := g.GetValue(root, "user"); !ok || v != "anna" {
		t.Errorf("GetValue(root, user) = %v, %v, want anna, true", v, ok)
	}
}

func TestCreateScopeUnknownParent(t *testing.T) {
	g, _ := NewGraph()

	_, err := g.CreateScope(ScopeID(999999), nil)
	if !errors.Is(err, ErrUnknownScope) {
		t.Errorf("expected ErrUnknownScope, got %v", err)
	}
}

func TestResolveShadowing(t *testing.T) {
	g, a := NewGraph(WithRootBindings(Bindings{"x": 1}))
	b, err := g.CreateScope(a, Bindings{"x": 2})
	if err != nil {
		t.Fatalf("CreateScope: %v", err)
	}
	c, err := g.CreateScope(b, nil)
	if err != nil {
		t.Fatalf("CreateScope: %v", err)
	}

	if owner, ok := g.Resolve(c, "x"); !ok || owner != b {
		t.Errorf("Resolve(c, x) = %d, %v, want %d, true", owner, ok, b)
	}
	if owner, ok := g.Resolve(a, "x"); !ok || owner != a {
		t.Errorf("Resolve(a, x) = %d, %v, want %d, true", owner, ok, a)
	}
	if v, ok := g.GetValue(c, "x"); !ok || v != 2 {
		t.Errorf("GetValue(c, x) = %v, want 2", v)
	}
}

func TestShadowedListenerUnaffected(t *testing.T) {
	g, a := NewGraph(WithRootBindings(Bindings{"x": 1}))
	b, _ := g.CreateScope(a, Bindings{"x": 2})

	inA := &recorder{}
	if _, err := g.Register(a, []string{"x"}, inA.fn); err != nil {
		t.Fatalf("Register: %v", err)
	}
	initial := inA.calls

	// Changing the shadowing definition in b must not touch a's listener.
	if err := g.SetValue(b, "x", 3); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if inA.calls != initial {
		t.Errorf("listener in ancestor invoked %d extra times for shadowed change", inA.calls-initial)
	}
	if v, _ := g.GetValue(a, "x"); v != 1 {
		t.Errorf("ancestor value changed to %v, want 1", v)
	}
}

func TestSetValueWritesToOwningScope(t *testing.T) {
	g, a := NewGraph(WithRootBindings(Bindings{"x": 1}))
	b, _ := g.CreateScope(a, nil)
	c, _ := g.CreateScope(a, nil)

	// b does not define x, so the write lands in a and is visible from c.
	if err := g.SetValue(b, "x", 5); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if v, ok := g.GetValue(c, "x"); !ok || v != 5 {
		t.Errorf("GetValue(c, x) = %v, %v, want 5, true", v, ok)
	}
}

func TestSetValueUndefined(t *testing.T) {
	g, root := NewGraph()

	err := g.SetValue(root, "nope", 1)
	if !errors.Is(err, ErrUndefinedVariable) {
		t.Errorf("expected ErrUndefinedVariable, got %v", err)
	}

	var uv *UndefinedVariableError
	if !errors.As(err, &uv) {
		t.Fatalf("expected *UndefinedVariableError, got %T", err)
	}
	if uv.Name != "nope" || uv.Scope != root {
		t.Errorf("error fields = %q/%d, want nope/%d", uv.Name, uv.Scope, root)
	}
}

func TestIdempotentUndefinedLookups(t *testing.T) {
	g, root := NewGraph()

	for i := 0; i < 3; i++ {
		if v, ok := g.GetValue(root, "nonexistent"); ok || v != nil {
			t.Errorf("GetValue #%d = %v, %v, want nil, false", i, v, ok)
		}
	}
	if _, ok := g.GetValue(ScopeID(424242), "anything"); ok {
		t.Error("GetValue on unknown scope should return false")
	}
}

func TestRemoveScopeCascading(t *testing.T) {
	g, root := NewGraph(WithRootBindings(Bindings{"x": 1}))
	parent, _ := g.CreateScope(root, nil)
	child1, _ := g.CreateScope(parent, nil)
	child2, _ := g.CreateScope(parent, nil)

	r1 := &recorder{}
	r2 := &recorder{}
	g.Register(child1, []string{"x"}, r1.fn)
	g.Register(child2, []string{"x"}, r2.fn)
	c1Before, c2Before := r1.calls, r2.calls

	var removed []ScopeID
	g.removalHook = func(id ScopeID) { removed = append(removed, id) }

	if err := g.RemoveScope(parent); err != nil {
		t.Fatalf("RemoveScope: %v", err)
	}

	// Leaf-first teardown order.
	want := []ScopeID{child1, child2, parent}
	if len(removed) != len(want) {
		t.Fatalf("removal hook fired %d times, want %d", len(removed), len(want))
	}
	for i := range want {
		if removed[i] != want[i] {
			t.Errorf("removal order[%d] = %d, want %d", i, removed[i], want[i])
		}
	}

	// Removal itself invokes no listeners.
	if r1.calls != c1Before || r2.calls != c2Before {
		t.Error("listeners invoked during scope removal")
	}

	// The subtree is unresolvable and its listeners are gone.
	for _, id := range []ScopeID{parent, child1, child2} {
		if _, ok := g.Resolve(id, "x"); ok {
			t.Errorf("Resolve on removed scope %d succeeded", id)
		}
	}
	if len(g.byListener) != 0 {
		t.Errorf("%d listeners survived cascading removal", len(g.byListener))
	}

	// Listeners in removed scopes never run again.
	g.SetValue(root, "x", 2)
	if r1.calls != c1Before || r2.calls != c2Before {
		t.Error("listener in removed scope invoked by later change")
	}
}

func TestRemoveScopeUnknown(t *testing.T) {
	g, root := NewGraph()
	child, _ := g.CreateScope(root, nil)

	if err := g.RemoveScope(child); err != nil {
		t.Fatalf("RemoveScope: %v", err)
	}
	if err := g.RemoveScope(child); !errors.Is(err, ErrUnknownScope) {
		t.Errorf("second removal: expected ErrUnknownScope, got %v", err)
	}
}

func TestUnregister(t *testing.T) {
	g, root := NewGraph(WithRootBindings(Bindings{"x": 1}))

	r := &recorder{}
	id, err := g.Register(root, []string{"x"}, r.fn)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	before := r.calls

	g.Unregister(id)
	g.SetValue(root, "x", 2)
	if r.calls != before {
		t.Error("unregistered listener was invoked")
	}

	// Unknown IDs are a no-op.
	g.Unregister(ListenerID(987654))
}

func TestListenersFor(t *testing.T) {
	g, root := NewGraph(WithRootBindings(Bindings{"x": 1, "y": 2}))
	child, _ := g.CreateScope(root, nil)

	r := &recorder{}
	l1, _ := g.Register(root, []string{"x", "y"}, r.fn)
	g.Register(root, []string{"y"}, r.fn)
	l3, _ := g.Register(root, []string{"x"}, r.fn)

	got := g.ListenersFor(root, "x")
	if len(got) != 2 || got[0] != l1 || got[1] != l3 {
		t.Errorf("ListenersFor(root, x) = %v, want [%d %d]", got, l1, l3)
	}
	if got := g.ListenersFor(child, "x"); got != nil {
		t.Errorf("ListenersFor(child, x) = %v, want nil", got)
	}
	if got := g.ListenersFor(ScopeID(31337), "x"); got != nil {
		t.Errorf("ListenersFor(unknown, x) = %v, want nil", got)
	}
}

func TestCustomEquals(t *testing.T) {
	// Treat all ints as equal: no change ever propagates.
	g, root := NewGraph(
		WithRootBindings(Bindings{"x": 1}),
		WithEquals(func(a, b Value) bool {
			_, aInt := a.(int)
			_, bInt := b.(int)
			return aInt && bInt
		}),
	)

	r := &recorder{}
	g.Register(root, []string{"x"}, r.fn)
	before := r.calls

	g.SetValue(root, "x", 99)
	if r.calls != before {
		t.Error("custom equals should have suppressed propagation")
	}
	if v, _ := g.GetValue(root, "x"); v != 1 {
		t.Errorf("suppressed set must not store, got %v", v)
	}
}
