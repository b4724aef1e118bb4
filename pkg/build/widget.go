package build

import "github.com/weftui/weft/pkg/state"

// Widget is an opaque handle to a toolkit widget.
type Widget interface {
	// OnUnmap registers fn to run when the widget is torn down.
	// The toolkit must call fn on the graph's consumer goroutine.
	OnUnmap(fn func())
}

// Container is a widget that holds child widgets.
type Container interface {
	Widget
	AddChild(Widget)
	Clear()
}

// Factory constructs built-in widgets for a concrete toolkit.
type Factory interface {
	// New builds the widget named by args.Use. Implementations resolve
	// attributes through args.BindAttr / args.BindOptionalAttr, which
	// keeps them reactive. Returning an error aborts the build; a nil
	// widget with a nil error means the factory does not know the name,
	// and the build fails with UnknownWidgetError.
	New(args *Args) (Widget, error)

	// NewBox builds a neutral container used for expanded "children"
	// slots, so the selected child can be swapped on change.
	NewBox() (Container, error)
}

// Expr is the external expression collaborator: a pure function from a
// variable-name→value mapping to a computed value or an evaluation
// error.
type Expr interface {
	// VarRefs returns the variable names the expression reads.
	VarRefs() []string

	// Eval computes the expression against the given bindings.
	Eval(bindings state.Bindings) (state.Value, error)
}

// Literal is an Expr holding a constant value.
type Literal struct {
	Value state.Value
}

func (l Literal) VarRefs() []string { return nil }

func (l Literal) Eval(state.Bindings) (state.Value, error) { return l.Value, nil }

// ArgSpec describes one expected argument of a custom widget.
type ArgSpec struct {
	Name     string
	Optional bool
}

// Def is a custom widget definition: a name, its expected arguments and
// the widget body they parameterize.
type Def struct {
	Name string
	Args []ArgSpec
	Body *Use
}

// Use is one use of a widget (built-in or custom) in a UI description.
type Use struct {
	Name     string
	Attrs    map[string]Expr
	Children []*Use
}

// Invocation carries the context of a custom-widget invocation while
// its body is built. When the body uses the special "children" widget,
// the children originally passed to the widget are expanded, evaluated
// in the scope the widget was invoked from.
type Invocation struct {
	// Scope the custom widget was invoked in.
	Scope state.ScopeID

	// Children given to the custom widget, to be evaluated in Scope.
	Children []*Use
}
