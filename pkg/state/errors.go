package state

import (
	"errors"
	"fmt"
)

// ErrUnknownScope is matched (via errors.Is) by errors returned for
// operations on a scope ID that was removed or never existed.
var ErrUnknownScope = errors.New("state: unknown scope")

// ErrUndefinedVariable is matched by errors returned when a variable
// name cannot be resolved from the given scope or any of its ancestors.
var ErrUndefinedVariable = errors.New("state: undefined variable")

// UnknownScopeError reports an operation against a scope that is not
// (or no longer) part of the graph.
type UnknownScopeError struct {
	Scope ScopeID
}

func (e *UnknownScopeError) Error() string {
	return fmt.Sprintf("state: unknown scope %d", e.Scope)
}

// Is makes errors.Is(err, ErrUnknownScope) work.
func (e *UnknownScopeError) Is(target error) bool {
	return target == ErrUnknownScope
}

// UndefinedVariableError reports a variable name that is not defined in
// the given scope or any ancestor.
type UndefinedVariableError struct {
	Scope ScopeID
	Name  string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("state: variable %q not defined in scope %d or its ancestors", e.Name, e.Scope)
}

// Is makes errors.Is(err, ErrUndefinedVariable) work.
func (e *UndefinedVariableError) Is(target error) bool {
	return target == ErrUndefinedVariable
}

// ListenerError wraps a failure raised by a listener callback during a
// propagation pass. It is reported through the graph's error hook and
// never aborts the pass.
type ListenerError struct {
	Listener ListenerID
	Scope    ScopeID
	Variable string
	Err      error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("state: listener %d in scope %d failed on %q: %v", e.Listener, e.Scope, e.Variable, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ListenerError) Unwrap() error {
	return e.Err
}
