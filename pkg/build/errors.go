package build

import (
	"errors"
	"fmt"
)

// ErrNoCustomInvocation is returned when a "children" expansion is
// requested outside of a custom-widget invocation context.
var ErrNoCustomInvocation = errors.New(`build: "children" used outside a custom widget invocation`)

// MissingAttrError reports a required attribute absent from a widget use.
type MissingAttrError struct {
	Widget string
	Attr   string
}

func (e *MissingAttrError) Error() string {
	return fmt.Sprintf("build: widget %q is missing required attribute %q", e.Widget, e.Attr)
}

// UnknownWidgetError reports a widget name with neither a definition
// nor a built-in implementation.
type UnknownWidgetError struct {
	Widget string
}

func (e *UnknownWidgetError) Error() string {
	return fmt.Sprintf("build: unknown widget %q", e.Widget)
}
