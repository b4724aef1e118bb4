// Package build constructs widget trees against the state graph.
//
// The package is toolkit-agnostic: widgets are consumed through the
// Widget/Container interfaces and constructed by a Factory supplied by
// the embedding toolkit. Attribute values are expressions (the Expr
// interface); build registers a listener per reactive attribute so the
// toolkit's apply function re-runs whenever a referenced variable
// changes.
//
// Custom widget definitions introduce a new scope seeded with their
// argument values. Arguments stay reactive: a listener in the calling
// scope forwards re-evaluated argument expressions into the widget's
// scope. Tearing down the produced widget (unmap) removes the scope,
// and with it every listener the widget's body registered.
package build
