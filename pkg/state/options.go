package state

import (
	"log/slog"

	"go.opentelemetry.io/otel"
)

// Option configures a Graph at construction time.
type Option func(*Graph)

// WithLogger sets the logger used for listener failures and dropped
// mutations. Defaults to slog.Default() with a "component" attribute.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithEquals sets the equality function used for change suppression.
// The default is structural equality (== for common comparable types,
// reflect.DeepEqual otherwise). Use this for value types where deep
// equality is too expensive or has the wrong semantics.
func WithEquals(fn EqualsFunc) Option {
	return func(g *Graph) {
		if fn != nil {
			g.equals = fn
		}
	}
}

// WithErrorHook sets the function invoked for each listener failure
// during propagation. When unset, failures are logged at error level.
func WithErrorHook(fn func(*ListenerError)) Option {
	return func(g *Graph) {
		g.errorHook = fn
	}
}

// WithRemovalHook sets a best-effort notification invoked once per
// removed scope, leaf first, so external consumers (the UI builder) can
// tear down corresponding state. The hook runs outside any propagation
// pass and must not retain the graph across calls.
func WithRemovalHook(fn func(ScopeID)) Option {
	return func(g *Graph) {
		g.removalHook = fn
	}
}

// WithRootBindings seeds the root scope with initial variables.
func WithRootBindings(initial Bindings) Option {
	return func(g *Graph) {
		for k, v := range initial {
			g.rootBindings[k] = v
		}
	}
}

// WithMetrics enables Prometheus instrumentation of the graph.
func WithMetrics(cfg MetricsConfig) Option {
	return func(g *Graph) {
		g.metrics = newMetrics(cfg)
	}
}

// WithTracing enables an OpenTelemetry span per propagation pass,
// using the globally registered tracer provider.
func WithTracing(tracerName string) Option {
	return func(g *Graph) {
		if tracerName == "" {
			tracerName = "weft"
		}
		g.tracer = otel.Tracer(tracerName)
	}
}
