package state

import (
	"context"
	"log/slog"
)

// Command is a unit of work executed against the graph on its consumer
// goroutine.
type Command func(*Graph)

// Driver owns a Graph on a single goroutine and executes commands
// submitted by asynchronous producers (timers, external variable
// sources, input events). Producers never touch the graph directly;
// they marshal work through the driver's channel.
type Driver struct {
	graph  *Graph
	cmds   chan Command
	logger *slog.Logger
}

// NewDriver wraps graph in a driver with the given command buffer size.
// After this point the graph must only be accessed through the driver.
func NewDriver(graph *Graph, buffer int) *Driver {
	if buffer <= 0 {
		buffer = 64
	}
	return &Driver{
		graph:  graph,
		cmds:   make(chan Command, buffer),
		logger: graph.logger,
	}
}

// Run executes commands until ctx is cancelled. It must be called from
// exactly one goroutine; that goroutine becomes the graph's consumer
// thread.
func (d *Driver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-d.cmds:
			cmd(d.graph)
		}
	}
}

// Do submits a command without waiting for it to run.
func (d *Driver) Do(ctx context.Context, cmd Command) error {
	select {
	case d.cmds <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DoSync runs fn on the consumer goroutine and waits for its result.
func (d *Driver) DoSync(ctx context.Context, fn func(*Graph) error) error {
	done := make(chan error, 1)
	if err := d.Do(ctx, func(g *Graph) { done <- fn(g) }); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetValue marshals a variable update onto the consumer goroutine and
// waits for the propagation pass to finish.
func (d *Driver) SetValue(ctx context.Context, scope ScopeID, name string, value Value) error {
	return d.DoSync(ctx, func(g *Graph) error {
		return g.SetValue(scope, name, value)
	})
}

// GetValue reads a resolved variable value from the consumer goroutine.
func (d *Driver) GetValue(ctx context.Context, scope ScopeID, name string) (Value, bool, error) {
	var (
		value Value
		ok    bool
	)
	err := d.DoSync(ctx, func(g *Graph) error {
		value, ok = g.GetValue(scope, name)
		return nil
	})
	return value, ok, err
}

// RemoveScope marshals a scope removal onto the consumer goroutine.
// Unlike SetValue it does not wait: teardown signals arrive from UI
// event handlers that must not block.
func (d *Driver) RemoveScope(ctx context.Context, id ScopeID) error {
	return d.Do(ctx, func(g *Graph) {
		if err := g.RemoveScope(id); err != nil {
			d.logger.Debug("remove scope", "scope", id, "error", err)
		}
	})
}
