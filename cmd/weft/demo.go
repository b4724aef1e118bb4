package main

import (
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/weftui/weft/pkg/remote"
	"github.com/weftui/weft/pkg/state"
)

func demoCmd() *cobra.Command {
	var (
		listen  string
		vars    []string
		metrics bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a standalone graph with a logging listener per variable",
		Long: `Creates a graph whose root scope holds the variables given with
--var, registers a listener on each that logs every change, and
serves the graph over HTTP until interrupted:

  weft demo --var volume=10 --var title=hello --listen :8920
  curl -X POST localhost:8920/vars/volume -d '{"value": 42}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)

			bindings := state.Bindings{}
			for _, kv := range vars {
				name, value, found := strings.Cut(kv, "=")
				if !found {
					value = ""
				}
				bindings[name] = value
			}

			opts := []state.Option{state.WithRootBindings(bindings)}
			if metrics {
				opts = append(opts, state.WithMetrics(state.MetricsConfig{}))
			}
			g, root := state.NewGraph(opts...)

			for name := range bindings {
				name := name
				_, err := g.Register(root, []string{name}, func(g *state.Graph, values state.Bindings) error {
					logger.Info("variable", "name", name, "value", values[name])
					return nil
				})
				if err != nil {
					return err
				}
			}

			d := state.NewDriver(g, 64)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if listen == "" {
				// No server: tick the first variable a few times and exit.
				go d.Run(ctx)
				for name := range bindings {
					for i := 0; i < 3; i++ {
						if err := d.SetValue(ctx, root, name, time.Now().Format(time.RFC3339Nano)); err != nil {
							return err
						}
						time.Sleep(200 * time.Millisecond)
					}
					break
				}
				return nil
			}

			srv := remote.New(d, root, &remote.Config{Address: listen})
			srvErr := make(chan error, 1)
			go func() { srvErr <- srv.ListenAndServe(ctx) }()
			logger.Info("listening", "address", listen)

			runErr := d.Run(ctx)
			if err := <-srvErr; err != nil && ctx.Err() == nil {
				return err
			}
			if runErr != nil && ctx.Err() == nil {
				return runErr
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "serve the graph over HTTP on this address")
	cmd.Flags().StringArrayVar(&vars, "var", []string{"volume=10"}, "root variable as name=value (repeatable)")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "register Prometheus metrics on the default registry")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "debug logging")

	return cmd
}
