package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "weft",
		Short: "Reactive scope-graph state engine for declarative UIs",
		Long: `Weft is a reactive state-propagation engine: a tree of scopes
holding named variables, with listeners that re-run whenever a
variable they depend on changes.

The weft command hosts a standalone graph for experimentation:
variables can be inspected and updated over HTTP, and structural
events stream out over WebSocket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		demoCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
