// Package cli is the vibecut command line. Every command runs the engine
// in-process and prints its result as JSON.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vibecut/api/internal/config"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := NewRootCommand(config.Load)
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree. load supplies the configuration
// for commands that need the engine.
func NewRootCommand(load func() (*config.Config, error)) *cobra.Command {
	a := &app{load: load}

	root := &cobra.Command{
		Use:           "vibecut",
		Short:         "Index, search and assemble video edits",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "", "Override the configured log level")

	root.AddCommand(
		a.indexCommand(),
		a.collectionCommand(),
		a.searchCommand(),
		a.editCommand(),
		presetsCommand(),
	)
	return root
}
