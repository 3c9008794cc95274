// main.go bootstraps komodo-action: it builds the root Cobra command and
// executes it with a signal-aware context.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aboul/komodo-actions/internal/config"
	"github.com/aboul/komodo-actions/internal/version"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	handleError(err)
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := config.NewOptions()
	cmd := &cobra.Command{
		Use:   "komodo-action",
		Short: "Deploy Komodo stacks or run procedures from a CI step",
		Long: "komodo-action reads workflow inputs, asks a Komodo instance to deploy stacks or run\n" +
			"procedures, waits for each execution to settle, and reports an identifier→status\n" +
			"mapping as a run output plus a Markdown summary table.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd.Context(), opts, config.NewEnvSnapshot(), cmd.OutOrStdout())
		},
	}
	opts.BindFlags(cmd.Flags())
	cmd.AddCommand(newVersionCommand())
	cmd.Example = `  # Deploy two stacks and wait for both updates to complete
  komodo-action --kind stack --patterns '["web","worker"]' --komodo-url https://komodo.example

  # Check inputs without touching the orchestrator
  komodo-action --kind procedure --patterns '["nightly-backup"]' --dry-run true`
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
		},
	}
}

func handleError(err error) {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return
	}
	message := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		message = fmt.Sprintf("%s\nHint: raise --timeout or verify the Komodo instance is reachable.", err)
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", color.New(color.FgRed, color.Bold).Sprint("Error:"), message)
}
