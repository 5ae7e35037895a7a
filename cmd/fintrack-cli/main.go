package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
)

// app holds what every subcommand needs once the root pre-run has loaded config.
type app struct {
	out     io.Writer
	envFile string
	cfg     *config.Config
	logger  *log.Logger
}

// openBackend opens the configured store; the caller must run Cleanup.
func (a *app) openBackend(ctx context.Context) (*backend.BackendResult, error) {
	return cli.OpenBackend(ctx, a.cfg, a.logger)
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "fintrack-cli",
		Short:         "Inspect and maintain fintrack ledgers",
		Long:          `fintrack-cli computes financial summaries from the configured backend and runs maintenance tasks such as migrations and seeding.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := cli.LoadEnvFile(a.envFile); err != nil {
				return fmt.Errorf("load env file: %w", err)
			}
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			a.cfg = cfg
			// Logs go to stderr so command output stays machine readable.
			a.logger = cli.SetupLogger(cfg, log.ComponentCLI, cmd.ErrOrStderr())
			return nil
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(summaryCmd(a))
	root.AddCommand(breakdownCmd(a))
	root.AddCommand(migrateCmd(a))
	root.AddCommand(seedCmd(a))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
