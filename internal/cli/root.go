// Package cli holds the concierge commands: the HTTP server, the queue
// worker, ingestion jobs and the Lambda entry points.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-dining-concierge/internal/config"
	"github.com/tbourn/go-dining-concierge/internal/observability"
	"github.com/tbourn/go-dining-concierge/internal/sysutil"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=v1.2.3".
var Version = "dev"

// app carries state set up by the root pre-run for the subcommands.
type app struct {
	cfg      config.Config
	shutdown func(context.Context) error
}

// NewRoot returns the concierge root command.
func NewRoot() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "concierge",
		Short:         "Dining concierge chatbot and recommendation worker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context())
		},
	}
	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newWorkerCmd(a))
	cmd.AddCommand(newIngestCmd(a))
	cmd.AddCommand(newLambdaCmd(a))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// setup loads .env and the configuration, then installs the logger and
// tracing for the command's role.
func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg

	role := roleOf(cmd)
	sysutil.SetLogLevel(cfg.LogLevel)
	sysutil.SetupLogger(nil, cfg.LogPretty, role)

	shutdown, err := observability.SetupOTel(cmd.Context(), cfg.OTEL, Version, role)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	a.shutdown = shutdown
	log.Debug().Str("version", Version).Msg("starting")
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	if a.shutdown == nil {
		return nil
	}
	if err := a.shutdown(context.WithoutCancel(ctx)); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}
	return nil
}

// roleOf names a command for logs and traces: "serve", "lambda-consumer".
func roleOf(cmd *cobra.Command) string {
	parts := strings.Fields(cmd.CommandPath())
	if len(parts) <= 1 {
		return "concierge"
	}
	return strings.Join(parts[1:], "-")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		// no config or telemetry needed
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}
