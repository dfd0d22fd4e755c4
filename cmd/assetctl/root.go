package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"power-assets/internal/app"
	"power-assets/internal/config"
	"power-assets/internal/logging"
)

type globalOptions struct {
	driver   string
	dsn      string
	logLevel string
}

func newRootCmd() *cobra.Command {
	var opts globalOptions

	cmd := &cobra.Command{
		Use:           "assetctl",
		Short:         "Power asset inventory tool: import, lifecycle, chain, export",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.driver, "db-driver", "", "Database driver: sqlite or pgx (default from DATABASE_DRIVER)")
	cmd.PersistentFlags().StringVar(&opts.dsn, "db-url", "", "Database DSN (default from DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level")

	cmd.AddCommand(newImportCmd(&opts))
	cmd.AddCommand(newLifecycleCmd(&opts))
	cmd.AddCommand(newChainCmd(&opts))
	cmd.AddCommand(newExportCmd(&opts))
	cmd.AddCommand(newRulesCmd(&opts))
	return cmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}

// openApp loads configuration, applies flag overrides and wires services.
func openApp(ctx context.Context, opts *globalOptions) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	if opts.driver != "" {
		cfg.DatabaseDriver = opts.driver
	}
	if opts.dsn != "" {
		cfg.DatabaseURL = opts.dsn
	}
	if err := cfg.Validate(); err != nil {
		return nil, withCode(exitUsage, err)
	}
	logger := logging.NewWithOutput(os.Stderr, opts.logLevel, cfg.LogFormat)
	a, err := app.New(ctx, cfg, logger.WithField("component", "assetctl"))
	if err != nil {
		return nil, withCode(exitDB, err)
	}
	return a, nil
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		logrus.WithError(err).Warn("close failed")
	}
}
