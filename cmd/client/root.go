package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/yearbook/internal/client/cli"
	"github.com/dmitrijs2005/yearbook/internal/client/config"
	"github.com/dmitrijs2005/yearbook/internal/logging"
)

var (
	app     *cli.App
	logFile *os.File
)

var rootCmd = &cobra.Command{
	Use:   "yearbook",
	Short: "Super Yearbook terminal client",
	Long: `Super Yearbook terminal client.

Without a subcommand an interactive shell starts. Guests can also scan the
QR code ("yearbook qr") and use the browser form.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cmd.Flags())
		if err != nil {
			return err
		}

		logger, viewLogger, err := openLoggers(cfg)
		if err != nil {
			return err
		}

		app = cli.NewApp(cfg, logger, viewLogger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logFile != nil {
			if err := logFile.Close(); err != nil {
				return fmt.Errorf("failed to close log file: %w", err)
			}
			logFile = nil
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSignals(cmd, func(ctx context.Context) error {
			app.Root(ctx)
			return nil
		})
	},
}

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show the live yearbook full screen",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSignals(cmd, app.View)
	},
}

var submitCmd = &cobra.Command{
	Use:     "submit",
	Aliases: []string{"add"},
	Short:   "Add your name, quote and photo",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSignals(cmd, app.Submit)
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List entries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSignals(cmd, app.List)
	},
}

var qrCmd = &cobra.Command{
	Use:   "qr",
	Short: "Print the QR code of the upload form",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSignals(cmd, app.QR)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(viewCmd, submitCmd, listCmd, qrCmd)
}

func withSignals(cmd *cobra.Command, fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx)
}

// openLoggers returns the command logger and the logger used while the
// viewer owns the screen.
func openLoggers(cfg *config.Config) (logging.Logger, logging.Logger, error) {
	if cfg.LogFile == "" {
		return logging.NewText(os.Stderr, cfg.LogLevel), logging.Discard(), nil
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f

	l := logging.NewText(f, cfg.LogLevel)
	return l, l, nil
}
