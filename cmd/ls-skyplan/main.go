// Command ls-skyplan plans astrophotography sessions: target resolution,
// night and year visibility, and mosaic framing.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/litescript/ls-skyplan/internal/config"
	"github.com/litescript/ls-skyplan/internal/logging"
	"github.com/litescript/ls-skyplan/internal/observability"
	"github.com/litescript/ls-skyplan/internal/session"
	"github.com/litescript/ls-skyplan/internal/ui"
	"github.com/litescript/ls-skyplan/internal/version"
)

var (
	flagConfig   string
	flagFormat   string
	flagLogLevel string
	flagDate     string
	flagPlain    bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// app holds what PersistentPreRunE builds for the subcommands.
var app struct {
	cfg      *config.Config
	log      *logging.Logger
	shutdown func(context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "ls-skyplan",
	Short:         "Astrophotography session planner",
	Long:          "ls-skyplan resolves targets, sweeps their visibility over a night or a year against your horizon, and frames mosaics for your camera.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		return setup(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if app.shutdown != nil {
			observability.ShutdownWithTimeout(context.Background(), app.shutdown, app.log)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file (default: $SKYPLAN_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagDate, "date", "", "observation date YYYY-MM-DD (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagPlain, "plain", false, "disable colors even on a terminal")

	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration, applies flag overrides and starts tracing.
func setup(ctx context.Context) error {
	cfg, err := config.Load(ctx, flagConfig)
	if err != nil {
		return err
	}
	if flagDate != "" {
		cfg.Date = flagDate
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	log := logging.New(logging.Options{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})

	// Keep stdout clean for results.
	cfg.Tracing.Writer = os.Stderr
	shutdown, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	app.cfg, app.log, app.shutdown = cfg, log, shutdown
	return nil
}

func newSession(opts ...session.Option) (*session.Session, error) {
	return session.New(app.cfg, append([]session.Option{session.WithLogger(app.log)}, opts...)...)
}

// renderer styles text output only when stdout is a terminal.
func renderer() ui.Renderer {
	r := ui.Renderer{
		Zone:  app.cfg.DisplayZone(),
		Plain: flagPlain || !term.IsTerminal(int(os.Stdout.Fd())),
	}
	if !r.Plain {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			r.Width = w
		}
	}
	return r
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagFormat == "json" {
			return writeJSON(cmd.OutOrStdout(), map[string]string{"version": version.Version})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ls-skyplan %s\n", version.Version)
		return nil
	},
}
