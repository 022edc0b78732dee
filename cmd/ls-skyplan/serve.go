package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/litescript/ls-skyplan/internal/logging"
	"github.com/litescript/ls-skyplan/internal/observability"
	"github.com/litescript/ls-skyplan/internal/server"
	"github.com/litescript/ls-skyplan/internal/ui"
)

var (
	flagListen      string
	flagClientRate  float64
	flagClientBurst int
)

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "listen address (overrides listen_addr)")
	serveCmd.Flags().Float64Var(&flagClientRate, "client-rate", server.DefaultClientRate, "requests per second per client (0 disables)")
	serveCmd.Flags().IntVar(&flagClientBurst, "client-burst", server.DefaultClientBurst, "request burst per client")

	rootCmd.AddCommand(serveCmd, tuiCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planner over HTTP and websocket",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagListen != "" {
			app.cfg.ListenAddr = flagListen
		}

		metrics, err := observability.NewCollector(prometheus.DefaultRegisterer)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		srv, err := server.New(app.cfg,
			server.WithLogger(app.log),
			server.WithMetrics(metrics),
			server.WithClientRateLimit(flagClientRate, flagClientBurst),
		)
		if err != nil {
			return err
		}

		start := time.Now()
		err = srv.Run(cmd.Context())
		app.log.Info(cmd.Context(), "server stopped", logging.String("uptime", time.Since(start).Round(time.Second).String()))
		return err
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive planner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession()
		if err != nil {
			return err
		}
		defer sess.Close()

		r := renderer()
		r.Width = 0
		return ui.Run(sess, r, time.Time{})
	},
}
