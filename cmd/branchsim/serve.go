package main

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/fyrsmithlabs/branchsim/internal/http"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulator over HTTP",
		Long: `Serve tree generation, sample statistics and CSV samples over a JSON API.

Endpoints:
  GET  /health
  GET  /metrics
  POST /api/v1/trees
  POST /api/v1/stats
  GET  /api/v1/samples.csv

Requests fall back to the configured n, m, strategy and sample size.`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = a.run(false, func(cmd *cobra.Command, _ []string) error {
		limits := a.cfg.ServeLimits()
		if limits != a.cfg.Limits {
			a.engine = a.newEngine(limits)
		}
		srv, err := httpapi.NewServer(a.engine, a.logger, a.cfg.Server, a.settings(),
			httpapi.WithMeter(a.tel.Meter(tracerName)),
			httpapi.WithVersion(version),
		)
		if err != nil {
			return err
		}
		a.logger.Info(cmd.Context(), "serving simulator",
			zap.String("addr", a.cfg.Server.Addr()),
			zap.Uint("limits.max_nodes", limits.MaxNodes),
			zap.Duration("request_timeout", a.cfg.Server.RequestTimeout.Duration()),
			zap.Bool("telemetry.exporting", a.tel.Exporting()),
		)
		if err := srv.Start(cmd.Context()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	cmd.Flags().StringVar(&a.host, "host", "", "listen host (default server.host from config)")
	cmd.Flags().IntVar(&a.port, "port", 0, "listen port (default server.port from config)")
	return cmd
}
