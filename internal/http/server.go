// Package http serves the branchsim JSON API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/branchsim/internal/config"
	"github.com/fyrsmithlabs/branchsim/internal/logging"
	"github.com/fyrsmithlabs/branchsim/internal/simulation"
)

// Server provides HTTP endpoints over a simulation engine.
type Server struct {
	echo     *echo.Echo
	engine   *simulation.Engine
	logger   *logging.Logger
	config   config.ServerConfig
	defaults simulation.Settings
	limiter  *rate.Limiter
	metrics  *HTTPMetrics
	gatherer prometheus.Gatherer
	version  string
}

// Option configures a Server.
type Option func(*Server)

// WithMeter records HTTP metrics on meter instead of the global provider.
func WithMeter(m metric.Meter) Option {
	return func(s *Server) { s.metrics = newHTTPMetrics(m, s.logger) }
}

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithVersion reports v from /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer creates a new HTTP server. defaults fill request fields that
// the caller leaves out.
func NewServer(eng *simulation.Engine, logger *logging.Logger, cfg config.ServerConfig, defaults simulation.Settings, opts ...Option) (*Server, error) {
	if eng == nil {
		return nil, errors.New("engine cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger is required for request tracking and debugging")
	}
	if cfg.StatsRate <= 0 || cfg.StatsBurst < 1 {
		return nil, fmt.Errorf("invalid stats rate limit: %v/s burst %d", cfg.StatsRate, cfg.StatsBurst)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		engine:   eng,
		logger:   logger.Named("http"),
		config:   cfg,
		defaults: defaults,
		limiter:  rate.NewLimiter(rate.Limit(cfg.StatsRate), cfg.StatsBurst),
		gatherer: prometheus.DefaultGatherer,
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewHTTPMetrics(s.logger)
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestContext)
	e.Use(s.metrics.MetricsMiddleware())

	s.registerRoutes()
	return s, nil
}

// requestContext tags the request context with its ID and logs the request
// once it completes.
func (s *Server) requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()
		ctx := req.Context()
		if id := c.Response().Header().Get(echo.HeaderXRequestID); logging.ValidID(id) {
			ctx = logging.WithRequestID(ctx, id)
			c.SetRequest(req.WithContext(ctx))
		}

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		s.logger.Info(ctx, "http request",
			zap.String("method", req.Method),
			zap.String("uri", req.RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
		)
		return nil
	}
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	v1 := s.echo.Group("/api/v1", s.requestTimeout)
	v1.POST("/trees", s.handleTree)
	v1.POST("/stats", s.handleStats, s.rateLimit)
	v1.GET("/samples.csv", s.handleSamples, s.rateLimit)
}

// requestTimeout bounds every API request by the configured timeout. The
// engine polls the context while trees grow, so an endless tree is abandoned
// once the deadline passes.
func (s *Server) requestTimeout(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.config.RequestTimeout <= 0 {
			return next(c)
		}
		req := c.Request()
		ctx, cancel := context.WithTimeout(req.Context(), s.config.RequestTimeout.Duration())
		defer cancel()
		c.SetRequest(req.WithContext(ctx))
		return next(c)
	}
}

// rateLimit rejects sampling requests beyond the configured rate.
func (s *Server) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.limiter.Allow() {
			s.logger.Warn(c.Request().Context(), "sampling request rate limited")
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many sampling requests")
		}
		return next(c)
	}
}

// Echo returns the underlying Echo instance for registering additional routes.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start serves on the configured address and blocks until ctx is
// cancelled, then shuts down within the configured timeout.
//
// Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	addr := s.config.Addr()
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info(ctx, "starting http server", zap.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout.Duration())
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return http.ErrServerClosed
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
