package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/branchsim/internal/export"
	"github.com/fyrsmithlabs/branchsim/internal/randomness"
	"github.com/fyrsmithlabs/branchsim/internal/simulation"
	"github.com/fyrsmithlabs/branchsim/internal/tree"
)

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: s.version})
}

// handleTree generates one tree.
func (s *Server) handleTree(c echo.Context) error {
	req := TreeRequest{ProcessRequest: s.defaultRequest()}
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid tree request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	settings, err := s.settings(req.ProcessRequest)
	if err != nil {
		return err
	}

	root, err := s.engine.Generate(c.Request().Context(), settings)
	if err != nil {
		return s.simulationError(c, err)
	}

	return c.JSON(http.StatusOK, NewTreeResponse(settings, root, req.Render))
}

// handleStats summarizes a fresh sample.
func (s *Server) handleStats(c echo.Context) error {
	req := s.defaultRequest()
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid stats request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	settings, err := s.settings(req)
	if err != nil {
		return err
	}

	summary, err := s.engine.SampleStats(c.Request().Context(), settings)
	if err != nil {
		return s.simulationError(c, err)
	}
	return c.JSON(http.StatusOK, NewStatsResponse(settings, summary))
}

// handleSamples streams a fresh sample as CSV.
func (s *Server) handleSamples(c echo.Context) error {
	req := s.defaultRequest()
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	settings, err := s.settings(req)
	if err != nil {
		return err
	}

	// Generate before writing headers so limit errors still map to a status.
	var records []simulation.Record
	err = s.engine.Records(c.Request().Context(), settings, func(r simulation.Record) error {
		records = append(records, r)
		return nil
	})
	if err != nil {
		return s.simulationError(c, err)
	}

	name := export.DefaultSampleName(settings.Params, settings.SampleSize) + export.Extension
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	res.WriteHeader(http.StatusOK)
	return export.WriteSamples(res, records)
}

func (s *Server) defaultRequest() ProcessRequest {
	return ProcessRequest{
		N:          s.defaults.Params.N,
		M:          s.defaults.Params.M,
		Strategy:   s.defaults.Strategy.String(),
		SampleSize: s.defaults.SampleSize,
	}
}

// settings validates a request and converts it to engine settings.
func (s *Server) settings(req ProcessRequest) (simulation.Settings, error) {
	strategy, err := randomness.ParseStrategy(req.Strategy)
	if err != nil {
		return simulation.Settings{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	settings := simulation.Settings{
		Params:     tree.Params{N: req.N, M: req.M},
		Strategy:   strategy,
		SampleSize: req.SampleSize,
	}
	if err := settings.Validate(); err != nil {
		return simulation.Settings{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if s.config.MaxSampleSize > 0 && settings.SampleSize > s.config.MaxSampleSize {
		return simulation.Settings{}, echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("sample_size %d exceeds maximum %d", settings.SampleSize, s.config.MaxSampleSize))
	}
	return settings, nil
}

// simulationError maps engine errors to HTTP errors.
func (s *Server) simulationError(c echo.Context, err error) error {
	ctx := c.Request().Context()
	switch {
	case errors.Is(err, tree.ErrInvalidParams),
		errors.Is(err, simulation.ErrInvalidSampleSize),
		errors.Is(err, randomness.ErrUnknownStrategy):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, tree.ErrDepthLimit), errors.Is(err, tree.ErrNodeLimit):
		s.logger.Info(ctx, "generation hit a limit", zap.Error(err))
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn(ctx, "simulation timed out", zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "request timed out")
	case errors.Is(err, context.Canceled):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "request cancelled")
	default:
		s.logger.Error(ctx, "simulation failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "simulation failed")
	}
}
