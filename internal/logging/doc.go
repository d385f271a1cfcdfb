// Package logging provides structured logging for branchsim on top of Zap.
//
// # Overview
//
// The package wraps Zap with:
//   - A Trace level (-2, below Debug) for per-draw detail
//   - Stderr, file and OpenTelemetry outputs, teed together
//   - Automatic context fields (trace_id, span_id, run.id, request.id)
//   - Level-aware sampling (errors never sampled)
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	ctx = logging.WithRunID(ctx, logging.NewRunID())
//	logger.Info(ctx, "sample collected", zap.Uint("sample_size", 1000))
//
// Console output (the default format) looks like:
//
//	2026-03-02T10:15:30.000Z	info	sample collected	{"service": "branchsim", "run.id": "5b0c...", "sample_size": 1000}
//
// # Terminal UI
//
// Log lines written to the terminal would corrupt the interactive menu, so
// the menu runs with NewNop unless output.file is set.
//
// # Testing
//
// NewTestLogger records entries in memory:
//
//	logger := logging.NewTestLogger()
//	engine := simulation.NewEngine(simulation.WithLogger(logger.Logger))
//	...
//	logger.AssertLogged(t, zapcore.InfoLevel, "sample collected")
package logging
