// Package simulation drives the branching process: it builds randomness
// sources, generates trees under the configured limits and collects samples
// for summary statistics and export.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/branchsim/internal/logging"
	"github.com/fyrsmithlabs/branchsim/internal/randomness"
	"github.com/fyrsmithlabs/branchsim/internal/stats"
	"github.com/fyrsmithlabs/branchsim/internal/tree"
)

// ErrInvalidSampleSize is returned when a sample of zero trees is requested.
var ErrInvalidSampleSize = errors.New("sample size must be greater than 0")

const tracerName = "github.com/fyrsmithlabs/branchsim/internal/simulation"

// Settings are the per-run inputs chosen by the user.
type Settings struct {
	Params     tree.Params
	Strategy   randomness.Strategy
	SampleSize uint
}

// Validate checks the settings needed for a sampling run.
func (s Settings) Validate() error {
	if err := s.Params.Validate(); err != nil {
		return err
	}
	if s.SampleSize == 0 {
		return ErrInvalidSampleSize
	}
	return nil
}

// Record describes one generated tree of a sample.
type Record struct {
	// Index is 1-based within the sample.
	Index uint
	tree.Measurements
	Encoding string
}

// SourceFactory builds the randomness source for one run.
type SourceFactory func(randomness.Strategy) (randomness.Source, error)

// Engine generates trees and samples. It holds configuration only, so one
// Engine may serve concurrent callers; every call builds its own source.
type Engine struct {
	limits    tree.Limits
	newSource SourceFactory
	logger    *logging.Logger
	metrics   *Metrics
	tracer    trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLimits bounds tree generation.
func WithLimits(l tree.Limits) Option {
	return func(e *Engine) { e.limits = l }
}

// WithRandomness sets the options used when building sources.
func WithRandomness(opts randomness.Options) Option {
	return func(e *Engine) {
		e.newSource = func(s randomness.Strategy) (randomness.Source, error) {
			return randomness.New(s, opts)
		}
	}
}

// WithSourceFactory replaces source construction, e.g. with a scripted
// randomness.Sequence.
func WithSourceFactory(f SourceFactory) Option {
	return func(e *Engine) { e.newSource = f }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTracer sets the tracer used for run spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// NewEngine creates an Engine. Without options it has no limits, draws from
// randomness.New with default options, logs nothing and records metrics on
// the default Prometheus registry.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	WithRandomness(randomness.Options{})(e)
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.metrics == nil {
		e.metrics = NewMetrics()
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	e.logger = e.logger.Named("simulation")
	return e
}

// Limits returns the generation limits in force.
func (e *Engine) Limits() tree.Limits {
	return e.limits
}

// Generate builds one tree.
func (e *Engine) Generate(ctx context.Context, s Settings) (*tree.Node, error) {
	if err := s.Params.Validate(); err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "simulation.Generate", trace.WithAttributes(runAttributes(s)...))
	defer span.End()

	e.warnIfUnbounded(ctx, s.Params)

	src, err := e.newSource(s.Strategy)
	if err != nil {
		return nil, failSpan(span, err)
	}

	root, m, err := e.generate(ctx, s, src)
	if err != nil {
		return nil, failSpan(span, err)
	}

	span.SetAttributes(
		attribute.Int64("tree.leaves", int64(m.Leaves)),
		attribute.Int64("tree.generations", int64(m.Generations)),
	)
	e.logger.Info(ctx, "tree generated",
		zap.Stringer("params", s.Params),
		zap.Stringer("strategy", s.Strategy),
		zap.Uint("leaves", m.Leaves),
		zap.Uint("branches", m.Branches),
		zap.Uint("generations", m.Generations),
	)
	return root, nil
}

// SampleStats generates s.SampleSize independent trees and summarizes their
// leaf counts.
func (e *Engine) SampleStats(ctx context.Context, s Settings) (stats.Summary, error) {
	counts := make([]uint, 0, s.SampleSize)
	err := e.sample(ctx, "simulation.SampleStats", s, func(_ uint, _ *tree.Node, m tree.Measurements) error {
		counts = append(counts, m.Leaves)
		return nil
	})
	if err != nil {
		return stats.Summary{}, err
	}

	summary, err := stats.Summarize(counts)
	if err != nil {
		return stats.Summary{}, err
	}
	e.logger.Info(ctx, "sample collected",
		zap.Stringer("params", s.Params),
		zap.Stringer("strategy", s.Strategy),
		zap.Uint("sample_size", s.SampleSize),
		zap.Uint("median", summary.Median),
		zap.Uint("mean", summary.Mean),
		zap.Float64("stddev", summary.StdDev),
	)
	return summary, nil
}

// Records generates s.SampleSize trees and passes each one's measurements
// and encoding to fn in order. An error from fn stops the run.
func (e *Engine) Records(ctx context.Context, s Settings, fn func(Record) error) error {
	return e.sample(ctx, "simulation.Records", s, func(i uint, root *tree.Node, m tree.Measurements) error {
		return fn(Record{
			Index:        i,
			Measurements: m,
			Encoding:     tree.Encode(root),
		})
	})
}

// sample runs one sampling loop under a span. ctx is checked between trees
// and while each tree grows.
func (e *Engine) sample(ctx context.Context, name string, s Settings, visit func(i uint, root *tree.Node, m tree.Measurements) error) error {
	if err := s.Validate(); err != nil {
		return err
	}

	ctx, span := e.tracer.Start(ctx, name, trace.WithAttributes(runAttributes(s)...))
	defer span.End()

	if logging.RunIDFromContext(ctx) == "" {
		ctx = logging.WithRunID(ctx, logging.NewRunID())
	}
	e.warnIfUnbounded(ctx, s.Params)

	src, err := e.newSource(s.Strategy)
	if err != nil {
		return failSpan(span, err)
	}

	start := time.Now()
	for i := uint(1); i <= s.SampleSize; i++ {
		if err := ctx.Err(); err != nil {
			e.metrics.GenerationFailures.WithLabelValues("cancelled").Inc()
			return failSpan(span, fmt.Errorf("sampling stopped after %d of %d trees: %w", i-1, s.SampleSize, err))
		}
		root, m, err := e.generate(ctx, s, src)
		if err != nil {
			return failSpan(span, fmt.Errorf("tree %d: %w", i, err))
		}
		if err := visit(i, root, m); err != nil {
			return failSpan(span, err)
		}
	}

	e.metrics.SampleRuns.WithLabelValues(s.Strategy.String()).Inc()
	e.metrics.SampleDuration.Observe(time.Since(start).Seconds())
	return nil
}

// generate builds and measures one tree from src.
func (e *Engine) generate(ctx context.Context, s Settings, src randomness.Source) (*tree.Node, tree.Measurements, error) {
	root, err := tree.Generate(ctx, s.Params, src, e.limits)
	if err != nil {
		reason := "other"
		switch {
		case errors.Is(err, tree.ErrDepthLimit):
			reason = "depth_limit"
		case errors.Is(err, tree.ErrNodeLimit):
			reason = "node_limit"
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			reason = "cancelled"
		}
		e.metrics.GenerationFailures.WithLabelValues(reason).Inc()
		e.logger.Debug(ctx, "tree abandoned", zap.String("reason", reason), zap.Error(err))
		return nil, tree.Measurements{}, err
	}

	m := tree.Measure(root)
	e.metrics.TreesGenerated.WithLabelValues(s.Strategy.String()).Inc()
	e.metrics.LeafCount.Observe(float64(m.Leaves))
	e.metrics.Generations.Observe(float64(m.Generations))
	e.logger.Trace(ctx, "tree measured", zap.Uint("leaves", m.Leaves), zap.Uint("nodes", m.Nodes))
	return root, m, nil
}

func (e *Engine) warnIfUnbounded(ctx context.Context, p tree.Params) {
	if p.HighRisk() && e.limits.MaxDepth == 0 && e.limits.MaxNodes == 0 {
		e.logger.Warn(ctx, "high branch probability without limits; generation may not terminate",
			zap.Float64("p", p.Probability()))
	}
}

func runAttributes(s Settings) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64("process.n", int64(s.Params.N)),
		attribute.Int64("process.m", int64(s.Params.M)),
		attribute.String("randomness.strategy", s.Strategy.String()),
		attribute.Int64("sample.size", int64(s.SampleSize)),
	}
}

func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
