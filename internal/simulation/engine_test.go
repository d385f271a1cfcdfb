package simulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/branchsim/internal/logging"
	"github.com/fyrsmithlabs/branchsim/internal/randomness"
	"github.com/fyrsmithlabs/branchsim/internal/stats"
	"github.com/fyrsmithlabs/branchsim/internal/telemetry"
	"github.com/fyrsmithlabs/branchsim/internal/tree"
)

// mixedDraws yields trees with 6, 4 and again 6 leaves when N=5, M=10.
var mixedDraws = []uint32{9, 9, 0, 9, 0, 0, 0, 0, 0, 0, 0, 0, 0}

type harness struct {
	engine  *Engine
	metrics *Metrics
	logger  *logging.TestLogger
	tel     *telemetry.TestTelemetry
}

func newHarness(draws []uint32, opts ...Option) *harness {
	h := &harness{
		metrics: NewMetricsWithRegistry(prometheus.NewRegistry()),
		logger:  logging.NewTestLogger(),
		tel:     telemetry.NewTestTelemetry(),
	}
	base := []Option{
		WithMetrics(h.metrics),
		WithLogger(h.logger.Logger),
		WithTracer(h.tel.Tracer("test")),
	}
	if draws != nil {
		base = append(base, WithSourceFactory(func(randomness.Strategy) (randomness.Source, error) {
			return randomness.NewSequence(draws...), nil
		}))
	}
	h.engine = NewEngine(append(base, opts...)...)
	return h
}

func settings(n, m uint32, size uint) Settings {
	return Settings{Params: tree.Params{N: n, M: m}, SampleSize: size}
}

func TestSettings_Validate(t *testing.T) {
	assert.NoError(t, settings(1, 2, 1).Validate())
	assert.ErrorIs(t, settings(1, 0, 1).Validate(), tree.ErrInvalidParams)
	assert.ErrorIs(t, settings(1, 2, 0).Validate(), ErrInvalidSampleSize)
}

func TestEngine_Generate(t *testing.T) {
	h := newHarness([]uint32{7, 0, 2, 1, 0, 0, 0})

	root, err := h.engine.Generate(context.Background(), settings(5, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, "100000", tree.Encode(root))
	assert.Equal(t, uint(5), tree.CountLeaves(root))

	h.tel.AssertSpanExists(t, "simulation.Generate")
	h.tel.AssertSpanAttribute(t, "simulation.Generate", "tree.leaves", int64(5))
	h.tel.AssertSpanAttribute(t, "simulation.Generate", "randomness.strategy", "fast")
	h.logger.AssertLogged(t, zapcore.InfoLevel, "tree generated")
	h.logger.AssertField(t, "tree generated", "leaves", uint64(5))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.TreesGenerated.WithLabelValues("fast")))
}

func TestEngine_Generate_ZeroProbabilityBothStrategies(t *testing.T) {
	h := newHarness(nil)
	for _, strategy := range []randomness.Strategy{randomness.StrategyFast, randomness.StrategySecure} {
		s := settings(0, 100, 0)
		s.Strategy = strategy
		root, err := h.engine.Generate(context.Background(), s)
		require.NoError(t, err)
		assert.Equal(t, tree.Measurements{Leaves: 4, Branches: 3, Nodes: 7, Generations: 2}, tree.Measure(root))
		assert.Equal(t, "0000", tree.Encode(root))
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.TreesGenerated.WithLabelValues("secure")))
}

func TestEngine_Generate_InvalidParams(t *testing.T) {
	h := newHarness(nil)
	_, err := h.engine.Generate(context.Background(), settings(1, 0, 0))
	assert.ErrorIs(t, err, tree.ErrInvalidParams)
}

func TestEngine_Generate_SourceError(t *testing.T) {
	h := newHarness(nil, WithSourceFactory(func(randomness.Strategy) (randomness.Source, error) {
		return nil, randomness.ErrUnknownStrategy
	}))
	_, err := h.engine.Generate(context.Background(), settings(1, 2, 0))
	assert.ErrorIs(t, err, randomness.ErrUnknownStrategy)
}

func TestEngine_Generate_DepthLimit(t *testing.T) {
	// Every draw continues, so the tree outgrows any depth.
	h := newHarness(nil, WithLimits(tree.Limits{MaxDepth: 6}))

	_, err := h.engine.Generate(context.Background(), settings(10, 10, 0))
	require.ErrorIs(t, err, tree.ErrDepthLimit)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.GenerationFailures.WithLabelValues("depth_limit")))

	span := h.tel.SpanByName("simulation.Generate")
	require.NotNil(t, span)
	assert.Equal(t, "Error", span.Status().Code.String())
}

func TestEngine_Generate_HighRiskWarning(t *testing.T) {
	h := newHarness([]uint32{0})
	_, err := h.engine.Generate(context.Background(), settings(7, 10, 0))
	require.NoError(t, err)
	h.logger.AssertLogged(t, zapcore.WarnLevel, "high branch probability")

	limited := newHarness([]uint32{0}, WithLimits(tree.Limits{MaxNodes: 1000}))
	_, err = limited.engine.Generate(context.Background(), settings(7, 10, 0))
	require.NoError(t, err)
	limited.logger.AssertNotLogged(t, zapcore.WarnLevel, "high branch probability")
}

func TestEngine_SampleStats(t *testing.T) {
	h := newHarness(mixedDraws)

	summary, err := h.engine.SampleStats(context.Background(), settings(5, 10, 3))
	require.NoError(t, err)
	// leaf counts 6, 4, 6; truncated mean 5
	assert.Equal(t, stats.Summary{Min: 4, Median: 6, Max: 6, Mean: 5, StdDev: 1}, summary)

	assert.Equal(t, 3.0, testutil.ToFloat64(h.metrics.TreesGenerated.WithLabelValues("fast")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.SampleRuns.WithLabelValues("fast")))
	h.tel.AssertSpanExists(t, "simulation.SampleStats")
	h.tel.AssertSpanAttribute(t, "simulation.SampleStats", "sample.size", int64(3))
	h.logger.AssertLogged(t, zapcore.InfoLevel, "sample collected")

	entries := h.logger.FilterMessage("sample collected").All()
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ContextMap()["run.id"])
}

func TestEngine_SampleStats_ZeroProbability(t *testing.T) {
	h := newHarness(nil)
	summary, err := h.engine.SampleStats(context.Background(), settings(0, 100, 50))
	require.NoError(t, err)
	assert.Equal(t, stats.Summary{Min: 4, Median: 4, Max: 4, Mean: 4, StdDev: 0}, summary)
}

func TestEngine_SampleStats_CertainContinuationGrowsWithDepth(t *testing.T) {
	var prev uint
	for depth := uint(2); depth <= 8; depth++ {
		h := newHarness(nil, WithLimits(tree.Limits{MaxDepth: depth, Truncate: true}))
		summary, err := h.engine.SampleStats(context.Background(), settings(7, 7, 5))
		require.NoError(t, err)

		assert.Equal(t, uint(1)<<depth, summary.Min, "depth %d", depth)
		assert.Equal(t, summary.Min, summary.Max)
		assert.GreaterOrEqual(t, summary.Median, prev)
		prev = summary.Median
	}
}

func TestEngine_SampleStats_InvariantsWithRealSources(t *testing.T) {
	h := newHarness(nil, WithLimits(tree.Limits{MaxDepth: 40, Truncate: true}))
	for _, strategy := range []randomness.Strategy{randomness.StrategyFast, randomness.StrategySecure} {
		s := settings(1, 2, 200)
		s.Strategy = strategy
		summary, err := h.engine.SampleStats(context.Background(), s)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, summary.Min, uint(4))
		assert.LessOrEqual(t, summary.Min, summary.Median)
		assert.LessOrEqual(t, summary.Median, summary.Max)
		assert.LessOrEqual(t, summary.Min, summary.Mean)
		assert.LessOrEqual(t, summary.Mean, summary.Max)
		assert.GreaterOrEqual(t, summary.StdDev, 0.0)
	}
}

func TestEngine_SampleStats_Errors(t *testing.T) {
	h := newHarness(nil)

	_, err := h.engine.SampleStats(context.Background(), settings(1, 2, 0))
	assert.ErrorIs(t, err, ErrInvalidSampleSize)

	_, err = h.engine.SampleStats(context.Background(), settings(1, 0, 5))
	assert.ErrorIs(t, err, tree.ErrInvalidParams)
}

func TestEngine_SampleStats_Cancelled(t *testing.T) {
	h := newHarness(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.engine.SampleStats(ctx, settings(1, 2, 10))
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "after 0 of 10 trees")
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.GenerationFailures.WithLabelValues("cancelled")))
	assert.Zero(t, testutil.ToFloat64(h.metrics.SampleRuns.WithLabelValues("fast")))
}

// endlessSource always continues and cancels after cancelAt draws.
type endlessSource struct {
	draws    int
	cancelAt int
	cancel   context.CancelFunc
}

func (s *endlessSource) Uint32N(uint32) uint32 {
	s.draws++
	if s.draws == s.cancelAt {
		s.cancel()
	}
	return 0
}

func endlessHarness(cancelAt int, cancel context.CancelFunc) (*harness, *endlessSource) {
	src := &endlessSource{cancelAt: cancelAt, cancel: cancel}
	h := newHarness(nil, WithSourceFactory(func(randomness.Strategy) (randomness.Source, error) {
		return src, nil
	}))
	return h, src
}

func TestEngine_Generate_CancelledMidTree(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, src := endlessHarness(100, cancel)

	root, err := h.engine.Generate(ctx, settings(100, 100, 1))
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, root)
	assert.Less(t, src.draws, 100+2048)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.GenerationFailures.WithLabelValues("cancelled")))
	h.logger.AssertNotLogged(t, zapcore.InfoLevel, "tree generated")
}

func TestEngine_SampleStats_CancelledMidTree(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, _ := endlessHarness(5000, cancel)

	_, err := h.engine.SampleStats(ctx, settings(100, 100, 10))
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "tree 1")
	assert.Zero(t, testutil.ToFloat64(h.metrics.SampleRuns.WithLabelValues("fast")))
}

func TestEngine_Generate_DeadlineMidTree(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	h, _ := endlessHarness(-1, func() {})

	_, err := h.engine.Generate(ctx, settings(1, 1, 1))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEngine_SampleStats_NodeLimit(t *testing.T) {
	h := newHarness(nil, WithLimits(tree.Limits{MaxNodes: 50}))
	_, err := h.engine.SampleStats(context.Background(), settings(3, 2, 5))
	require.ErrorIs(t, err, tree.ErrNodeLimit)
	assert.Contains(t, err.Error(), "tree 1")
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.GenerationFailures.WithLabelValues("node_limit")))
}

func TestEngine_Records(t *testing.T) {
	h := newHarness(mixedDraws)

	var got []Record
	err := h.engine.Records(context.Background(), settings(5, 10, 3), func(r Record) error {
		got = append(got, r)
		return nil
	})
	require.NoError(t, err)

	want := []Record{
		{Index: 1, Measurements: tree.Measurements{Leaves: 6, Branches: 5, Nodes: 11, Generations: 4}, Encoding: "10001000"},
		{Index: 2, Measurements: tree.Measurements{Leaves: 4, Branches: 3, Nodes: 7, Generations: 2}, Encoding: "0000"},
		{Index: 3, Measurements: tree.Measurements{Leaves: 6, Branches: 5, Nodes: 11, Generations: 4}, Encoding: "10001000"},
	}
	assert.Equal(t, want, got)
	h.tel.AssertSpanExists(t, "simulation.Records")
}

func TestEngine_Records_CallbackError(t *testing.T) {
	h := newHarness(nil)
	stop := errors.New("disk full")

	calls := 0
	err := h.engine.Records(context.Background(), settings(0, 1, 10), func(Record) error {
		calls++
		if calls == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, calls)
}

func TestEngine_Limits(t *testing.T) {
	l := tree.Limits{MaxDepth: 10, Truncate: true}
	assert.Equal(t, l, NewEngine(WithLimits(l), WithMetrics(NewMetricsWithRegistry(prometheus.NewRegistry()))).Limits())
}

func TestNewMetrics_Singleton(t *testing.T) {
	assert.Same(t, NewMetrics(), NewMetrics())
}
