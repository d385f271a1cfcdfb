// Package main implements the branchsim CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/branchsim/internal/config"
	"github.com/fyrsmithlabs/branchsim/internal/logging"
	"github.com/fyrsmithlabs/branchsim/internal/menu"
	"github.com/fyrsmithlabs/branchsim/internal/randomness"
	"github.com/fyrsmithlabs/branchsim/internal/simulation"
	"github.com/fyrsmithlabs/branchsim/internal/telemetry"
	"github.com/fyrsmithlabs/branchsim/internal/tree"
)

// version information
var version = "dev"

const tracerName = "github.com/fyrsmithlabs/branchsim/cmd/branchsim"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// app holds flag values and the components built from configuration.
type app struct {
	configPath string
	n, m       uint32
	strategy   string
	sampleSize uint
	noColour   bool
	maxDepth   uint
	maxNodes   uint
	truncate   bool
	host       string
	port       int

	cfg    *config.Config
	logger *logging.Logger
	tel    *telemetry.Telemetry
	engine *simulation.Engine
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "branchsim",
		Short: "Simulate a stochastic binary branching process",
		Long: `branchsim grows random binary trees: every node past the second
generation branches with probability n/m, then continues left always and
right with probability n/m again.

Without a subcommand it opens the interactive menu.

Configuration is read from ~/.config/branchsim/config.yaml (or --config),
then BRANCHSIM_SECTION_FIELD environment variables, then flags.`,
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         a.run(true, a.runMenu),
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.config/branchsim/config.yaml)")
	flags.Uint32VarP(&a.n, "n", "n", config.DefaultN, "branch probability numerator")
	flags.Uint32VarP(&a.m, "m", "m", config.DefaultM, "branch probability denominator")
	flags.StringVar(&a.strategy, "strategy", "fast", "randomness strategy (fast or secure)")
	flags.UintVar(&a.sampleSize, "sample-size", config.DefaultSampleSize, "trees per sample")
	flags.BoolVar(&a.noColour, "no-colour", false, "disable coloured output")
	flags.UintVar(&a.maxDepth, "max-depth", 0, "deepest generation a tree may reach (0 = unlimited)")
	flags.UintVar(&a.maxNodes, "max-nodes", 0, "largest tree allowed (0 = unlimited)")
	flags.BoolVar(&a.truncate, "truncate", false, "turn nodes at --max-depth into leaves instead of failing")

	root.AddCommand(
		newGenerateCmd(a),
		newStatsCmd(a),
		newExportCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

// run wraps fn with component setup and teardown. interactive keeps logs
// off the terminal.
func (a *app) run(interactive bool, fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.setup(cmd, interactive); err != nil {
			return err
		}
		defer a.close()
		return fn(cmd, args)
	}
}

func (a *app) setup(cmd *cobra.Command, interactive bool) error {
	ctx := cmd.Context()

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := a.applyFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	telCfg := telemetry.NewDefaultConfig()
	telCfg.ServiceVersion = version
	if err := cfg.Section("telemetry", telCfg); err != nil {
		return fmt.Errorf("failed to decode telemetry config: %w", err)
	}
	a.tel, err = telemetry.New(ctx, telCfg)
	if err != nil {
		return err
	}

	logCfg := logging.NewDefaultConfig()
	if err := cfg.Section("logging", logCfg); err != nil {
		return fmt.Errorf("failed to decode logging config: %w", err)
	}
	if interactive {
		logCfg.Output.Stderr = false
	}
	a.logger = logging.NewNop()
	if logCfg.Output.Enabled() {
		if logCfg.Output.OTEL {
			a.tel.SetLoggerProvider(global.GetLoggerProvider())
		}
		if a.logger, err = logging.NewLogger(logCfg, a.tel.LoggerProvider()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
	}
	if health := a.tel.Health(); health.Degraded {
		a.logger.Warn(ctx, "telemetry degraded", zap.String("reason", health.Reason))
	}

	a.engine = a.newEngine(cfg.Limits)
	return nil
}

func (a *app) newEngine(limits tree.Limits) *simulation.Engine {
	return simulation.NewEngine(
		simulation.WithLimits(limits),
		simulation.WithRandomness(a.cfg.Randomness.Options()),
		simulation.WithLogger(a.logger),
		simulation.WithTracer(a.tel.Tracer(tracerName)),
	)
}

// applyFlags overrides configuration with flags set on the command line.
func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("n") {
		cfg.Process.N = a.n
	}
	if flags.Changed("m") {
		cfg.Process.M = a.m
	}
	if flags.Changed("strategy") {
		s, err := randomness.ParseStrategy(a.strategy)
		if err != nil {
			return err
		}
		cfg.Randomness.Strategy = s
	}
	if flags.Changed("sample-size") {
		cfg.Sampling.Size = a.sampleSize
	}
	if flags.Changed("no-colour") {
		cfg.Display.Colour = !a.noColour
	}
	if flags.Changed("max-depth") {
		cfg.Limits.MaxDepth = a.maxDepth
	}
	if flags.Changed("max-nodes") {
		cfg.Limits.MaxNodes = a.maxNodes
	}
	if flags.Changed("truncate") {
		cfg.Limits.Truncate = a.truncate
	}
	if flags.Changed("host") {
		cfg.Server.Host = a.host
	}
	if flags.Changed("port") {
		cfg.Server.Port = a.port
	}
	return nil
}

func (a *app) settings() simulation.Settings {
	return simulation.Settings{
		Params:     a.cfg.Process,
		Strategy:   a.cfg.Randomness.Strategy,
		SampleSize: a.cfg.Sampling.Size,
	}
}

func (a *app) close() {
	ctx := context.Background()
	if a.tel != nil {
		if err := a.tel.Shutdown(ctx); err != nil {
			a.logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync() // Best-effort sync on shutdown
		_ = a.logger.Close()
	}
}

func (a *app) runMenu(cmd *cobra.Command, _ []string) error {
	return menu.Run(cmd.Context(), menu.Options{
		Engine:    a.engine,
		Logger:    a.logger,
		Settings:  a.settings(),
		Colour:    a.cfg.Display.Colour,
		ExportDir: a.cfg.Export.Dir,
		WarnAbove: a.cfg.Sampling.WarnAbove,
	}, cmd.InOrStdin(), cmd.OutOrStdout())
}
