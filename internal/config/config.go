// Package config loads branchsim settings from defaults, a YAML file and
// BRANCHSIM_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/branchsim/internal/randomness"
	"github.com/fyrsmithlabs/branchsim/internal/tree"
)

// Default values applied before any file or environment override.
const (
	DefaultN           = 50
	DefaultM           = 100
	DefaultSampleSize  = 1000
	DefaultLargeSample = 100000
	DefaultPort        = 9090
)

// DefaultServerMaxNodes caps trees built for API requests when
// limits.max_nodes is unset.
const DefaultServerMaxNodes = 1000000

// Config holds the full branchsim configuration.
//
// The logging and telemetry sections are decoded by their own packages via
// Section, so this package never imports them.
type Config struct {
	Process    tree.Params      `koanf:"process"`
	Sampling   SamplingConfig   `koanf:"sampling"`
	Randomness RandomnessConfig `koanf:"randomness"`
	Limits     tree.Limits      `koanf:"limits"`
	Display    DisplayConfig    `koanf:"display"`
	Export     ExportConfig     `koanf:"export"`
	Server     ServerConfig     `koanf:"server"`

	k *koanf.Koanf
}

// SamplingConfig controls stats runs.
type SamplingConfig struct {
	Size uint `koanf:"size"`
	// WarnAbove is the sample size beyond which the menu warns about run time.
	WarnAbove uint `koanf:"warn_above"`
}

// RandomnessConfig selects the randomness source.
type RandomnessConfig struct {
	Strategy    randomness.Strategy `koanf:"strategy"`
	ReseedAfter int                 `koanf:"reseed_after"`
}

// Options returns the source options for this config.
func (r RandomnessConfig) Options() randomness.Options {
	return randomness.Options{ReseedAfter: r.ReseedAfter}
}

// DisplayConfig controls terminal output.
type DisplayConfig struct {
	Colour bool `koanf:"colour"`
}

// ExportConfig controls where CSV files are written.
type ExportConfig struct {
	Dir string `koanf:"dir"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	// StatsRate is the sustained number of stats requests per second.
	StatsRate  float64 `koanf:"stats_rate"`
	StatsBurst int     `koanf:"stats_burst"`
	// MaxSampleSize caps sample_size on API requests; 0 means no cap.
	MaxSampleSize uint `koanf:"max_sample_size"`
	// RequestTimeout bounds each API request, including the tree or sample
	// it generates.
	RequestTimeout Duration `koanf:"request_timeout"`
	// MaxNodes is the node cap served trees get when limits.max_nodes is 0;
	// 0 leaves served trees uncapped.
	MaxNodes uint `koanf:"max_nodes"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Process: tree.Params{N: DefaultN, M: DefaultM},
		Sampling: SamplingConfig{
			Size:      DefaultSampleSize,
			WarnAbove: DefaultLargeSample,
		},
		Randomness: RandomnessConfig{
			Strategy:    randomness.StrategyFast,
			ReseedAfter: 1,
		},
		Display: DisplayConfig{Colour: true},
		Export:  ExportConfig{Dir: "."},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            DefaultPort,
			ShutdownTimeout: Duration(10 * time.Second),
			StatsRate:       5,
			StatsBurst:      10,
			MaxSampleSize:   DefaultLargeSample,
			RequestTimeout:  Duration(30 * time.Second),
			MaxNodes:        DefaultServerMaxNodes,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Process.Validate(); err != nil {
		return err
	}
	if c.Sampling.Size == 0 {
		return errors.New("sampling.size must be positive")
	}
	if c.Randomness.ReseedAfter < 1 {
		return fmt.Errorf("randomness.reseed_after must be >= 1, got %d", c.Randomness.ReseedAfter)
	}
	if err := c.Limits.Validate(); err != nil {
		return err
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}
	if c.Server.StatsRate <= 0 || c.Server.StatsBurst < 1 {
		return errors.New("server.stats_rate and server.stats_burst must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server.request_timeout must be positive")
	}
	if err := (tree.Limits{MaxNodes: c.Server.MaxNodes}).Validate(); err != nil {
		return fmt.Errorf("server.max_nodes: %w", err)
	}
	return nil
}

// ServeLimits returns the limits for trees built by the HTTP server:
// Limits, with server.max_nodes filling an unset node cap.
func (c *Config) ServeLimits() tree.Limits {
	limits := c.Limits
	if limits.MaxNodes == 0 {
		limits.MaxNodes = c.Server.MaxNodes
	}
	return limits
}

// Section decodes the subtree at path into out, leaving fields that are not
// set in the file or environment untouched. It is a no-op on a Config that
// was not produced by Load.
func (c *Config) Section(path string, out any) error {
	if c.k == nil || !c.k.Exists(path) {
		return nil
	}
	if err := c.k.Unmarshal(path, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// Duration wraps time.Duration for text unmarshaling (YAML, env vars).
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("duration cannot be negative: %s", text)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration().String()), nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration().String())
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
