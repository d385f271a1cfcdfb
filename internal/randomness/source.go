// Package randomness provides the uniform draws that drive the branching process.
//
// Two strategies are available and are interchangeable for callers: a fast
// PCG generator and a ChaCha8 generator rekeyed from the operating system's
// entropy source. Both satisfy Source.
package randomness

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStrategy is returned when a strategy name cannot be parsed.
var ErrUnknownStrategy = errors.New("unknown randomness strategy")

// Source produces uniform integers in [0, n).
//
// Implementations are not safe for concurrent use. n must be positive.
type Source interface {
	Uint32N(n uint32) uint32
}

// Strategy selects a Source implementation.
type Strategy int

const (
	// StrategyFast uses a non-cryptographic PCG generator.
	StrategyFast Strategy = iota
	// StrategySecure uses ChaCha8 rekeyed from crypto/rand.
	StrategySecure
)

// String implements fmt.Stringer.
func (s Strategy) String() string {
	switch s {
	case StrategyFast:
		return "fast"
	case StrategySecure:
		return "secure"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Toggle returns the other strategy.
func (s Strategy) Toggle() Strategy {
	if s == StrategyFast {
		return StrategySecure
	}
	return StrategyFast
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so strategies can be
// read from YAML, environment variables and flags.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStrategy parses "fast" or "secure" (case-insensitive).
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fast", "":
		return StrategyFast, nil
	case "secure", "csprng":
		return StrategySecure, nil
	default:
		return StrategyFast, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Options tunes source construction.
type Options struct {
	// ReseedAfter is the number of draws a secure source makes before it is
	// rekeyed from crypto/rand. Values below 1 mean 1.
	ReseedAfter int
}

// New creates a Source for the given strategy.
func New(strategy Strategy, opts Options) (Source, error) {
	switch strategy {
	case StrategyFast:
		return NewFast(), nil
	case StrategySecure:
		return NewSecure(opts.ReseedAfter), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, strategy)
	}
}

// Continue makes one draw in [0, m) and reports whether it fell below n,
// which happens with probability n/m (always when n >= m).
func Continue(src Source, n, m uint32) bool {
	return src.Uint32N(m) < n
}
