// Package stats summarizes leaf counts collected from repeated trees.
package stats

import (
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// ErrEmptySample is returned when there is nothing to summarize.
var ErrEmptySample = errors.New("sample is empty")

// Summary holds the five statistics reported for a sample.
type Summary struct {
	Min    uint    `json:"min"`
	Median uint    `json:"median"`
	Max    uint    `json:"max"`
	Mean   uint    `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// Summarize computes the summary of counts.
//
// Median is the element at index len/2 of the sorted sample, so even-sized
// samples report the upper median. Mean is truncated integer division.
// StdDev is the population deviation around that truncated mean, not the
// exact mean; existing exports depend on these values.
func Summarize(counts []uint) (Summary, error) {
	if len(counts) == 0 {
		return Summary{}, ErrEmptySample
	}

	sorted := slices.Clone(counts)
	slices.Sort(sorted)

	var sum uint64
	xs := make([]float64, len(sorted))
	for i, c := range sorted {
		sum += uint64(c)
		xs[i] = float64(c)
	}
	mean := uint(sum / uint64(len(sorted)))

	// Squared deviations are summed in ascending order.
	variance := stat.MomentAbout(2, xs, float64(mean), nil)

	return Summary{
		Min:    sorted[0],
		Median: sorted[len(sorted)/2],
		Max:    sorted[len(sorted)-1],
		Mean:   mean,
		StdDev: math.Sqrt(variance),
	}, nil
}
