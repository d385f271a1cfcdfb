package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		counts   []uint
		expected Summary
	}{
		{
			name:     "single tree",
			counts:   []uint{9},
			expected: Summary{Min: 9, Median: 9, Max: 9, Mean: 9, StdDev: 0},
		},
		{
			name:     "upper median for even sample",
			counts:   []uint{1, 2, 3, 4},
			expected: Summary{Min: 1, Median: 3, Max: 4, Mean: 2, StdDev: math.Sqrt(6.0 / 4.0)},
		},
		{
			name:     "unsorted input",
			counts:   []uint{4, 1, 3, 2},
			expected: Summary{Min: 1, Median: 3, Max: 4, Mean: 2, StdDev: math.Sqrt(6.0 / 4.0)},
		},
		{
			name:     "odd sample",
			counts:   []uint{7, 4, 10},
			expected: Summary{Min: 4, Median: 7, Max: 10, Mean: 7, StdDev: math.Sqrt(18.0 / 3.0)},
		},
		{
			name:     "identical counts",
			counts:   []uint{4, 4, 4, 4, 4},
			expected: Summary{Min: 4, Median: 4, Max: 4, Mean: 4, StdDev: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Summarize(tt.counts)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSummarize_StdDevUsesTruncatedMean(t *testing.T) {
	// Exact mean is 5.5; the truncated mean 5 is used for deviations:
	// (4-5)^2 + (7-5)^2 = 5, / 2 = 2.5.
	got, err := Summarize([]uint{4, 7})
	require.NoError(t, err)
	assert.Equal(t, uint(5), got.Mean)
	assert.Equal(t, math.Sqrt(2.5), got.StdDev)

	exact := math.Sqrt(((4-5.5)*(4-5.5) + (7-5.5)*(7-5.5)) / 2)
	assert.NotEqual(t, exact, got.StdDev)
}

func TestSummarize_DoesNotReorderInput(t *testing.T) {
	counts := []uint{5, 1, 3}
	_, err := Summarize(counts)
	require.NoError(t, err)
	assert.Equal(t, []uint{5, 1, 3}, counts)
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize(nil)
	assert.ErrorIs(t, err, ErrEmptySample)
}

func TestCompare(t *testing.T) {
	prev := Summary{Min: 4, Median: 6, Max: 20, Mean: 7, StdDev: 2.5}
	cur := Summary{Min: 4, Median: 5, Max: 31, Mean: 7, StdDev: 3.0}

	d := Compare(prev, cur)
	assert.Equal(t, Change{Direction: Same}, d.Min)
	assert.Equal(t, Change{Direction: Down, Amount: 1}, d.Median)
	assert.Equal(t, Change{Direction: Up, Amount: 11}, d.Max)
	assert.Equal(t, Change{Direction: Same}, d.Mean)
	assert.Equal(t, Change{Direction: Up, Amount: 0.5}, d.StdDev)

	back := Compare(cur, prev)
	assert.Equal(t, Change{Direction: Down, Amount: 0.5}, back.StdDev)
}

func TestCompare_FromZeroSummary(t *testing.T) {
	d := Compare(Summary{}, Summary{Min: 4, Median: 4, Max: 4, Mean: 4})
	assert.Equal(t, Up, d.Min.Direction)
	assert.Equal(t, 4.0, d.Min.Amount)
	assert.Equal(t, Same, d.StdDev.Direction)
}

func TestDirection_Symbol(t *testing.T) {
	assert.Equal(t, "↑", Up.Symbol())
	assert.Equal(t, "↓", Down.Symbol())
	assert.Equal(t, "=", Same.Symbol())
}
