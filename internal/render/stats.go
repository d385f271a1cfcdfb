package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/branchsim/internal/stats"
	"github.com/fyrsmithlabs/branchsim/internal/tree"
)

// TreeStats lists the measurements of one tree, without a trailing newline.
func TreeStats(m tree.Measurements) string {
	return fmt.Sprintf("Leaves: %d\nBranches: %d\nNodes: %d\nGenerations: %d",
		m.Leaves, m.Branches, m.Nodes, m.Generations)
}

// Summary lists the statistics of one sample, without a trailing newline.
func Summary(s stats.Summary) string {
	return fmt.Sprintf("Tree stats:\n\tMin = %d\n\tMedian = %d\n\tMax = %d\n\tAverage = %d\n\tσ = %s",
		s.Min, s.Median, s.Max, s.Mean, formatFloat(s.StdDev))
}

// SummaryDelta shows cur with each statistic's movement since prev.
// Lower values are red, higher green and unchanged blue.
func SummaryDelta(prev, cur stats.Summary, p Palette) string {
	d := stats.Compare(prev, cur)
	lines := []struct {
		label  string
		value  string
		change stats.Change
	}{
		{"Min", formatUint(cur.Min), d.Min},
		{"Median", formatUint(cur.Median), d.Median},
		{"Max", formatUint(cur.Max), d.Max},
		{"Average", formatUint(cur.Mean), d.Mean},
		{"σ", formatFloat(cur.StdDev), d.StdDev},
	}

	var sb strings.Builder
	sb.WriteString("Tree stats:")
	for _, l := range lines {
		tint := directionTint(l.change.Direction)
		fmt.Fprintf(&sb, "\n\t%s = %s (%s)", l.label,
			p.Paint(l.value, tint),
			p.Paint(l.change.Direction.Symbol()+formatFloat(l.change.Amount), tint))
	}
	return sb.String()
}

func directionTint(d stats.Direction) Tint {
	switch d {
	case stats.Down:
		return Red
	case stats.Up:
		return Green
	default:
		return Blue
	}
}

func formatUint(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
