package stats

import "math"

// Direction describes how a statistic moved between two runs.
type Direction int

const (
	Same Direction = iota
	Up
	Down
)

// Symbol returns the arrow shown next to a change.
func (d Direction) Symbol() string {
	switch d {
	case Up:
		return "↑"
	case Down:
		return "↓"
	default:
		return "="
	}
}

// Change is the movement of one statistic.
type Change struct {
	Direction Direction
	// Amount is the absolute difference.
	Amount float64
}

// Delta compares every statistic of two summaries.
type Delta struct {
	Min    Change
	Median Change
	Max    Change
	Mean   Change
	StdDev Change
}

// Compare reports how cur moved relative to prev.
func Compare(prev, cur Summary) Delta {
	return Delta{
		Min:    compareUint(prev.Min, cur.Min),
		Median: compareUint(prev.Median, cur.Median),
		Max:    compareUint(prev.Max, cur.Max),
		Mean:   compareUint(prev.Mean, cur.Mean),
		StdDev: compareFloat(prev.StdDev, cur.StdDev),
	}
}

func compareUint(prev, cur uint) Change {
	switch {
	case cur < prev:
		return Change{Direction: Down, Amount: float64(prev - cur)}
	case cur > prev:
		return Change{Direction: Up, Amount: float64(cur - prev)}
	default:
		return Change{Direction: Same}
	}
}

func compareFloat(prev, cur float64) Change {
	switch {
	case cur < prev:
		return Change{Direction: Down, Amount: prev - cur}
	case cur > prev:
		return Change{Direction: Up, Amount: cur - prev}
	default:
		return Change{Direction: Same, Amount: math.Abs(cur - prev)}
	}
}
