package goatdash

import (
	"fmt"
	"math"

	"zgo.at/zstd/ztime"
)

// PreviousPeriod gets the period of equal length that ends directly before
// rng.Start.
//
// The end is one nanosecond before rng.Start, so the periods never overlap and
// there is no gap between them.
func PreviousPeriod(rng ztime.Range) ztime.Range {
	d := rng.End.Sub(rng.Start)
	return ztime.Range{
		Start: rng.Start.Add(-d - 1),
		End:   rng.Start.Add(-1),
	}
}

// PercentChange gets the change from previous to current as a percentage.
//
// This returns nil if previous is 0, as there is no baseline to compare to.
func PercentChange(current, previous float64) *float64 {
	if previous == 0 || math.IsNaN(previous) || math.IsNaN(current) {
		return nil
	}
	c := (current - previous) / previous * 100
	return &c
}

// Comparison is an aggregate value for the current period, and the same value
// for the previous period.
type Comparison struct {
	Current  float64  `json:"current"`
	Previous float64  `json:"previous"`
	Change   *float64 `json:"change"`

	// Previous period could be loaded; if this is false Previous is always 0
	// and Change nil.
	Available bool `json:"available"`
}

// Compare two values; prevOK should be false if the previous value couldn't be
// retrieved.
func Compare(current, previous float64, prevOK bool) Comparison {
	if !prevOK {
		return Comparison{Current: current}
	}
	return Comparison{
		Current:   current,
		Previous:  previous,
		Change:    PercentChange(current, previous),
		Available: true,
	}
}

// CompareOptional is like Compare, but for values that may not be present
// (e.g. bounce rate for a period without sessions). The change is nil if
// either value is missing.
func CompareOptional(current, previous *float64, prevOK bool) Comparison {
	var c, p float64
	if current != nil {
		c = *current
	}
	if previous != nil {
		p = *previous
	}
	cmp := Compare(c, p, prevOK)
	if current == nil || previous == nil {
		cmp.Change = nil
	}
	return cmp
}

// Direction of a change: "up", "down", or "stable".
func Direction(change *float64) string {
	switch {
	case change == nil || math.Abs(*change) < 0.05:
		return "stable"
	case *change > 0:
		return "up"
	default:
		return "down"
	}
}

// FormatChange formats a change as "+12.3%", or "—" if there is no change.
func FormatChange(change *float64) string {
	if change == nil || math.IsNaN(*change) || math.IsInf(*change, 0) {
		return "—"
	}
	c := math.Round(*change*10) / 10
	if c == 0 {
		c = 0 // Avoid "-0.0%"
	}
	if c >= 0 {
		return fmt.Sprintf("+%.1f%%", c)
	}
	return fmt.Sprintf("%.1f%%", c)
}
