package chart

import (
	"math"
	"strings"
)

var (
	sparks   = []rune(" ▁▂▃▄▅▆▇█")
	partials = []string{"", "▏", "▎", "▍", "▌", "▋", "▊", "▉"}
)

// Sparkline renders the values as a line of block characters, for the
// terminal.
//
// Any value above 0 is at least one eighth of a block.
func Sparkline(values []int) string {
	max := 0
	for _, v := range values {
		if v > max {
			max = v
		}
	}

	var b strings.Builder
	for _, v := range values {
		i := 0
		if max > 0 && v > 0 {
			i = int(math.Ceil(float64(v) / float64(max) * 8))
		}
		b.WriteRune(sparks[i])
	}
	return b.String()
}

// HBar renders a horizontal bar of at most width characters, with v relative
// to max.
//
// Any value above 0 gets at least a thin bar.
func HBar(v, max, width int) string {
	if v <= 0 || max <= 0 || width <= 0 {
		return ""
	}
	if v > max {
		v = max
	}

	var (
		cells = float64(v) / float64(max) * float64(width)
		full  = int(cells)
		frac  = int((cells - float64(full)) * 8)
		s     = strings.Repeat("█", full) + partials[frac]
	)
	if s == "" {
		return partials[1]
	}
	return s
}
