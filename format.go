package goatdash

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Number formats n with thousands separators: 1234567 → "1,234,567".
func Number(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatDuration formats a number of seconds as "3m 07s". Returns "—" for nil.
func FormatDuration(seconds *float64) string {
	if seconds == nil || math.IsNaN(*seconds) || math.IsInf(*seconds, 0) {
		return "—"
	}
	s := int(math.Round(*seconds))
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%dm %02ds", s/60, s%60)
}

// FormatRate formats a percentage like a bounce rate as "45.2%". Returns "—" for
// nil.
func FormatRate(p *float64) string {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return "—"
	}
	return fmt.Sprintf("%.1f%%", *p)
}

// FormatPercent formats a percentage for the horizontal charts; small values
// get a decimal ("0.4%" is shown as ".4%"), larger ones are rounded.
func FormatPercent(p float64) string {
	switch {
	case p == 0:
		return "0%"
	case p < .5:
		return fmt.Sprintf("%.1f%%", p)[1:]
	default:
		return fmt.Sprintf("%.0f%%", math.Round(p))
	}
}
