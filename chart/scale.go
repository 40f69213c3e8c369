package chart

import (
	"math"
	"time"

	"zgo.at/goatdash"
)

// Linear maps the domain D0..D1 to the range R0..R1.
type Linear struct{ D0, D1, R0, R1 float64 }

// Scale a domain value to the range.
//
// A zero-width domain maps everything to the middle of the range.
func (s Linear) Scale(v float64) float64 {
	if s.D1 == s.D0 {
		return (s.R0 + s.R1) / 2
	}
	return s.R0 + (v-s.D0)/(s.D1-s.D0)*(s.R1-s.R0)
}

// Invert maps a range value back to the domain.
func (s Linear) Invert(px float64) float64 {
	if s.R1 == s.R0 {
		return s.D0
	}
	return s.D0 + (px-s.R0)/(s.R1-s.R0)*(s.D1-s.D0)
}

// Ticks gets about n evenly spaced "nice" values inside the domain.
func (s Linear) Ticks(n int) []float64 {
	lo, hi := math.Min(s.D0, s.D1), math.Max(s.D0, s.D1)
	if lo == hi {
		return []float64{lo}
	}

	step := NiceStep(hi-lo, n)
	var (
		first = int(math.Ceil(lo/step - 1e-9))
		last  = int(math.Floor(hi/step + 1e-9))
		ticks = make([]float64, 0, last-first+1)
	)
	for i := first; i <= last; i++ {
		ticks = append(ticks, float64(i)*step)
	}
	return ticks
}

// NiceStep gets the step size to divide span in to about n parts; this is
// always 1, 2, or 5 times a power of ten.
func NiceStep(span float64, n int) float64 {
	if n < 1 {
		n = 1
	}
	if span <= 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		return 1
	}

	var (
		raw  = span / float64(n)
		mag  = math.Pow(10, math.Floor(math.Log10(raw)))
		norm = raw / mag
	)
	switch {
	case norm <= 1:
		return mag
	case norm <= 2:
		return 2 * mag
	case norm <= 5:
		return 5 * mag
	default:
		return 10 * mag
	}
}

// Time maps the time domain D0..D1 to the range R0..R1.
type Time struct {
	D0, D1 time.Time
	R0, R1 float64
}

// Scale a time to the range.
//
// A zero-width domain (e.g. a series with one point) maps everything to the
// middle of the range.
func (s Time) Scale(t time.Time) float64 {
	span := s.D1.Sub(s.D0)
	if span <= 0 {
		return (s.R0 + s.R1) / 2
	}
	return s.R0 + float64(t.Sub(s.D0))/float64(span)*(s.R1-s.R0)
}

// Invert maps a range value back to a time.
func (s Time) Invert(px float64) time.Time {
	span := s.D1.Sub(s.D0)
	if s.R1 == s.R0 || span <= 0 {
		return s.D0
	}
	f := (px - s.R0) / (s.R1 - s.R0)
	return s.D0.Add(time.Duration(f * float64(span)))
}

type timeStep struct {
	g      goatdash.Granularity
	k      int
	approx time.Duration
	layout string
}

var timeSteps = []timeStep{
	{goatdash.Hour, 1, time.Hour, "15:04"},
	{goatdash.Hour, 3, 3 * time.Hour, "15:04"},
	{goatdash.Hour, 6, 6 * time.Hour, "15:04"},
	{goatdash.Hour, 12, 12 * time.Hour, "Jan 2 15:04"},
	{goatdash.Day, 1, 24 * time.Hour, "Jan 2"},
	{goatdash.Day, 2, 48 * time.Hour, "Jan 2"},
	{goatdash.Week, 1, 7 * 24 * time.Hour, "Jan 2"},
	{goatdash.Month, 1, 30 * 24 * time.Hour, "Jan 2006"},
	{goatdash.Month, 3, 91 * 24 * time.Hour, "Jan 2006"},
	{goatdash.Month, 6, 182 * 24 * time.Hour, "Jan 2006"},
	{goatdash.Month, 12, 365 * 24 * time.Hour, "2006"},
}

func (s Time) step(n int) timeStep {
	if n < 1 {
		n = 1
	}
	span := s.D1.Sub(s.D0)
	for _, st := range timeSteps {
		if span/st.approx <= time.Duration(n) {
			return st
		}
	}
	return timeSteps[len(timeSteps)-1]
}

// Ticks gets at most about n ticks on hour, day, week, or month boundaries.
func (s Time) Ticks(n int) []time.Time {
	if !s.D1.After(s.D0) {
		if s.D0.IsZero() {
			return nil
		}
		return []time.Time{s.D0}
	}

	var (
		st    = s.step(n)
		loc   = s.D0.Location()
		t     = goatdash.BucketKey(s.D0, st.g, loc)
		ticks []time.Time
	)
	for ; !t.After(s.D1); t = advance(t, st.g, 1) {
		if t.Before(s.D0) {
			continue
		}
		switch {
		case st.g == goatdash.Hour && t.Hour()%st.k != 0:
			continue
		case st.g == goatdash.Month && (int(t.Month())-1)%st.k != 0:
			continue
		case st.g == goatdash.Day && st.k > 1 && len(ticks) > 0 && goatdash.SpanDays(ticks[len(ticks)-1], t) < st.k:
			continue
		}
		ticks = append(ticks, t)
	}
	return ticks
}

// Layout gets the time format to use for labels of Ticks(n).
func (s Time) Layout(n int) string { return s.step(n).layout }

func advance(t time.Time, g goatdash.Granularity, k int) time.Time {
	switch g {
	case goatdash.Hour:
		return t.Add(time.Duration(k) * time.Hour)
	case goatdash.Day:
		return t.AddDate(0, 0, k)
	case goatdash.Week:
		return t.AddDate(0, 0, 7*k)
	default:
		return t.AddDate(0, k, 0)
	}
}
