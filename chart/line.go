package chart

import (
	"strconv"
	"strings"
	"time"

	"zgo.at/goatdash"
)

// Line is a line chart for a time series.
type Line struct {
	Config

	Series goatdash.TimeSeries

	// Previous period to draw as a dashed line; it's aligned to Series by index
	// rather than by time.
	Previous goatdash.TimeSeries

	Ticks int // Number of value ticks; default 4.
}

// XY is a point in pixels.
type XY struct{ X, Y float64 }

func (l Line) cfg() Config {
	c := l.Config.withDefaults()
	c.Margin.Left = leftMargin(c.Margin.Left, l.labels(c))
	return c
}

func (l Line) ticks() int {
	if l.Ticks <= 0 {
		return 4
	}
	return l.Ticks
}

// labels gets the value axis labels; it's used to calculate the margin, so
// this uses the default margin.
func (l Line) labels(c Config) []string {
	_, v := l.scales(c)
	t := v.Ticks(l.ticks())
	s := make([]string, 0, len(t))
	for _, tt := range t {
		s = append(s, tickLabel(tt))
	}
	return s
}

// Domain gets the value domain: 0 to the highest value plus 10%, or 0 to 1 if
// everything is zero.
func (l Line) Domain() (float64, float64) {
	m := l.Series.Max()
	if pm := l.Previous.Max(); pm > m {
		m = pm
	}
	if m <= 0 {
		return 0, 1
	}
	return 0, float64(m) * 1.1
}

// Scales gets the time and value scales.
func (l Line) Scales() (Time, Linear) { return l.scales(l.cfg()) }

func (l Line) scales(c Config) (Time, Linear) {
	x0, x1, y0, y1 := c.plot()

	t := Time{R0: x0, R1: x1}
	for i, b := range l.Series {
		if i == 0 || b.Start.Before(t.D0) {
			t.D0 = b.Start
		}
		if i == 0 || b.Start.After(t.D1) {
			t.D1 = b.Start
		}
	}

	d0, d1 := l.Domain()
	return t, Linear{D0: d0, D1: d1, R0: y1, R1: y0}
}

// Points gets the position of every bucket.
func (l Line) Points() []XY { return l.points(l.cfg(), false) }

// points gets the positions for Series, or Previous if prev is set. Previous
// points are placed at the X of the Series bucket with the same index.
func (l Line) points(c Config, prev bool) []XY {
	var (
		ts, vs = l.scales(c)
		series = l.Series
	)
	if prev {
		series = l.Previous
	}
	p := make([]XY, 0, len(series))
	for i, b := range series {
		if i >= len(l.Series) {
			break
		}
		p = append(p, XY{X: ts.Scale(l.Series[i].Start), Y: vs.Scale(float64(b.Value))})
	}
	return p
}

// Path gets the SVG path for the line, or an empty string if there are no
// points.
func (l Line) Path() string { return path(l.Points()) }

func path(p []XY) string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for i, pp := range p {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		b.WriteString(n(pp.X))
		b.WriteByte(',')
		b.WriteString(n(pp.Y))
	}
	return b.String()
}

// Nearest gets the bucket closest to the x position in pixels.
//
// This is the closest in time rather than the closest in pixels; ties go to the
// earlier bucket. It returns false if there are no buckets.
func (l Line) Nearest(px float64) (goatdash.Bucket, int, bool) {
	if len(l.Series) == 0 {
		return goatdash.Bucket{}, -1, false
	}

	ts, _ := l.Scales()
	var (
		t     = ts.Invert(px)
		best  = 0
		bestD = absDur(l.Series[0].Start.Sub(t))
	)
	for i, b := range l.Series[1:] {
		if d := absDur(b.Start.Sub(t)); d < bestD {
			best, bestD = i+1, d
		}
	}
	return l.Series[best], best, true
}

func absDur(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// SVG renders the chart.
func (l Line) SVG() string {
	var (
		c             = l.cfg()
		s             svg
		ts, vs        = l.scales(c)
		x0, x1, _, y1 = c.plot()
	)
	s.open(c, "line")

	for _, t := range vs.Ticks(l.ticks()) {
		y := vs.Scale(t)
		s.f(`<line x1="%s" x2="%s" y1="%s" y2="%s" stroke="%s"/>`, n(x0), n(x1), n(y), n(y), gridColor)
		s.text(x0-6, y+4, "end", "tick-y", tickLabel(t))
	}

	layout := ts.Layout(6)
	for _, t := range ts.Ticks(6) {
		s.text(ts.Scale(t), y1+16, "middle", "tick-x", t.Format(layout))
	}

	if len(l.Series) == 0 {
		s.text((x0+x1)/2, (c.Height)/2, "middle", "empty", "No data")
		return s.close()
	}

	if len(l.Previous) > 0 {
		s.f(`<path class="previous" d="%s" fill="none" stroke="#9ca3af" stroke-width="1.5" stroke-dasharray="4 4"/>`,
			path(l.points(c, true)))
	}
	s.f(`<path class="line" d="%s" fill="none" stroke="%s" stroke-width="2"/>`,
		path(l.points(c, false)), attr(c.Color))
	for i, p := range l.points(c, false) {
		b := l.Series[i]
		s.f(`<circle cx="%s" cy="%s" r="3" fill="%s" data-i="%d" data-time="%s" data-value="%d"><title>%s: %s</title></circle>`,
			n(p.X), n(p.Y), attr(c.Color), i, b.Start.Format(time.RFC3339), b.Value,
			b.Start.Format(layout), strconv.Itoa(b.Value))
	}
	return s.close()
}
