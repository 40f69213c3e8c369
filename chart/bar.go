package chart

import (
	"zgo.at/goatdash"
	"zgo.at/zstd/zstring"
)

// Bar is a bar chart; the bars are vertical unless Horizontal is set.
type Bar struct {
	Config

	Labels []string
	Values []int

	// Stack is drawn on top of Values, for example the non-bounced sessions on
	// top of the bounced ones. Must be the same length as Values if set.
	Stack []int

	Horizontal bool

	// Minimum length of a bar in pixels, so that small values are still
	// visible; default 2.
	MinBar float64

	Ticks int // Number of value ticks; default 4.
}

// BarFromStats creates a horizontal bar chart from the stats, in the order
// they're in.
func BarFromStats(c Config, stats goatdash.Stats) Bar {
	b := Bar{Config: c, Horizontal: true}
	for _, s := range stats {
		b.Labels = append(b.Labels, s.Name)
		b.Values = append(b.Values, s.Value)
	}
	return b
}

// BarFromSeries creates a vertical bar chart from a time series.
func BarFromSeries(c Config, series goatdash.TimeSeries, layout string) Bar {
	b := Bar{Config: c}
	for _, s := range series {
		b.Labels = append(b.Labels, s.Start.Format(layout))
		b.Values = append(b.Values, s.Value)
	}
	return b
}

// BarDomain gets the value domain for the values.
//
// The minimum is always 0. If there is no value above 0 this will return
// 0, 1 rather than 0, 0.
func BarDomain(values []int) (float64, float64) {
	m := 0
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	if m == 0 {
		return 0, 1
	}
	return 0, float64(m)
}

// Rect is a single bar.
type Rect struct {
	X, Y, W, H float64
	Label      string
	Value      int
	Stacked    bool // Part of the Stack series.
}

func (b Bar) minBar() float64 {
	if b.MinBar <= 0 {
		return 2
	}
	return b.MinBar
}

func (b Bar) ticks() int {
	if b.Ticks <= 0 {
		return 4
	}
	return b.Ticks
}

// totals gets the value for every bar, including the stacked part.
func (b Bar) totals() []int {
	if len(b.Stack) == 0 {
		return b.Values
	}
	t := make([]int, len(b.Values))
	for i, v := range b.Values {
		t[i] = v
		if i < len(b.Stack) {
			t[i] += b.Stack[i]
		}
	}
	return t
}

func (b Bar) label(i int) string {
	if i < len(b.Labels) {
		return zstring.ElideLeft(b.Labels[i], 28)
	}
	return ""
}

func (b Bar) cfg() Config {
	c := b.Config.withDefaults()
	if b.Horizontal {
		labels := make([]string, len(b.Values))
		for i := range b.Values {
			labels[i] = b.label(i)
		}
		c.Margin.Left = leftMargin(c.Margin.Left, labels)
	}
	return c
}

// Scale gets the value scale; this maps values to a bar length in pixels.
func (b Bar) Scale() Linear { return b.scale(b.cfg()) }

func (b Bar) scale(c Config) Linear {
	x0, x1, y0, y1 := c.plot()
	d0, d1 := BarDomain(b.totals())
	if b.Horizontal {
		return Linear{D0: d0, D1: d1, R0: 0, R1: x1 - x0}
	}
	return Linear{D0: d0, D1: d1, R0: 0, R1: y1 - y0}
}

// Rects gets the position of every bar.
func (b Bar) Rects() []Rect { return b.rects(b.cfg()) }

func (b Bar) rects(c Config) []Rect {
	if len(b.Values) == 0 {
		return nil
	}

	var (
		x0, x1, y0, y1 = c.plot()
		sc             = b.scale(c)
		minLen         = b.minBar()
		across         = x1 - x0
		rects          = make([]Rect, 0, len(b.Values)+len(b.Stack))
	)
	if b.Horizontal {
		across = y1 - y0
	}
	var (
		band = across / float64(len(b.Values))
		pad  = band * 0.1
		w    = band - 2*pad
	)

	length := func(v int, minimum float64) float64 {
		if v < 0 {
			v = 0
		}
		l := sc.Scale(float64(v))
		if l < minimum {
			l = minimum
		}
		return l
	}

	for i, v := range b.Values {
		var (
			pos   = float64(i)*band + pad
			l     = length(v, minLen)
			stack = 0
			sl    float64
		)
		if i < len(b.Stack) && b.Stack[i] > 0 {
			stack = b.Stack[i]
			sl = length(stack, minLen)
		}

		if b.Horizontal {
			rects = append(rects, Rect{X: x0, Y: y0 + pos, W: l, H: w, Label: b.label(i), Value: v})
			if stack > 0 {
				rects = append(rects, Rect{X: x0 + l, Y: y0 + pos, W: sl, H: w, Label: b.label(i), Value: stack, Stacked: true})
			}
			continue
		}

		rects = append(rects, Rect{X: x0 + pos, Y: y1 - l, W: w, H: l, Label: b.label(i), Value: v})
		if stack > 0 {
			rects = append(rects, Rect{X: x0 + pos, Y: y1 - l - sl, W: w, H: sl, Label: b.label(i), Value: stack, Stacked: true})
		}
	}
	return rects
}

// SVG renders the chart.
func (b Bar) SVG() string {
	var (
		c              = b.cfg()
		s              svg
		sc             = b.scale(c)
		x0, x1, y0, y1 = c.plot()
		kind           = "bar"
	)
	if b.Horizontal {
		kind = "hbar"
	}
	s.open(c, kind)

	if len(b.Values) == 0 {
		s.text((x0+x1)/2, c.Height/2, "middle", "empty", "No data")
		return s.close()
	}

	for _, t := range sc.Ticks(b.ticks()) {
		l := sc.Scale(t)
		if b.Horizontal {
			s.f(`<line x1="%s" x2="%s" y1="%s" y2="%s" stroke="%s"/>`, n(x0+l), n(x0+l), n(y0), n(y1), gridColor)
			s.text(x0+l, y1+16, "middle", "tick-x", tickLabel(t))
		} else {
			s.f(`<line x1="%s" x2="%s" y1="%s" y2="%s" stroke="%s"/>`, n(x0), n(x1), n(y1-l), n(y1-l), gridColor)
			s.text(x0-6, y1-l+4, "end", "tick-y", tickLabel(t))
		}
	}

	for i, r := range b.rects(c) {
		var (
			color = c.Color
			class = "bar"
		)
		if r.Stacked {
			color, class = Colors[1], "bar stack"
		}
		s.f(`<rect class="%s" x="%s" y="%s" width="%s" height="%s" fill="%s" data-i="%d" data-value="%d"><title>%s: %s</title></rect>`,
			class, n(r.X), n(r.Y), n(r.W), n(r.H), attr(color), i, r.Value,
			attr(r.Label), goatdash.Number(r.Value))
		if b.Horizontal && !r.Stacked {
			s.text(x0-6, r.Y+r.H/2+4, "end", "label", r.Label)
		}
	}
	return s.close()
}
