package chart

import (
	"math"
	"strconv"

	"zgo.at/goatdash"
)

// Pie is a pie or donut chart.
type Pie struct {
	Config
	Stats goatdash.Stats

	// Inner radius for a donut chart, as a fraction of the radius (0 to 1).
	Inner float64

	// Colours for the slices; defaults to Colors.
	Colors []string
}

// Slice is a single slice in a pie chart. The angles are in radians, clockwise
// from the top.
type Slice struct {
	Name       string
	Value      int
	Percentage float64
	Start, End float64
}

// Slices gets all the slices, or nil if the total is 0. Entries with a value
// of 0 or lower are skipped.
func (p Pie) Slices() []Slice {
	total := 0
	for _, s := range p.Stats {
		if s.Value > 0 {
			total += s.Value
		}
	}
	if total == 0 {
		return nil
	}

	var (
		slices = make([]Slice, 0, len(p.Stats))
		a      float64
	)
	for _, s := range p.Stats {
		if s.Value <= 0 {
			continue
		}
		sweep := float64(s.Value) / float64(total) * 2 * math.Pi
		slices = append(slices, Slice{
			Name:       s.Name,
			Value:      s.Value,
			Percentage: goatdash.Percentage(s.Value, total),
			Start:      a,
			End:        a + sweep,
		})
		a += sweep
	}
	return slices
}

func (p Pie) color(i int) string {
	c := p.Colors
	if len(c) == 0 {
		c = Colors
	}
	return c[i%len(c)]
}

func (p Pie) cfg() Config {
	c := p.Config
	if c.Width <= 0 && c.Height <= 0 {
		c.Width, c.Height = 200, 200
	}
	if c.Margin == (Margin{}) {
		c.Margin = Margin{Top: 4, Right: 4, Bottom: 4, Left: 4}
	}
	return c.withDefaults()
}

// polar gets the point at angle a (clockwise from the top) on a circle.
func polar(cx, cy, r, a float64) XY {
	return XY{X: cx + r*math.Sin(a), Y: cy - r*math.Cos(a)}
}

// SVG renders the chart.
func (p Pie) SVG() string {
	var (
		c              = p.cfg()
		s              svg
		x0, x1, y0, y1 = c.plot()
		cx, cy         = (x0 + x1) / 2, (y0 + y1) / 2
		r              = math.Min(x1-x0, y1-y0) / 2
		inner          = math.Max(0, math.Min(p.Inner, 0.95)) * r
		slices         = p.Slices()
	)
	s.open(c, "pie")

	if len(slices) == 0 {
		s.f(`<circle class="empty" cx="%s" cy="%s" r="%s" fill="none" stroke="%s" stroke-width="%s"/>`,
			n(cx), n(cy), n(r*0.8), neutralFill, n(r*0.3))
		s.text(cx, cy+4, "middle", "empty", "No data")
		return s.close()
	}

	for i, sl := range slices {
		title := sl.Name + ": " + goatdash.Number(sl.Value) + " (" + goatdash.FormatPercent(sl.Percentage) + ")"

		// A single slice of 100% can't be drawn as an arc, as the start and end
		// point are identical.
		if sl.End-sl.Start >= 2*math.Pi-1e-9 {
			if inner > 0 {
				s.f(`<circle class="slice" cx="%s" cy="%s" r="%s" fill="none" stroke="%s" stroke-width="%s" data-i="%d"><title>%s</title></circle>`,
					n(cx), n(cy), n((r+inner)/2), attr(p.color(i)), n(r-inner), i, attr(title))
			} else {
				s.f(`<circle class="slice" cx="%s" cy="%s" r="%s" fill="%s" data-i="%d"><title>%s</title></circle>`,
					n(cx), n(cy), n(r), attr(p.color(i)), i, attr(title))
			}
			continue
		}

		var (
			large = 0
			a, b  = polar(cx, cy, r, sl.Start), polar(cx, cy, r, sl.End)
			d     string
		)
		if sl.End-sl.Start > math.Pi {
			large = 1
		}
		if inner > 0 {
			ia, ib := polar(cx, cy, inner, sl.End), polar(cx, cy, inner, sl.Start)
			d = "M" + n(a.X) + "," + n(a.Y) +
				" A" + n(r) + "," + n(r) + " 0 " + strconv.Itoa(large) + " 1 " + n(b.X) + "," + n(b.Y) +
				" L" + n(ia.X) + "," + n(ia.Y) +
				" A" + n(inner) + "," + n(inner) + " 0 " + strconv.Itoa(large) + " 0 " + n(ib.X) + "," + n(ib.Y) + " Z"
		} else {
			d = "M" + n(cx) + "," + n(cy) +
				" L" + n(a.X) + "," + n(a.Y) +
				" A" + n(r) + "," + n(r) + " 0 " + strconv.Itoa(large) + " 1 " + n(b.X) + "," + n(b.Y) + " Z"
		}
		s.f(`<path class="slice" d="%s" fill="%s" data-i="%d"><title>%s</title></path>`,
			d, attr(p.color(i)), i, attr(title))
	}
	return s.close()
}
