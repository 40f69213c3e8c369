package chart

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"zgo.at/goatdash"
)

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func TestLineDomain(t *testing.T) {
	tests := []struct {
		series goatdash.TimeSeries
		prev   goatdash.TimeSeries
		wantLo float64
		wantHi float64
	}{
		{nil, nil, 0, 1},
		{goatdash.TimeSeries{{day(1), 0}, {day(2), 0}}, nil, 0, 1},
		{goatdash.TimeSeries{{day(1), 10}, {day(2), 5}}, nil, 0, 11},
		{goatdash.TimeSeries{{day(1), 10}}, goatdash.TimeSeries{{day(1), 20}}, 0, 22},
	}
	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			lo, hi := Line{Series: tt.series, Previous: tt.prev}.Domain()
			if lo != tt.wantLo || math.Abs(hi-tt.wantHi) > 1e-9 {
				t.Errorf("\nhave: %v, %v\nwant: %v, %v", lo, hi, tt.wantLo, tt.wantHi)
			}
		})
	}
}

func TestLinePoints(t *testing.T) {
	l := Line{Series: goatdash.TimeSeries{{day(1), 5}, {day(2), 10}, {day(4), 0}}}

	p := l.Points()
	if len(p) != 3 {
		t.Fatalf("len: %d", len(p))
	}

	ts, vs := l.Scales()
	if p[0].X != ts.R0 || p[2].X != ts.R1 {
		t.Errorf("first and last point not at the edges: %v; %v", p, ts)
	}
	// Peak is never at the top, because of the headroom.
	if top := vs.R1; p[1].Y <= top {
		t.Errorf("peak clipped: %v <= %v", p[1].Y, top)
	}
	if bottom := vs.R0; p[2].Y != bottom {
		t.Errorf("zero not at the bottom: %v != %v", p[2].Y, bottom)
	}

	path := l.Path()
	if !strings.HasPrefix(path, "M") || strings.Count(path, " L") != 2 {
		t.Errorf("path: %q", path)
	}

	if have := (Line{}).Path(); have != "" {
		t.Errorf("empty path: %q", have)
	}
}

func TestLineSinglePoint(t *testing.T) {
	l := Line{Series: goatdash.TimeSeries{{day(1), 5}}}
	ts, _ := l.Scales()
	if have, want := l.Points()[0].X, (ts.R0+ts.R1)/2; have != want {
		t.Errorf("\nhave: %v\nwant: %v", have, want)
	}
}

func TestLineNearest(t *testing.T) {
	l := Line{Series: goatdash.TimeSeries{{day(1), 1}, {day(2), 2}, {day(3), 3}, {day(7), 7}}}
	ts, _ := l.Scales()

	tests := []struct {
		at   time.Time
		want int
	}{
		{day(1), 0},
		{day(1).Add(-48 * time.Hour), 0},
		{day(2).Add(11 * time.Hour), 1},
		{day(2).Add(13 * time.Hour), 2},
		{day(5).Add(13 * time.Hour), 3},
		{day(9), 3},
	}
	for _, tt := range tests {
		t.Run(tt.at.String(), func(t *testing.T) {
			b, i, ok := l.Nearest(ts.Scale(tt.at))
			if !ok {
				t.Fatal("not ok")
			}
			if i != tt.want || !b.Start.Equal(l.Series[tt.want].Start) {
				t.Errorf("\nhave: %d (%v)\nwant: %d", i, b, tt.want)
			}
		})
	}

	t.Run("tie", func(t *testing.T) {
		l := Line{Series: goatdash.TimeSeries{{day(1), 1}, {day(2), 2}, {day(3), 3}}}
		ts, _ := l.Scales()
		_, i, _ := l.Nearest(ts.R0 + (ts.R1-ts.R0)*0.25) // 12:00 on the first day
		if i != 0 {
			t.Errorf("tie went to %d", i)
		}
	})

	t.Run("empty", func(t *testing.T) {
		_, i, ok := Line{}.Nearest(10)
		if ok || i != -1 {
			t.Errorf("%d %v", i, ok)
		}
	})
}

func TestLineSVG(t *testing.T) {
	l := Line{
		Series:   goatdash.TimeSeries{{day(1), 1}, {day(2), 2}},
		Previous: goatdash.TimeSeries{{day(1), 3}, {day(2), 4}, {day(3), 5}},
	}
	have := l.SVG()
	for _, want := range []string{`<svg `, `class="line"`, `class="previous"`, `data-i="1"`, `</svg>`} {
		if !strings.Contains(have, want) {
			t.Errorf("doesn't contain %q:\n%s", want, have)
		}
	}
	if strings.Contains(have, "NaN") {
		t.Errorf("NaN in output:\n%s", have)
	}

	have = Line{}.SVG()
	if !strings.Contains(have, "No data") || strings.Contains(have, "NaN") {
		t.Errorf("empty:\n%s", have)
	}

	var buf bytes.Buffer
	if err := Render(&buf, l); err != nil {
		t.Fatal(err)
	}
	if buf.String() != l.SVG() {
		t.Error("Render() and SVG() differ")
	}
}

func TestBarDomain(t *testing.T) {
	tests := []struct {
		in     []int
		lo, hi float64
	}{
		{nil, 0, 1},
		{[]int{0, 0, 0}, 0, 1},
		{[]int{5, 5}, 0, 5},
		{[]int{2, 8, 3}, 0, 8},
		{[]int{-3, 4}, 0, 4},
		{[]int{-3, -1}, 0, 1},
	}
	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			lo, hi := BarDomain(tt.in)
			if lo != tt.lo || hi != tt.hi || math.IsNaN(hi) {
				t.Errorf("\nhave: %v, %v\nwant: %v, %v", lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

func TestBarRects(t *testing.T) {
	t.Run("vertical", func(t *testing.T) {
		b := Bar{Config: Config{Width: 300, Height: 200}, Values: []int{0, 1, 1000}}
		r := b.Rects()
		if len(r) != 3 {
			t.Fatalf("len: %d", len(r))
		}
		if r[0].H != 2 || r[1].H != 2 {
			t.Errorf("minimum height: %v, %v", r[0].H, r[1].H)
		}
		_, _, y0, y1 := b.cfg().plot()
		if r[2].H != y1-y0 || r[2].Y != y0 {
			t.Errorf("max bar: %+v", r[2])
		}
		if !(r[0].X < r[1].X && r[1].X < r[2].X) {
			t.Errorf("not ordered: %+v", r)
		}
	})

	t.Run("horizontal", func(t *testing.T) {
		b := Bar{Horizontal: true, MinBar: 8, Labels: []string{"a", "b"}, Values: []int{0, 50}}
		r := b.Rects()
		if r[0].W != 8 {
			t.Errorf("minimum width: %v", r[0].W)
		}
		if !(r[0].Y < r[1].Y) || r[0].X != r[1].X {
			t.Errorf("%+v", r)
		}
	})

	t.Run("all zero", func(t *testing.T) {
		for _, r := range (Bar{Values: []int{0, 0}}).Rects() {
			if math.IsNaN(r.H) || r.H != 2 {
				t.Errorf("%+v", r)
			}
		}
	})

	t.Run("stacked", func(t *testing.T) {
		b := Bar{Config: Config{Width: 300, Height: 200}, Values: []int{2, 4}, Stack: []int{3, 0}}
		r := b.Rects()
		if len(r) != 3 {
			t.Fatalf("len: %d: %+v", len(r), r)
		}
		if !r[1].Stacked || r[1].Value != 3 || math.Abs(r[1].Y+r[1].H-r[0].Y) > 1e-9 {
			t.Errorf("%+v", r)
		}
		if _, hi := BarDomain(b.totals()); hi != 5 {
			t.Errorf("domain: %v", hi)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if r := (Bar{}).Rects(); r != nil {
			t.Errorf("%+v", r)
		}
		if s := (Bar{}).SVG(); !strings.Contains(s, "No data") {
			t.Error(s)
		}
	})
}

func TestBarFromStats(t *testing.T) {
	b := BarFromStats(Config{}, goatdash.Stats{{Name: "Firefox", Value: 3}, {Name: "Chrome", Value: 5}})
	if !b.Horizontal || len(b.Values) != 2 || b.Labels[1] != "Chrome" {
		t.Errorf("%+v", b)
	}
	have := b.SVG()
	if !strings.Contains(have, ">Firefox<") || !strings.Contains(have, "chart-hbar") {
		t.Error(have)
	}
}

func TestPie(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		p := Pie{Stats: goatdash.Stats{{Name: "a"}, {Name: "b"}}}
		if s := p.Slices(); s != nil {
			t.Errorf("%+v", s)
		}
		have := p.SVG()
		if !strings.Contains(have, "No data") || strings.Contains(have, "NaN") {
			t.Error(have)
		}
	})

	t.Run("slices", func(t *testing.T) {
		p := Pie{Stats: goatdash.Stats{{Name: "a", Value: 1}, {Name: "zero"}, {Name: "b", Value: 3}}}
		s := p.Slices()
		if len(s) != 2 {
			t.Fatalf("%+v", s)
		}
		if s[0].Start != 0 || math.Abs(s[0].End-math.Pi/2) > 1e-9 {
			t.Errorf("%+v", s[0])
		}
		if s[1].Start != s[0].End || math.Abs(s[1].End-2*math.Pi) > 1e-9 {
			t.Errorf("%+v", s[1])
		}
		if s[0].Percentage != 25 {
			t.Errorf("%+v", s[0])
		}

		have := p.SVG()
		if strings.Count(have, `class="slice"`) != 2 || strings.Contains(have, "NaN") {
			t.Error(have)
		}
	})

	t.Run("single", func(t *testing.T) {
		have := Pie{Stats: goatdash.Stats{{Name: "a", Value: 5}}}.SVG()
		if !strings.Contains(have, `<circle class="slice"`) {
			t.Error(have)
		}
	})

	t.Run("donut", func(t *testing.T) {
		have := Pie{Inner: 0.5, Stats: goatdash.Stats{{Name: "a", Value: 5}, {Name: "b", Value: 5}}}.SVG()
		if strings.Count(have, " A") != 4 {
			t.Error(have)
		}
	})
}

func TestInterpolate(t *testing.T) {
	tests := []struct {
		f    float64
		want string
	}{
		{0, "#f3ebff"},
		{1, "#6366f1"},
		{0.5, "#aba9f8"},
		{-1, "#f3ebff"},
		{2, "#6366f1"},
		{math.NaN(), "#f3ebff"},
	}
	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			have := Interpolate(lowColor, highColor, tt.f)
			if have != tt.want {
				t.Errorf("\nhave: %s\nwant: %s", have, tt.want)
			}
		})
	}
}

func TestChoropleth(t *testing.T) {
	m := Choropleth{
		Data:     map[string]int{"USA": 10, "NLD": 5, "XKX": 3},
		Hovered:  "NLD",
		Selected: "USA",
	}

	tests := []struct {
		iso, want string
	}{
		{"USA", "#6366f1"},
		{"NLD", "#aba9f8"},
		{"FRA", "#e5e7eb"},
	}
	for _, tt := range tests {
		if have := m.Fill(tt.iso); have != tt.want {
			t.Errorf("%s\nhave: %s\nwant: %s", tt.iso, have, tt.want)
		}
	}

	if have := (Choropleth{Data: map[string]int{"USA": 0}}).Fill("USA"); have != lowColor {
		t.Errorf("zero max: %s", have)
	}

	tiles := m.Tiles()
	if len(tiles) != len(Grid) {
		t.Fatalf("len: %d", len(tiles))
	}
	seen := make(map[[2]float64]string)
	for _, tt := range tiles {
		k := [2]float64{tt.X, tt.Y}
		if o, ok := seen[k]; ok {
			t.Errorf("%s and %s have the same position", tt.ISO, o)
		}
		seen[k] = tt.ISO

		switch tt.ISO {
		case "USA":
			if tt.StrokeWidth != 2.5 || !tt.HasData || tt.Value != 10 {
				t.Errorf("selected: %+v", tt)
			}
		case "NLD":
			if tt.StrokeWidth != 2 || tt.Fill != hoverFill {
				t.Errorf("hovered: %+v", tt)
			}
		case "FRA":
			if tt.StrokeWidth != 1 || tt.HasData {
				t.Errorf("other: %+v", tt)
			}
		}
	}

	have := m.SVG()
	for _, want := range []string{`data-iso="USA"`, `tile has-data selected`, `tile has-data hovered`} {
		if !strings.Contains(have, want) {
			t.Errorf("doesn't contain %q", want)
		}
	}
}

func TestNewChoropleth(t *testing.T) {
	l := goatdash.Countries(goatdash.Stats{{Name: "USA", Value: 40}, {Name: "Atlantis", Value: 10}}, 0)
	m := NewChoropleth(Config{}, l)
	if len(m.Data) != 1 || m.Data["USA"] != 40 {
		t.Errorf("%v", m.Data)
	}
	if m.Names["USA"] != "USA" {
		t.Errorf("%v", m.Names)
	}
}

func TestSparkline(t *testing.T) {
	tests := []struct {
		in   []int
		want string
	}{
		{nil, ""},
		{[]int{0, 0}, "  "},
		{[]int{0, 1, 2, 4, 8}, " ▁▂▄█"},
		{[]int{1, 1000}, "▁█"},
	}
	for _, tt := range tests {
		if have := Sparkline(tt.in); have != tt.want {
			t.Errorf("\nhave: %q\nwant: %q", have, tt.want)
		}
	}
}

func TestHBar(t *testing.T) {
	tests := []struct {
		v, max, width int
		want          string
	}{
		{5, 10, 10, "█████"},
		{10, 10, 4, "████"},
		{3, 8, 4, "█▌"},
		{1, 100, 10, "▏"},
		{0, 10, 10, ""},
		{5, 0, 10, ""},
		{20, 10, 2, "██"},
	}
	for _, tt := range tests {
		if have := HBar(tt.v, tt.max, tt.width); have != tt.want {
			t.Errorf("HBar(%d, %d, %d)\nhave: %q\nwant: %q", tt.v, tt.max, tt.width, have, tt.want)
		}
	}
}

func TestTextWidth(t *testing.T) {
	if have := TextWidth(""); have != 0 {
		t.Errorf("empty: %v", have)
	}
	if w, i := TextWidth("WWW"), TextWidth("iii"); w <= i {
		t.Errorf("WWW=%v iii=%v", w, i)
	}
}
