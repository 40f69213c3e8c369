// Package chart renders line, bar, pie, and map charts as SVG.
//
// All charts are values: create one with the data and call SVG() or Render().
// Nothing in here fetches data or keeps state between renders; hover and
// selection state is passed in by the caller.
package chart

import (
	"fmt"
	"html"
	"io"
	"math"
	"strconv"
	"strings"

	"zgo.at/errors"
	"zgo.at/goatdash"
)

// Margin around the plotting area, in pixels.
type Margin struct{ Top, Right, Bottom, Left float64 }

// Config for a chart. Zero values are replaced with the defaults from
// DefaultConfig.
type Config struct {
	Width, Height float64
	Margin        Margin
	Color         string
	Class         string // Extra CSS class to add to the <svg> element.
}

var DefaultConfig = Config{
	Width:  600,
	Height: 200,
	Margin: Margin{Top: 8, Right: 12, Bottom: 22, Left: 36},
	Color:  "#6366f1",
}

// Colors used for pie slices and stacked bars.
var Colors = []string{
	"#6366f1", "#f59e0b", "#10b981", "#ef4444", "#8b5cf6",
	"#06b6d4", "#ec4899", "#84cc16", "#f97316", "#64748b",
}

const (
	neutralFill = "#e5e7eb"
	gridColor   = "#eeeeee"
	labelColor  = "#666666"
)

// Chart is anything that can be rendered as SVG.
type Chart interface {
	SVG() string
}

// Render a chart to w.
func Render(w io.Writer, c Chart) error {
	_, err := io.WriteString(w, c.SVG())
	return errors.Wrap(err, "chart.Render")
}

func (c Config) withDefaults() Config {
	if c.Width <= 0 {
		c.Width = DefaultConfig.Width
	}
	if c.Height <= 0 {
		c.Height = DefaultConfig.Height
	}
	if c.Margin == (Margin{}) {
		c.Margin = DefaultConfig.Margin
	}
	if c.Color == "" {
		c.Color = DefaultConfig.Color
	}
	return c
}

// plot gets the plotting area as left, right, top, bottom.
func (c Config) plot() (x0, x1, y0, y1 float64) {
	x0, x1 = c.Margin.Left, c.Width-c.Margin.Right
	y0, y1 = c.Margin.Top, c.Height-c.Margin.Bottom
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return x0, x1, y0, y1
}

// svg builds the SVG markup.
type svg struct{ b strings.Builder }

func (s *svg) open(c Config, kind string) {
	class := "chart chart-" + kind
	if c.Class != "" {
		class += " " + c.Class
	}
	s.f(`<svg xmlns="http://www.w3.org/2000/svg" class="%s" viewBox="0 0 %s %s" width="%s" height="%s" role="img">`,
		attr(class), n(c.Width), n(c.Height), n(c.Width), n(c.Height))
}

func (s *svg) close() string {
	s.b.WriteString("</svg>")
	return s.b.String()
}

func (s *svg) f(format string, a ...any) {
	fmt.Fprintf(&s.b, format, a...)
	s.b.WriteByte('\n')
}

func (s *svg) text(x, y float64, anchor, class, text string) {
	s.f(`<text x="%s" y="%s" text-anchor="%s" class="%s" fill="%s" font-size="11">%s</text>`,
		n(x), n(y), anchor, class, labelColor, html.EscapeString(text))
}

// n formats a number for use in an attribute, with at most two decimals.
func n(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // No "-0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func attr(s string) string { return html.EscapeString(s) }

// tickLabel formats a value tick.
func tickLabel(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return goatdash.Number(int(v))
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
