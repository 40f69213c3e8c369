package widgets

import (
	"context"
	"html/template"

	"zgo.at/goatdash"
	"zgo.at/goatdash/chart"
	"zgo.at/z18n"
	"zgo.at/zstd/ztime"
)

// Trend is the chart for the selected metric over time.
type Trend struct {
	err  error
	html template.HTML
}

func (w Trend) Name() string { return "trend" }
func (w Trend) Type() string { return "full-width" }
func (w Trend) Label(ctx context.Context) string {
	return z18n.T(ctx, "label/trend|Trend chart")
}
func (w *Trend) SetHTML(h template.HTML) { w.html = h }
func (w Trend) HTML() template.HTML      { return w.html }
func (w *Trend) SetErr(h error)          { w.err = h }
func (w Trend) Err() error               { return w.err }

func layout(rng ztime.Range) string {
	if goatdash.IsSingleDay(rng) {
		return "15:04"
	}
	return "Jan 2"
}

func (w Trend) Chart(ctx context.Context, shared SharedData) chart.Chart {
	var (
		s   = shared.Snapshot
		cfg = chart.Config{Width: 800, Height: 220}
	)
	switch s.Metric {
	case "bounce":
		b := chart.BarFromSeries(cfg, s.Trend, layout(s.Range))
		b.Stack = s.NotBounced.Values()
		return b
	case "visitors":
		return chart.Line{Config: cfg, Series: s.Trend}
	default:
		l := chart.Line{Config: cfg, Series: s.Trend}
		if shared.ShowComparison() {
			l.Previous = s.PreviousPageviews
		}
		return l
	}
}

type trendPoint struct {
	Label string
	Value string
	Notes []goatdash.Note
}

func (w Trend) RenderHTML(ctx context.Context, shared SharedData) (string, any) {
	var (
		s      = shared.Snapshot
		lay    = layout(s.Range)
		points = make([]trendPoint, 0, len(s.Trend))
		header string
	)
	switch s.Metric {
	case "bounce":
		header = z18n.T(ctx, "header/trend-bounce|Bounced sessions")
	case "visitors":
		header = z18n.T(ctx, "header/trend-visitors|Unique visitors")
	default:
		header = z18n.T(ctx, "header/trend-pageviews|Pageviews")
	}

	for _, b := range s.Trend {
		p := trendPoint{Label: b.Start.Format(lay), Value: goatdash.Number(b.Value)}
		if lay != "15:04" {
			day := b.Start.Format("2006-01-02")
			for _, n := range shared.Notes {
				if n.Date == day {
					p.Notes = append(p.Notes, n)
				}
			}
		}
		points = append(points, p)
	}

	return "_dashboard_trend.gohtml", struct {
		Context context.Context
		Loaded  bool
		Err     error
		Header  string
		Metric  string
		Metrics []string
		Range   string
		Chart   template.HTML
		Points  []trendPoint
		Empty   bool
	}{ctx, s.Loaded(), w.err, header, s.Metric, goatdash.Metrics, goatdash.Label(s.Range),
		template.HTML(w.Chart(ctx, shared).SVG()), points, s.Trend.Total() == 0}
}
