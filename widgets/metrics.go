package widgets

import (
	"context"
	"html/template"
	"math"

	"zgo.at/goatdash"
	"zgo.at/z18n"
)

// Metrics shows the totals for the period: pageviews, visitors, bounce rate,
// and session duration.
type Metrics struct {
	err  error
	html template.HTML
}

func (w Metrics) Name() string { return "metrics" }
func (w Metrics) Type() string { return "full-width" }
func (w Metrics) Label(ctx context.Context) string {
	return z18n.T(ctx, "label/metrics|Key metrics")
}
func (w *Metrics) SetHTML(h template.HTML) { w.html = h }
func (w Metrics) HTML() template.HTML      { return w.html }
func (w *Metrics) SetErr(h error)          { w.err = h }
func (w Metrics) Err() error               { return w.err }

// Card is a single metric.
type Card struct {
	ID        string // Favorite ID.
	Metric    string // Metric for the trend chart; empty if it can't be charted.
	Label     string
	Value     string
	Previous  string
	Change    string
	Direction string
	Good      bool // The change is an improvement; lower is better for the bounce rate.
	Favorite  bool
	Active    bool // Selected for the trend chart.
}

// Cards gets all metric cards.
func (w Metrics) Cards(ctx context.Context, shared SharedData) []Card {
	var (
		s    = shared.Snapshot
		cmp  = shared.ShowComparison()
		card = func(id, metric, label string, c goatdash.Comparison, format func(float64) string, lowerIsBetter bool) Card {
			cc := Card{
				ID:        "metrics-" + id,
				Metric:    metric,
				Label:     label,
				Value:     format(c.Current),
				Change:    "—",
				Direction: "stable",
				Active:    metric != "" && metric == s.Metric,
			}
			cc.Favorite = shared.IsFavorite(cc.ID)
			if cmp {
				cc.Previous = format(c.Previous)
				cc.Change = goatdash.FormatChange(c.Change)
				cc.Direction = goatdash.Direction(c.Change)
				cc.Good = cc.Direction != "stable" && (cc.Direction == "up") != lowerIsBetter
			}
			return cc
		}
		number = func(f float64) string { return goatdash.Number(int(math.Round(f))) }
		rate   = func(f float64) string { return goatdash.FormatRate(&f) }
		dur    = func(f float64) string { return goatdash.FormatDuration(&f) }
		none   = func(float64) string { return goatdash.FormatRate(nil) }
	)
	if !s.HasBounceRate {
		rate = none
	}
	if !s.HasSessionDuration {
		dur = none
	}

	return []Card{
		card("pageviews", "pageviews", z18n.T(ctx, "label/pageviews|Pageviews"), s.TotalPageviews, number, false),
		card("visitors", "visitors", z18n.T(ctx, "label/visitors|Unique visitors"), s.Visitors, number, false),
		card("bounce", "bounce", z18n.T(ctx, "label/bounce-rate|Bounce rate"), s.BounceRate, rate, true),
		card("duration", "", z18n.T(ctx, "label/session-duration|Avg. session duration"), s.SessionDuration, dur, false),
	}
}

func (w Metrics) RenderHTML(ctx context.Context, shared SharedData) (string, any) {
	return "_dashboard_metrics.gohtml", struct {
		Context    context.Context
		Loaded     bool
		Err        error
		Comparison bool
		Previous   string
		Cards      []Card
	}{ctx, shared.Snapshot.Loaded(), w.err, shared.ShowComparison(),
		goatdash.Label(shared.Snapshot.Previous), w.Cards(ctx, shared)}
}
