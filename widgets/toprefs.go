package widgets

import (
	"context"
	"html/template"

	"zgo.at/goatdash/chart"
	"zgo.at/z18n"
)

type TopRefs struct {
	err  error
	html template.HTML
}

func (w TopRefs) Name() string { return "toprefs" }
func (w TopRefs) Type() string { return "hchart" }
func (w TopRefs) Label(ctx context.Context) string {
	return z18n.T(ctx, "label/toprefs|Top referrers")
}
func (w *TopRefs) SetHTML(h template.HTML) { w.html = h }
func (w TopRefs) HTML() template.HTML      { return w.html }
func (w *TopRefs) SetErr(h error)          { w.err = h }
func (w TopRefs) Err() error               { return w.err }

func (w TopRefs) Chart(ctx context.Context, shared SharedData) chart.Chart {
	return hbar(shared.Snapshot.Referrers)
}

func (w TopRefs) RenderHTML(ctx context.Context, shared SharedData) (string, any) {
	return "_dashboard_hchart.gohtml", newHchart(ctx, &w, shared,
		z18n.T(ctx, "header/toprefs|Top referrers"), "referrers", shared.Snapshot.Referrers)
}
