package widgets

import (
	"context"
	"html/template"

	"zgo.at/goatdash/chart"
	"zgo.at/z18n"
)

type Browsers struct {
	err  error
	html template.HTML
}

func (w Browsers) Name() string { return "browsers" }
func (w Browsers) Type() string { return "hchart" }
func (w Browsers) Label(ctx context.Context) string {
	return z18n.T(ctx, "label/browser-stats|Browser stats")
}
func (w *Browsers) SetHTML(h template.HTML) { w.html = h }
func (w Browsers) HTML() template.HTML      { return w.html }
func (w *Browsers) SetErr(h error)          { w.err = h }
func (w Browsers) Err() error               { return w.err }

func (w Browsers) Chart(ctx context.Context, shared SharedData) chart.Chart {
	return hbar(shared.Snapshot.Browsers)
}

func (w Browsers) RenderHTML(ctx context.Context, shared SharedData) (string, any) {
	return "_dashboard_hchart.gohtml", newHchart(ctx, &w, shared,
		z18n.T(ctx, "header/browsers|Browsers"), "browsers", shared.Snapshot.Browsers)
}
