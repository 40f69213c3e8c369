package widgets

import (
	"context"
	"html/template"

	"zgo.at/goatdash/chart"
	"zgo.at/z18n"
)

type Pages struct {
	err  error
	html template.HTML
}

func (w Pages) Name() string { return "pages" }
func (w Pages) Type() string { return "hchart" }
func (w Pages) Label(ctx context.Context) string {
	return z18n.T(ctx, "label/top-pages|Top pages")
}
func (w *Pages) SetHTML(h template.HTML) { w.html = h }
func (w Pages) HTML() template.HTML      { return w.html }
func (w *Pages) SetErr(h error)          { w.err = h }
func (w Pages) Err() error               { return w.err }

func (w Pages) Chart(ctx context.Context, shared SharedData) chart.Chart {
	return hbar(shared.Snapshot.Pages)
}

func (w Pages) RenderHTML(ctx context.Context, shared SharedData) (string, any) {
	return "_dashboard_hchart.gohtml", newHchart(ctx, &w, shared,
		z18n.T(ctx, "header/pages|Pages"), "top-pages", shared.Snapshot.Pages)
}
