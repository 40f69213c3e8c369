package widgets

import (
	"context"
	"html/template"

	"zgo.at/goatdash/chart"
	"zgo.at/z18n"
)

type Systems struct {
	err  error
	html template.HTML
}

func (w Systems) Name() string { return "systems" }
func (w Systems) Type() string { return "hchart" }
func (w Systems) Label(ctx context.Context) string {
	return z18n.T(ctx, "label/system-stats|System stats")
}
func (w *Systems) SetHTML(h template.HTML) { w.html = h }
func (w Systems) HTML() template.HTML      { return w.html }
func (w *Systems) SetErr(h error)          { w.err = h }
func (w Systems) Err() error               { return w.err }

func (w Systems) Chart(ctx context.Context, shared SharedData) chart.Chart {
	return hbar(shared.Snapshot.Systems)
}

func (w Systems) RenderHTML(ctx context.Context, shared SharedData) (string, any) {
	return "_dashboard_hchart.gohtml", newHchart(ctx, &w, shared,
		z18n.T(ctx, "header/systems|Systems"), "systems", shared.Snapshot.Systems)
}
