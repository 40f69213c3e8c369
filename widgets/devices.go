package widgets

import (
	"context"
	"html/template"

	"zgo.at/goatdash"
	"zgo.at/goatdash/chart"
	"zgo.at/z18n"
)

type Devices struct {
	err  error
	html template.HTML
}

func (w Devices) Name() string { return "devices" }
func (w Devices) Type() string { return "chart" }
func (w Devices) Label(ctx context.Context) string {
	return z18n.T(ctx, "label/device-stats|Device types")
}
func (w *Devices) SetHTML(h template.HTML) { w.html = h }
func (w Devices) HTML() template.HTML      { return w.html }
func (w *Devices) SetErr(h error)          { w.err = h }
func (w Devices) Err() error               { return w.err }

func (w Devices) Chart(ctx context.Context, shared SharedData) chart.Chart {
	return chart.Pie{
		Config: chart.Config{Width: 220, Height: 220},
		Stats:  shared.Snapshot.Devices,
		Inner:  0.55,
	}
}

// Legend entry for the pie chart.
type legend struct {
	goatdash.Stat
	Color string
}

func (w Devices) RenderHTML(ctx context.Context, shared SharedData) (string, any) {
	var (
		pie    = w.Chart(ctx, shared).(chart.Pie)
		slices = pie.Slices()
		leg    = make([]legend, 0, len(slices))
	)
	for i, s := range slices {
		leg = append(leg, legend{
			Stat:  goatdash.Stat{Name: s.Name, Value: s.Value, Percentage: s.Percentage},
			Color: chart.Colors[i%len(chart.Colors)],
		})
	}

	return "_dashboard_pie.gohtml", struct {
		Context  context.Context
		Name     string
		Header   string
		RowsOnly bool
		Loaded   bool
		Err      error
		Chart    template.HTML
		Legend   []legend
		Filter   string
		Export   string
	}{ctx, w.Name(), z18n.T(ctx, "header/devices|Devices"), shared.RowsOnly,
		shared.Snapshot.Loaded(), w.err, template.HTML(pie.SVG()), leg, shared.Nav.Device, "devices"}
}
