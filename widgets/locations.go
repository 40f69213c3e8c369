package widgets

import (
	"context"
	"html/template"

	"zgo.at/goatdash"
	"zgo.at/goatdash/chart"
	"zgo.at/z18n"
)

// Number of countries shown if the list isn't expanded.
const showCountries = 7

// Locations is the world map and the list of countries; hovering or selecting
// a country in either highlights it in both.
type Locations struct {
	err  error
	html template.HTML
}

func (w Locations) Name() string { return "locations" }
func (w Locations) Type() string { return "hchart" }
func (w Locations) Label(ctx context.Context) string {
	return z18n.T(ctx, "label/loc-stats|Location stats")
}
func (w *Locations) SetHTML(h template.HTML) { w.html = h }
func (w Locations) HTML() template.HTML      { return w.html }
func (w *Locations) SetErr(h error)          { w.err = h }
func (w Locations) Err() error               { return w.err }

func (w Locations) Chart(ctx context.Context, shared SharedData) chart.Chart {
	m := chart.NewChoropleth(chart.Config{}, shared.Snapshot.Countries)
	m.Hovered, m.Selected = shared.Selection.Hovered, shared.Selection.Selected
	return m
}

// Row in the list of countries.
type Row struct {
	goatdash.Country
	ISO3     string
	Width    float64 // Width of the bar, in percent.
	Hovered  bool
	Selected bool
}

// Rows gets the rows to display; this is the first few unless expanded.
func (w Locations) Rows(shared SharedData) (rows []Row, more bool) {
	var (
		l    = shared.Snapshot.Countries
		max  = l.Max()
		show = l.Ranked
	)
	if shared.Expand != w.Name() && len(show) > showCountries {
		show, more = show[:showCountries], true
	}

	rows = make([]Row, 0, len(show))
	for _, c := range show {
		r := Row{
			Country: c,
			ISO3:    c.Alpha3(),
			Width:   goatdash.BarWidth(c.Count, max, 3),
		}
		if r.ISO3 != "" {
			r.Hovered = shared.Selection.IsHovered(r.ISO3)
			r.Selected = shared.Selection.IsSelected(r.ISO3)
		}
		rows = append(rows, r)
	}
	return rows, more
}

func (w Locations) RenderHTML(ctx context.Context, shared SharedData) (string, any) {
	var (
		rows, more = w.Rows(shared)
		header     = z18n.T(ctx, "header/locations|Locations")
	)
	if sel := shared.Selection.Selected; sel != "" {
		if c, ok := shared.Snapshot.Countries.Find(sel); ok {
			header = z18n.T(ctx, "header/locations-for|Locations for %(country)", c.Name)
		}
	}

	return "_dashboard_locations.gohtml", struct {
		Context  context.Context
		Name     string
		Header   string
		RowsOnly bool
		Loaded   bool
		Err      error
		Map      template.HTML
		Rows     []Row
		More     bool
		Expanded bool
		Summary  goatdash.CountrySummary
		Filter   string
		Mode     string
		Export   string
	}{ctx, w.Name(), header, shared.RowsOnly, shared.Snapshot.Loaded(), w.err,
		template.HTML(w.Chart(ctx, shared).SVG()), rows, more, shared.Expand == w.Name(),
		shared.Snapshot.Countries.Summary, shared.Nav.Country, shared.Selection.Mode(), "countries"}
}
