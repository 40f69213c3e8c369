// Package widgets contains the panels on the dashboard.
package widgets

import (
	"context"
	"fmt"
	"html/template"

	"zgo.at/goatdash"
	"zgo.at/goatdash/chart"
	"zgo.at/goatdash/dashboard"
)

type (
	Widget interface {
		RenderHTML(context.Context, SharedData) (string, any)

		SetHTML(template.HTML)
		HTML() template.HTML
		SetErr(error)
		Err() error

		Name() string
		Type() string // "full-width", "hchart", "chart"
		Label(context.Context) string
	}

	// Charter is implemented by widgets that have a chart, which can also be
	// requested on its own as SVG.
	Charter interface {
		Chart(context.Context, SharedData) chart.Chart
	}

	// SharedData gets passed to every widget.
	SharedData struct {
		Snapshot  dashboard.Snapshot
		Nav       goatdash.NavState
		Selection dashboard.SelectionState
		Live      dashboard.LiveState
		Favorites []goatdash.Favorite
		Notes     []goatdash.Note

		// Show all rows for this widget, instead of the first few.
		Expand string

		// Render only the rows, for reloading a single widget.
		RowsOnly bool
	}
)

// IsFavorite reports if there is a favorite with this ID.
func (s SharedData) IsFavorite(id string) bool {
	for _, f := range s.Favorites {
		if f.ID == id {
			return true
		}
	}
	return false
}

// ShowComparison reports if the comparison with the previous period should be
// shown.
func (s SharedData) ShowComparison() bool {
	return s.Nav.Comparison && s.Snapshot.ComparisonAvailable()
}

type List []Widget

// Get a widget from the list by name.
func (l List) Get(name string) Widget {
	for _, w := range l {
		if w.Name() == name {
			return w
		}
	}
	return nil
}

// Names of all widgets, in the order they're displayed.
var Names = []string{"metrics", "trend", "pages", "toprefs", "browsers", "systems",
	"devices", "locations", "live"}

// Default gets a list of all widgets.
func Default() List {
	l := make(List, 0, len(Names))
	for _, n := range Names {
		l = append(l, NewWidget(n))
	}
	return l
}

// Exists reports if a widget with this name exists.
func Exists(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

func NewWidget(name string) Widget {
	switch name {
	case "metrics":
		return &Metrics{}
	case "trend":
		return &Trend{}
	case "pages":
		return &Pages{}
	case "toprefs":
		return &TopRefs{}
	case "browsers":
		return &Browsers{}
	case "systems":
		return &Systems{}
	case "devices":
		return &Devices{}
	case "locations":
		return &Locations{}
	case "live":
		return &Live{}
	}
	panic(fmt.Errorf("unknown widget: %q", name))
}

// hchart is the template data for the horizontal bar charts.
type hchart struct {
	Context  context.Context
	Name     string
	Header   string
	RowsOnly bool
	Loaded   bool
	Err      error
	Stats    goatdash.Stats
	Max      int
	Total    int
	Export   string // Kind for the CSV export link; empty if it can't be exported.
	Filter   string // Active search filter.
	More     bool   // There are more rows than shown.
}

func newHchart(ctx context.Context, w Widget, shared SharedData, header, export string, stats goatdash.Stats) hchart {
	var filter string
	switch w.Name() {
	case "pages", "toprefs", "browsers":
		filter = shared.Nav.Search
	}
	return hchart{
		Context:  ctx,
		Name:     w.Name(),
		Header:   header,
		RowsOnly: shared.RowsOnly,
		Loaded:   shared.Snapshot.Loaded(),
		Err:      w.Err(),
		Stats:    stats,
		Max:      stats.Max(),
		Total:    stats.Total(),
		Export:   export,
		Filter:   filter,
	}
}

// Height of a single row in the horizontal bar charts.
const rowHeight = 22

func hbar(stats goatdash.Stats) chart.Bar {
	return chart.BarFromStats(chart.Config{
		Width:  400,
		Height: float64(len(stats)*rowHeight + 30),
		Margin: chart.Margin{Top: 4, Right: 12, Bottom: 22, Left: 8},
	}, stats)
}
