package goatdash

import (
	"html/template"
	"strings"
	"time"

	"zgo.at/z18n"
	"zgo.at/ztpl/tplfunc"
)

func init() {
	tplfunc.Add("t", z18n.Thtml)
	tplfunc.Add("tag", z18n.Tag)
	tplfunc.Add("plural", z18n.N)

	tplfunc.Add("number", Number)
	tplfunc.Add("format_change", FormatChange)
	tplfunc.Add("format_percent", FormatPercent)
	tplfunc.Add("direction", Direction)
	tplfunc.Add("bar_width", BarWidth)
	tplfunc.Add("range_label", Label)
	tplfunc.Add("nav_with", NavWith)
	tplfunc.Add("unknown", func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "(unknown)"
		}
		return s
	})
	tplfunc.Add("note_html", func(n Note) template.HTML { return n.HTML() })
}

// NavWith gets the query string for the navigation state with one parameter
// changed, including the leading "?". An empty value removes the parameter.
//
// The key "range" sets a preset: {{nav_with .Nav "range" "30"}}.
func NavWith(n NavState, key, value string) string {
	switch key {
	case "comparison":
		n.Comparison = value == "true"
	case "density":
		n.Density = value
	case "device":
		n.Device = value
	case "country":
		n.Country = value
	case "metric":
		n.Metric = value
	case "site":
		n.Site = value
	case "range":
		n.From, n.To = time.Time{}, time.Time{}
		q := n.Encode()
		if value != "" {
			q.Set("range", value)
		}
		return "?" + q.Encode()
	}
	return "?" + n.Query()
}
