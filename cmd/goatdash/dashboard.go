package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"zgo.at/errors"
	"zgo.at/goatdash"
	"zgo.at/goatdash/chart"
	"zgo.at/goatdash/client"
	"zgo.at/goatdash/dashboard"
	"zgo.at/termtext"
	"zgo.at/zli"
	"zgo.at/zstd/zstring"
	"zgo.at/zvalidate"
)

const usageDashboard = `
View the dashboard of a site in the terminal.

Flags:

  -api         URL of the analytics API, without the /api/analytics path.

  -token       API token; sent as a bearer token.

  -site        Site ID to show. Default: the first site the API lists.

  -range       Time range to show; defaults to last 7 days. Formats:

                   <any number>              Last n days
                   today, yesterday, week,   One of the presets
                   month, year
                   "2022-01-01:2022-01-31"   Explicit start and end date

  -metric      Metric for the trend: pageviews, visitors, or bounce.
               Default: pageviews.

  -tz          Timezone to compute the range in. Default: UTC.

  -compare     Show the change from the previous period. Default: true.

Environment:

  The flags take the defaults from $GOATDASH_«FLAG», for example
  GOATDASH_API and GOATDASH_TOKEN.
`

// Show the dashboard in the terminal.
func cmdDashboard(f zli.Flags) error {
	var (
		api       = f.String("", "api")
		token     = f.String("", "token")
		site      = f.String("", "site")
		rangeFlag = f.String("", "range")
		metric    = f.String("pageviews", "metric")
		tzFlag    = f.String("", "tz")
		compare   = f.Bool(true, "compare")
	)
	if err := f.Parse(zli.FromEnv("GOATDASH")); err != nil {
		return err
	}

	if api.String() == "" {
		return errors.New("-api must be set")
	}

	v := zvalidate.New()
	cfg := &goatdash.GlobalConfig{
		API:      api.String(),
		Timezone: flagTZ(&v, tzFlag.String()),
	}
	if v.HasErrors() {
		return v
	}

	ctx := goatdash.WithConfig(context.Background(), cfg)
	ctx = goatdash.WithLocale(ctx, "en")

	rng, err := goatdash.ParseRange(ctx, rangeFlag.String(), cfg.Location())
	if err != nil {
		return err
	}

	c := client.New(api.String(), token.String(), client.WithCacheTTL(0))
	siteID := site.String()
	if siteID == "" {
		sites, err := c.Sites(ctx)
		if err != nil {
			return err
		}
		if len(sites) == 0 {
			return errors.New("no sites; set -site")
		}
		siteID = sites[0].ID
	}

	dash := dashboard.New(c, dashboard.Options{Site: siteID, Range: rng, Metric: metric.String(), Limit: 8})
	snap, err := dash.Refresh(ctx)
	if err != nil {
		return err
	}
	if snap.Err != "" {
		return errors.New(snap.Err)
	}

	renderDash(stdout, *snap, compare.Bool())
	return nil
}

type row struct {
	text  string
	color zli.Color
}

var headerCol = zli.Bold | zli.White | zli.ColorHex("#9a15a4").Bg()

// Render the dashboard as two columns.
func renderDash(w io.Writer, s dashboard.Snapshot, compare bool) {
	var (
		left  = make([]row, 0, 32)
		right = make([]row, 0, 32)
		nr    = func(s string) row { return row{text: s} }
		cmp   = func(c goatdash.Comparison) string {
			if !compare || !c.Available {
				return ""
			}
			return " (" + goatdash.FormatChange(c.Change) + ")"
		}
	)

	// Metrics.
	var (
		bounce = "—"
		dur    = "—"
	)
	if s.HasBounceRate {
		bounce = goatdash.FormatRate(&s.BounceRate.Current) + cmp(s.BounceRate)
	}
	if s.HasSessionDuration {
		dur = goatdash.FormatDuration(&s.SessionDuration.Current) + cmp(s.SessionDuration)
	}
	left = append(left,
		row{text: "Overview" + strings.Repeat(" ", 38), color: headerCol},
		nr(fmt.Sprintf("%-18s %s", "Pageviews", goatdash.Number(int(s.TotalPageviews.Current))+cmp(s.TotalPageviews))),
		nr(fmt.Sprintf("%-18s %s", "Visitors", goatdash.Number(int(s.Visitors.Current))+cmp(s.Visitors))),
		nr(fmt.Sprintf("%-18s %s", "Bounce rate", bounce)),
		nr(fmt.Sprintf("%-18s %s", "Session duration", dur)),
		nr(""),
	)

	// Trend.
	trend := s.Trend
	if len(trend) > 46 {
		trend = trend[len(trend)-46:]
	}
	values := make([]int, 0, len(trend))
	for _, b := range trend {
		values = append(values, b.Value)
	}
	left = append(left,
		row{text: zstring.UpperFirst(s.Metric), color: headerCol},
		nr(chart.Sparkline(values)),
		nr(""),
	)

	// Pages and referrers.
	for _, p := range []struct {
		name  string
		stats goatdash.Stats
	}{{"Pages", s.Pages}, {"Referrers", s.Referrers}} {
		left = append(left, row{text: p.name, color: headerCol})
		if len(p.stats) == 0 {
			left = append(left, nr("(no data)"))
		}
		for _, st := range p.stats {
			left = append(left, nr(fmt.Sprintf("%-7s %s", goatdash.Number(st.Value),
				zli.Colorize(zstring.ElideCenter(unknown(st.Name), 37), zli.Bold))))
		}
		left = append(left, nr(""))
	}
	left = left[:len(left)-1]

	// Browsers, systems, devices, and countries.
	renderStat := func(name string, stats goatdash.Stats) {
		right = append(right, row{text: name, color: headerCol})
		if len(stats) == 0 {
			right = append(right, nr("(no data)"))
		}
		var (
			max   = stats.Max()
			total = stats.Total()
		)
		for _, st := range stats.Limit(6) {
			right = append(right, nr(fmt.Sprintf("%s %4s %s",
				zstring.AlignLeft(zstring.ElideLeft(unknown(st.Name), 13), 14),
				goatdash.FormatPercent(goatdash.Percentage(st.Value, total)),
				chart.HBar(st.Value, max, 8))))
		}
		right = append(right, nr(""))
	}
	renderStat("Browsers", s.Browsers)
	renderStat("Systems", s.Systems)
	renderStat("Devices", s.Devices)
	countries := make(goatdash.Stats, 0, len(s.Countries.Ranked))
	for _, c := range s.Countries.Ranked {
		countries = append(countries, goatdash.Stat{Name: c.Name, Value: c.Count})
	}
	renderStat("Locations", countries)
	right = right[:len(right)-1]

	// Combine the two columns
	fmt.Fprintf(w, "%s\n", zli.Colorize(zstring.AlignCenter(fmt.Sprintf(
		"%s – %s", s.Site, goatdash.Label(s.Range)), 78), zli.Bold))
	fmt.Fprintf(w, "┌%s┬%s┐\n", strings.Repeat("─", 48), strings.Repeat("─", 30))
	for i := 0; i < max(len(left), len(right)); i++ {
		l, r := row{}, row{}
		if i < len(right) {
			r = right[i]
		}
		if i < len(left) {
			l = left[i]
		}

		if l.color != 0 {
			fmt.Fprintf(w, "│%s│", zli.Colorize(" "+termtext.AlignLeft(l.text, 46)+" ", l.color))
		} else {
			fmt.Fprintf(w, "│ %s │", termtext.AlignLeft(l.text, 46))
		}
		if r.color != 0 {
			fmt.Fprintf(w, "%s│\n", zli.Colorize(" "+termtext.AlignLeft(r.text, 28)+" ", r.color))
		} else {
			fmt.Fprintf(w, " %s │\n", termtext.AlignLeft(r.text, 28))
		}
	}
	fmt.Fprintf(w, "└%s┴%s┘\n", strings.Repeat("─", 48), strings.Repeat("─", 30))
}

func unknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(unknown)"
	}
	return s
}
