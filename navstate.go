package goatdash

import (
	"net/url"
	"strings"
	"time"

	"github.com/monoculum/formam/v3"
	"zgo.at/zstd/ztime"
	"zgo.at/zvalidate"
)

// Densities and metrics that can be selected.
var (
	Densities = []string{"compact", "detailed"}
	Metrics   = []string{"pageviews", "visitors", "bounce"}
)

// NavState is the dashboard state that's stored in the URL, so it survives
// reloads and can be shared.
type NavState struct {
	From       time.Time // Start date; zero if not set.
	To         time.Time // End date, as the start of the day; zero if not set.
	Comparison bool
	Density    string
	Device     string
	Country    string
	Metric     string
	Site       string
	Search     string // Only show pages, referrers, and browsers containing this.
}

type navQuery struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Comparison string `json:"comparison"`
	Density    string `json:"density"`
	Device     string `json:"device"`
	Country    string `json:"country"`
	Metric     string `json:"metric"`
	Site       string `json:"site"`
	Search     string `json:"q"`
}

// DecodeNav reads the state from query parameters; dates are parsed in loc.
//
// Parameters that aren't set get the default value; invalid values are
// reported as a *zvalidate.Validator error.
func DecodeNav(q url.Values, loc *time.Location) (NavState, error) {
	var qq navQuery
	err := formam.NewDecoder(&formam.DecoderOptions{
		TagName:           "json",
		IgnoreUnknownKeys: true,
	}).Decode(q, &qq)
	if err != nil {
		return NavState{}, err
	}

	n := NavState{
		Density: "detailed",
		Metric:  "pageviews",
		Device:  strings.TrimSpace(qq.Device),
		Country: strings.TrimSpace(qq.Country),
		Site:    strings.TrimSpace(qq.Site),
		Search:  strings.TrimSpace(qq.Search),
	}
	v := zvalidate.New()

	if qq.Density != "" {
		v.Include("density", qq.Density, Densities)
		n.Density = qq.Density
	}
	if qq.Metric != "" {
		v.Include("metric", qq.Metric, Metrics)
		n.Metric = qq.Metric
	}
	if qq.Comparison != "" {
		n.Comparison = v.Boolean("comparison", qq.Comparison)
	}

	if qq.From != "" || qq.To != "" {
		v.Required("from", qq.From)
		v.Required("to", qq.To)
	}
	if qq.From != "" {
		n.From = parseDate(&v, "from", qq.From, loc)
	}
	if qq.To != "" {
		n.To = parseDate(&v, "to", qq.To, loc)
	}
	if !n.From.IsZero() && !n.To.IsZero() && n.From.After(n.To) {
		v.Append("from", "must be before 'to'")
	}

	return n, v.ErrorOrNil()
}

func parseDate(v *zvalidate.Validator, key, s string, loc *time.Location) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		v.Append(key, "must be a date as year-month-day")
	}
	return t
}

// HasRange reports if a date range was set.
func (n NavState) HasRange() bool { return !n.From.IsZero() && !n.To.IsZero() }

// Range gets the date range, from the start of From to the end of To.
func (n NavState) Range() ztime.Range {
	return ztime.Range{Start: n.From, End: ztime.EndOf(n.To, ztime.Day)}
}

// WithRange returns a copy with the date range set.
func (n NavState) WithRange(rng ztime.Range) NavState {
	n.From = ztime.StartOf(rng.Start, ztime.Day)
	n.To = ztime.StartOf(rng.End, ztime.Day)
	return n
}

// Encode the state as query parameters.
//
// Empty values are omitted, as is the default metric; the density is always
// added.
func (n NavState) Encode() url.Values {
	q := make(url.Values, 9)
	if !n.From.IsZero() {
		q.Set("from", n.From.Format("2006-01-02"))
	}
	if !n.To.IsZero() {
		q.Set("to", n.To.Format("2006-01-02"))
	}
	if n.Comparison {
		q.Set("comparison", "true")
	}
	if n.Density == "" {
		n.Density = "detailed"
	}
	q.Set("density", n.Density)
	if n.Device != "" {
		q.Set("device", n.Device)
	}
	if n.Country != "" {
		q.Set("country", n.Country)
	}
	if n.Metric != "" && n.Metric != "pageviews" {
		q.Set("metric", n.Metric)
	}
	if n.Site != "" {
		q.Set("site", n.Site)
	}
	if n.Search != "" {
		q.Set("q", n.Search)
	}
	return q
}

// Query gets the encoded query string, without the leading "?".
func (n NavState) Query() string { return n.Encode().Encode() }

// Compact reports if the compact density is selected.
func (n NavState) Compact() bool { return n.Density == "compact" }
