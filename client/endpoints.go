package client

import (
	"context"
	"encoding/json"
	"time"

	"zgo.at/errors"
	"zgo.at/goatdash"
	"zgo.at/zstd/ztime"
)

const prefix = "/api/analytics"

type count struct {
	ID int `json:"id"`
}

// timestamp accepts RFC 3339 timestamps as well as plain dates.
type timestamp struct {
	time.Time
	local bool // No timezone in the value.
}

// in gets the time; values without a timezone are interpreted as being in loc.
func (t timestamp) in(loc *time.Location) time.Time {
	if !t.local || loc == nil {
		return t.Time
	}
	y, m, d := t.Date()
	h, mi, sec := t.Clock()
	return time.Date(y, m, d, h, mi, sec, t.Nanosecond(), loc)
}

func (t *timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	if tt, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = tt
		return nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if tt, err := time.Parse(layout, s); err == nil {
			t.Time, t.local = tt, true
			return nil
		}
	}
	return errors.Errorf("unknown time format: %q", s)
}

func rangeQuery(site string, rng ztime.Range) Query { return Query{Site: site, Range: rng} }

// Pageviews gets the pageview counts in the range.
func (c *Client) Pageviews(ctx context.Context, site string, rng ztime.Range) ([]goatdash.Point, error) {
	var rows []struct {
		CreatedAt timestamp `json:"createdAt"`
		Count     count     `json:"_count"`
	}
	if err := c.get(ctx, &rows, prefix+"/pageviews", rangeQuery(site, rng).values()); err != nil {
		return nil, err
	}
	p := make([]goatdash.Point, 0, len(rows))
	for _, r := range rows {
		p = append(p, goatdash.Point{Time: r.CreatedAt.in(rng.Start.Location()), Count: r.Count.ID})
	}
	return p, nil
}

// UniqueVisitors gets the number of unique visitors in the range.
func (c *Client) UniqueVisitors(ctx context.Context, site string, rng ztime.Range) (int, error) {
	var r struct {
		UniqueVisitors int `json:"uniqueVisitors"`
	}
	err := c.get(ctx, &r, prefix+"/visitors", rangeQuery(site, rng).values())
	return r.UniqueVisitors, err
}

func (c *Client) stats(ctx context.Context, path, field string, q Query) (goatdash.Stats, error) {
	var rows []map[string]json.RawMessage
	if err := c.get(ctx, &rows, prefix+path, q.values()); err != nil {
		return nil, err
	}
	return toStats(rows, field)
}

// toStats converts [{field: "name", _count: {id: n}}] rows; a null or missing
// name becomes "".
func toStats(rows []map[string]json.RawMessage, field string) (goatdash.Stats, error) {
	s := make(goatdash.Stats, 0, len(rows))
	for _, r := range rows {
		var (
			name *string
			n    count
		)
		if v, ok := r[field]; ok {
			if err := json.Unmarshal(v, &name); err != nil {
				return nil, errors.Wrapf(err, "field %q", field)
			}
		}
		if v, ok := r["_count"]; ok {
			if err := json.Unmarshal(v, &n); err != nil {
				return nil, errors.Wrap(err, "field \"_count\"")
			}
		}
		st := goatdash.Stat{Value: n.ID}
		if name != nil {
			st.Name = *name
		}
		s = append(s, st)
	}
	return s, nil
}

// TopPages gets the most visited paths.
func (c *Client) TopPages(ctx context.Context, site string, rng ztime.Range, limit int) (goatdash.Stats, error) {
	return c.stats(ctx, "/pages", "path", Query{Site: site, Range: rng, Limit: limit})
}

// Referrers gets the top referrers.
func (c *Client) Referrers(ctx context.Context, site string, rng ztime.Range, limit int) (goatdash.Stats, error) {
	return c.stats(ctx, "/referrers", "referrer", Query{Site: site, Range: rng, Limit: limit})
}

// Countries gets the pageviews per country name.
func (c *Client) Countries(ctx context.Context, site string, rng ztime.Range) (goatdash.Stats, error) {
	return c.stats(ctx, "/countries", "country", rangeQuery(site, rng))
}

// BrowserStats are the browser, OS and device breakdowns.
type BrowserStats struct {
	Browsers goatdash.Stats
	Systems  goatdash.Stats
	Devices  goatdash.Stats
}

// BrowserStats gets the browser, OS and device breakdowns.
func (c *Client) BrowserStats(ctx context.Context, site string, rng ztime.Range) (BrowserStats, error) {
	var (
		r struct {
			Browsers []map[string]json.RawMessage `json:"browsers"`
			OS       []map[string]json.RawMessage `json:"os"`
			Devices  []map[string]json.RawMessage `json:"devices"`
		}
		bs  BrowserStats
		err error
	)
	if err = c.get(ctx, &r, prefix+"/browsers", rangeQuery(site, rng).values()); err != nil {
		return bs, err
	}
	if bs.Browsers, err = toStats(r.Browsers, "browser"); err != nil {
		return bs, err
	}
	if bs.Systems, err = toStats(r.OS, "os"); err != nil {
		return bs, err
	}
	bs.Devices, err = toStats(r.Devices, "device")
	return bs, err
}

// BounceRate gets the bounce rate as a percentage; this is nil if the API
// didn't return a value.
func (c *Client) BounceRate(ctx context.Context, site string, rng ztime.Range) (*float64, error) {
	var r struct {
		BounceRate *float64 `json:"bounceRate"`
	}
	err := c.get(ctx, &r, prefix+"/bounce-rate", rangeQuery(site, rng).values())
	return r.BounceRate, err
}

// AvgSessionDuration gets the average session duration in seconds; this is nil
// if the API didn't return a value.
func (c *Client) AvgSessionDuration(ctx context.Context, site string, rng ztime.Range) (*float64, error) {
	var r struct {
		Avg *float64 `json:"averageSessionDuration"` // ms
	}
	err := c.get(ctx, &r, prefix+"/session-duration", rangeQuery(site, rng).values())
	if err != nil || r.Avg == nil {
		return nil, err
	}
	s := *r.Avg / 1000
	return &s, nil
}

// Realtime is the live view.
type Realtime struct {
	ActiveVisitors   int            `json:"active_visitors"`
	PageviewsLast24h int            `json:"pageviews_last_24h"`
	TopPages         goatdash.Stats `json:"top_pages"`
}

// Realtime gets the live view. This is never cached.
func (c *Client) Realtime(ctx context.Context, site string) (Realtime, error) {
	var (
		r struct {
			Active   int                          `json:"activeVisitors"`
			Last24h  int                          `json:"pageviewsLast24h"`
			TopPages []map[string]json.RawMessage `json:"topPagesRealTime"`
		}
		rt Realtime
	)
	err := c.get(NoCache(ctx), &r, prefix+"/realtime", Query{Site: site}.values())
	if err != nil {
		return rt, err
	}
	rt.ActiveVisitors, rt.PageviewsLast24h = r.Active, r.Last24h
	rt.TopPages, err = toStats(r.TopPages, "path")
	return rt, err
}

// VisitorsTrend gets the unique visitors per hour (for single-day ranges) or
// per day.
func (c *Client) VisitorsTrend(ctx context.Context, site string, rng ztime.Range) (goatdash.TimeSeries, error) {
	var rows []struct {
		Date           timestamp `json:"date"`
		UniqueVisitors int       `json:"uniqueVisitors"`
	}
	q := Query{Site: site, Range: rng, Interval: goatdash.TrendInterval(rng.Start, rng.End)}
	if err := c.get(ctx, &rows, prefix+"/visitors-trend", q.values()); err != nil {
		return nil, err
	}
	p := make([]goatdash.Point, 0, len(rows))
	for _, r := range rows {
		p = append(p, goatdash.Point{Time: r.Date.in(rng.Start.Location()), Count: r.UniqueVisitors})
	}
	return goatdash.Aggregate(p, rng.Start, rng.End), nil
}

// BounceRateTrend gets the bounced and total sessions per hour (for single-day
// ranges) or per day.
func (c *Client) BounceRateTrend(ctx context.Context, site string, rng ztime.Range) ([]goatdash.BounceTrend, error) {
	var rows []struct {
		Date           timestamp `json:"date"`
		BounceSessions int       `json:"bounceSessions"`
		TotalSessions  int       `json:"totalSessions"`
	}
	q := Query{Site: site, Range: rng, Interval: goatdash.TrendInterval(rng.Start, rng.End)}
	if err := c.get(ctx, &rows, prefix+"/bounce-rate-trend", q.values()); err != nil {
		return nil, err
	}
	t := make([]goatdash.BounceTrend, 0, len(rows))
	for _, r := range rows {
		t = append(t, goatdash.BounceTrend{Time: r.Date.in(rng.Start.Location()), BounceSessions: r.BounceSessions, TotalSessions: r.TotalSessions})
	}
	return t, nil
}

// Site is a site the token has access to.
type Site struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domainURL"`
	Role   string `json:"role,omitempty"`
}

// Sites lists all sites for the user.
func (c *Client) Sites(ctx context.Context) ([]Site, error) {
	var r struct {
		Sites []Site `json:"sites"`
	}
	err := c.get(ctx, &r, "/api/user-sites", nil)
	if r.Sites == nil {
		r.Sites = []Site{}
	}
	return r.Sites, err
}
