// Package dashboard loads the data for the dashboard and keeps the state.
//
// All data for a date range is loaded as one batch: the current period and the
// previous period of the same length (for the comparison), concurrently. A
// batch is only committed if no other batch was started in the meantime, so a
// slow response for an old range never replaces the data for the current
// range.
package dashboard

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"zgo.at/errors"
	"zgo.at/goatdash"
	"zgo.at/goatdash/client"
	"zgo.at/goatdash/pkg/geo"
	"zgo.at/goatdash/pkg/log"
	"zgo.at/zstd/ztime"
	"zgo.at/zvalidate"
)

// ErrStale is returned from Refresh if the range or site was changed while the
// data was being loaded; the results are discarded.
var ErrStale = errors.New("dashboard: stale batch discarded")

// Source of the analytics data; this is implemented by *client.Client.
type Source interface {
	Pageviews(ctx context.Context, site string, rng ztime.Range) ([]goatdash.Point, error)
	UniqueVisitors(ctx context.Context, site string, rng ztime.Range) (int, error)
	TopPages(ctx context.Context, site string, rng ztime.Range, limit int) (goatdash.Stats, error)
	Referrers(ctx context.Context, site string, rng ztime.Range, limit int) (goatdash.Stats, error)
	BrowserStats(ctx context.Context, site string, rng ztime.Range) (client.BrowserStats, error)
	Countries(ctx context.Context, site string, rng ztime.Range) (goatdash.Stats, error)
	BounceRate(ctx context.Context, site string, rng ztime.Range) (*float64, error)
	AvgSessionDuration(ctx context.Context, site string, rng ztime.Range) (*float64, error)
	VisitorsTrend(ctx context.Context, site string, rng ztime.Range) (goatdash.TimeSeries, error)
	BounceRateTrend(ctx context.Context, site string, rng ztime.Range) ([]goatdash.BounceTrend, error)
	Realtime(ctx context.Context, site string) (client.Realtime, error)
}

var _ Source = (*client.Client)(nil)

// Options for New.
type Options struct {
	Site   string
	Range  ztime.Range // Default is the last 7 days.
	Metric string      // Default is "pageviews".
	Limit  int         // Number of pages and referrers; default 10.
}

// Filter for the ranked lists.
type Filter struct {
	Device  string
	Country string // Name, alpha-2, or alpha-3 code.
	Search  string // Pages, referrers, and browsers containing this.
}

// Snapshot is all the data for the dashboard at one point.
type Snapshot struct {
	Generation uint64
	Site       string
	Range      ztime.Range
	Previous   ztime.Range
	Metric     string
	Updated    time.Time

	// Error for the last batch; the data is from the last successful batch.
	Err string

	Pageviews         goatdash.TimeSeries
	PreviousPageviews goatdash.TimeSeries

	// Trend for the selected metric; for "bounce" this is the bounced
	// sessions, with the other sessions in NotBounced.
	Trend      goatdash.TimeSeries
	NotBounced goatdash.TimeSeries

	TotalPageviews  goatdash.Comparison
	Visitors        goatdash.Comparison
	BounceRate      goatdash.Comparison
	SessionDuration goatdash.Comparison

	// BounceRate and SessionDuration have a value.
	HasBounceRate      bool
	HasSessionDuration bool

	Pages     goatdash.Stats
	Referrers goatdash.Stats
	Browsers  goatdash.Stats
	Systems   goatdash.Stats
	Devices   goatdash.Stats
	Countries goatdash.CountryList
}

// ComparisonAvailable reports if the previous period could be loaded.
func (s Snapshot) ComparisonAvailable() bool { return s.TotalPageviews.Available }

// Loaded reports if there is any data.
func (s Snapshot) Loaded() bool { return s.Generation > 0 }

// Filtered returns a copy with the device, country, and search filters applied
// to the ranked lists.
func (s Snapshot) Filtered(f Filter) Snapshot {
	if f.Search != "" {
		s.Pages = s.Pages.Filter(f.Search)
		s.Referrers = s.Referrers.Filter(f.Search)
		s.Browsers = s.Browsers.Filter(f.Search)
	}
	if f.Device != "" {
		s.Devices = s.Devices.Only(f.Device)
	}
	if f.Country != "" {
		s.Countries = filterCountry(s.Countries, f.Country)
	}
	return s
}

func filterCountry(l goatdash.CountryList, q string) goatdash.CountryList {
	var (
		a2, _ = geo.Resolve(q)
		out   = goatdash.CountryList{
			Map:     make(map[string]int, 1),
			Summary: l.Summary,
		}
	)
	for _, c := range l.Ranked {
		match := strings.EqualFold(c.Name, q) ||
			(c.ISO != nil && (strings.EqualFold(*c.ISO, q) || strings.EqualFold(c.Alpha3(), q) || *c.ISO == a2))
		if !match {
			continue
		}
		out.Ranked = append(out.Ranked, c)
		if a3 := c.Alpha3(); a3 != "" {
			out.Map[a3] += c.Count
		}
	}
	return out
}

// Dashboard keeps the dashboard state.
type Dashboard struct {
	src   Source
	limit int
	gen   atomic.Uint64
	sel   *Selection

	mu     sync.Mutex
	site   string
	rng    ztime.Range
	metric string
	filter Filter
	snap   *Snapshot
}

// New creates a new dashboard; this doesn't load anything until Refresh is
// called.
func New(src Source, opts Options) *Dashboard {
	d := &Dashboard{
		src:    src,
		limit:  opts.Limit,
		site:   opts.Site,
		rng:    opts.Range,
		metric: opts.Metric,
		sel:    NewSelection(),
		snap:   &Snapshot{},
	}
	if d.limit <= 0 {
		d.limit = 10
	}
	if d.metric == "" {
		d.metric = "pageviews"
	}
	if d.rng.Start.IsZero() || d.rng.End.IsZero() {
		d.rng, _ = goatdash.TimeRange(context.Background(), "7", time.UTC)
	}
	return d
}

// Selection gets the selected and hovered region; this is shared between the
// map and the country list.
func (d *Dashboard) Selection() *Selection { return d.sel }

// Site gets the current site.
func (d *Dashboard) Site() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.site
}

// Range gets the current range.
func (d *Dashboard) Range() ztime.Range {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rng
}

// Metric gets the selected metric for the trend chart.
func (d *Dashboard) Metric() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.metric
}

// SetRange sets the date range and loads the data for it.
func (d *Dashboard) SetRange(ctx context.Context, rng ztime.Range) (*Snapshot, error) {
	if err := goatdash.ValidateRange(rng); err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.rng = rng
	d.mu.Unlock()
	return d.Refresh(ctx)
}

// SetSite sets the site and loads the data for it.
func (d *Dashboard) SetSite(ctx context.Context, site string) (*Snapshot, error) {
	d.mu.Lock()
	d.site = site
	d.mu.Unlock()
	d.sel.Clear()
	return d.Refresh(ctx)
}

// SetMetric sets the metric for the trend chart and reloads the data.
func (d *Dashboard) SetMetric(ctx context.Context, metric string) (*Snapshot, error) {
	v := zvalidate.New()
	v.Include("metric", metric, goatdash.Metrics)
	if err := v.ErrorOrNil(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.metric = metric
	d.mu.Unlock()
	return d.Refresh(ctx)
}

// State to apply with Apply; zero fields are left unchanged.
type State struct {
	Site   string
	Range  ztime.Range
	Metric string
}

// Apply sets the site, range, and metric in one go, and loads the data if
// anything changed or nothing was loaded yet.
func (d *Dashboard) Apply(ctx context.Context, st State) (*Snapshot, error) {
	v := zvalidate.New()
	if !st.Range.Start.IsZero() || !st.Range.End.IsZero() {
		if err := goatdash.ValidateRange(st.Range); err != nil {
			return nil, err
		}
	}
	if st.Metric != "" {
		v.Include("metric", st.Metric, goatdash.Metrics)
	}
	if err := v.ErrorOrNil(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	var (
		changed     = !d.snap.Loaded()
		siteChanged = st.Site != "" && st.Site != d.site
	)
	if siteChanged {
		d.site, changed = st.Site, true
	}
	if !st.Range.Start.IsZero() && (!st.Range.Start.Equal(d.rng.Start) || !st.Range.End.Equal(d.rng.End)) {
		d.rng, changed = st.Range, true
	}
	if st.Metric != "" && st.Metric != d.metric {
		d.metric, changed = st.Metric, true
	}
	snap := d.snap
	d.mu.Unlock()

	if siteChanged {
		d.sel.Clear()
	}
	if !changed {
		return snap, nil
	}
	return d.Refresh(ctx)
}

// SetFilter sets the filters for the ranked lists; this doesn't need a reload.
func (d *Dashboard) SetFilter(f Filter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filter = f
}

// Snapshot gets the last committed snapshot, without filters.
func (d *Dashboard) Snapshot() *Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snap
}

// View gets the last committed snapshot with the filters applied.
func (d *Dashboard) View() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snap.Filtered(d.filter)
}

type batch struct {
	pageviews []goatdash.Point
	visitors  int
	bounce    *float64
	duration  *float64
	pages     goatdash.Stats
	refs      goatdash.Stats
	browsers  client.BrowserStats
	countries goatdash.Stats
	trend     goatdash.TimeSeries
	bounces   []goatdash.BounceTrend
}

// Refresh loads all data for the current state.
//
// If loading the current period fails the previous data is kept and
// Snapshot.Err is set. If only the previous period fails the snapshot is
// committed without comparison data.
//
// ErrStale is returned if another Refresh was started before this one
// finished.
func (d *Dashboard) Refresh(ctx context.Context) (*Snapshot, error) {
	d.mu.Lock()
	var (
		site   = d.site
		rng    = d.rng
		metric = d.metric
		gen    = d.gen.Add(1)
	)
	d.mu.Unlock()

	var (
		l      = log.Module("dashboard")
		prng   = goatdash.PreviousPeriod(rng)
		cur    batch
		prev   batch
		wg     sync.WaitGroup
		curErr error
		prvErr error
		start  = time.Now()
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer log.Recover(ctx, func(err error) { curErr = err })
		curErr = d.current(ctx, site, rng, metric, &cur)
	}()
	go func() {
		defer wg.Done()
		defer log.Recover(ctx, func(err error) { prvErr = err })
		prvErr = d.previous(ctx, site, prng, &prev)
	}()
	wg.Wait()
	l.Debug(ctx, "batch done", "generation", gen, "took", time.Since(start).Round(time.Millisecond))

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.gen.Load() != gen {
		l.Debug(ctx, "discarding stale batch", "generation", gen)
		return nil, ErrStale
	}

	if curErr != nil {
		s := *d.snap
		s.Err = curErr.Error()
		d.snap = &s
		return d.snap, curErr
	}
	if prvErr != nil {
		l.Warn(ctx, "loading previous period failed", "err", prvErr)
	}

	d.snap = build(ctx, gen, site, rng, prng, metric, cur, prev, prvErr == nil, ztime.Now(ctx))
	return d.snap, nil
}

// recovered reports a panic in f as an error.
func recovered(ctx context.Context, f func() error) func() error {
	return func() (err error) {
		defer log.Recover(ctx, func(e error) { err = e })
		return f()
	}
}

func (d *Dashboard) current(ctx context.Context, site string, rng ztime.Range, metric string, b *batch) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(recovered(ctx, func() (err error) { b.pageviews, err = d.src.Pageviews(ctx, site, rng); return err }))
	g.Go(recovered(ctx, func() (err error) { b.visitors, err = d.src.UniqueVisitors(ctx, site, rng); return err }))
	g.Go(recovered(ctx, func() (err error) { b.bounce, err = d.src.BounceRate(ctx, site, rng); return err }))
	g.Go(recovered(ctx, func() (err error) { b.duration, err = d.src.AvgSessionDuration(ctx, site, rng); return err }))
	g.Go(recovered(ctx, func() (err error) { b.pages, err = d.src.TopPages(ctx, site, rng, d.limit); return err }))
	g.Go(recovered(ctx, func() (err error) { b.refs, err = d.src.Referrers(ctx, site, rng, d.limit); return err }))
	g.Go(recovered(ctx, func() (err error) { b.browsers, err = d.src.BrowserStats(ctx, site, rng); return err }))
	g.Go(recovered(ctx, func() (err error) { b.countries, err = d.src.Countries(ctx, site, rng); return err }))
	switch metric {
	case "visitors":
		g.Go(recovered(ctx, func() (err error) { b.trend, err = d.src.VisitorsTrend(ctx, site, rng); return err }))
	case "bounce":
		g.Go(recovered(ctx, func() (err error) { b.bounces, err = d.src.BounceRateTrend(ctx, site, rng); return err }))
	}
	return g.Wait()
}

func (d *Dashboard) previous(ctx context.Context, site string, rng ztime.Range, b *batch) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(recovered(ctx, func() (err error) { b.pageviews, err = d.src.Pageviews(ctx, site, rng); return err }))
	g.Go(recovered(ctx, func() (err error) { b.visitors, err = d.src.UniqueVisitors(ctx, site, rng); return err }))
	g.Go(recovered(ctx, func() (err error) { b.bounce, err = d.src.BounceRate(ctx, site, rng); return err }))
	g.Go(recovered(ctx, func() (err error) { b.duration, err = d.src.AvgSessionDuration(ctx, site, rng); return err }))
	return errors.Wrap(g.Wait(), "previous period")
}

func build(ctx context.Context, gen uint64, site string, rng, prng ztime.Range, metric string, cur, prev batch, prevOK bool, now time.Time) *Snapshot {
	s := &Snapshot{
		Generation: gen,
		Site:       site,
		Range:      rng,
		Previous:   prng,
		Metric:     metric,
		Updated:    now,
		Pageviews:  goatdash.Aggregate(cur.pageviews, rng.Start, rng.End),

		Pages:     cur.pages.Sorted(),
		Referrers: cur.refs.Sorted(),
		Browsers:  cur.browsers.Browsers.Sorted(),
		Systems:   cur.browsers.Systems.Sorted(),
		Devices:   cur.browsers.Devices.Sorted(),

		HasBounceRate:      cur.bounce != nil,
		HasSessionDuration: cur.duration != nil,
	}
	if prevOK {
		s.PreviousPageviews = goatdash.Aggregate(prev.pageviews, prng.Start, prng.End)
	}

	var (
		total     = s.Pageviews.Total()
		prevTotal = s.PreviousPageviews.Total()
	)
	s.TotalPageviews = goatdash.Compare(float64(total), float64(prevTotal), prevOK)
	s.Visitors = goatdash.Compare(float64(cur.visitors), float64(prev.visitors), prevOK)
	s.BounceRate = goatdash.CompareOptional(cur.bounce, prev.bounce, prevOK)
	s.SessionDuration = goatdash.CompareOptional(cur.duration, prev.duration, prevOK)

	for _, st := range []*goatdash.Stats{&s.Pages, &s.Referrers} {
		*st = st.WithPercentages(total)
	}
	for _, st := range []*goatdash.Stats{&s.Browsers, &s.Systems, &s.Devices} {
		*st = st.WithPercentages(st.Total())
	}
	s.Countries = goatdash.CountriesContext(ctx, cur.countries, total)

	switch metric {
	case "visitors":
		s.Trend = goatdash.Resample(cur.trend, rng.Start, rng.End)
	case "bounce":
		s.Trend, s.NotBounced = goatdash.BounceSplit(cur.bounces, rng.Start, rng.End)
	default:
		s.Trend = s.Pageviews
	}
	return s
}
