package handlers

import (
	"context"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sethvargo/go-limiter/memorystore"
	"zgo.at/errors"
	"zgo.at/goatdash"
	"zgo.at/goatdash/chart"
	"zgo.at/goatdash/client"
	"zgo.at/goatdash/dashboard"
	"zgo.at/goatdash/pkg/bgrun"
	"zgo.at/goatdash/pkg/log"
	"zgo.at/goatdash/pkg/metrics"
	"zgo.at/goatdash/widgets"
	"zgo.at/guru"
	"zgo.at/json"
	"zgo.at/zhttp"
	"zgo.at/zstd/ztime"
)

// SiteLister lists the sites the user has access to; this is implemented by
// *client.Client.
type SiteLister interface {
	Sites(context.Context) ([]client.Site, error)
}

var _ SiteLister = (*client.Client)(nil)

// Options for NewBackend.
type Options struct {
	Dashboard *dashboard.Dashboard
	Live      *dashboard.Live
	Prefs     *goatdash.Prefs
	Sites     SiteLister
	Config    *goatdash.GlobalConfig

	// Timeout for requests; default is 10 seconds.
	Timeout time.Duration
}

type backend struct {
	dash  *dashboard.Dashboard
	live  *dashboard.Live
	prefs *goatdash.Prefs
	sites SiteLister
}

// NewBackend creates the router for the dashboard.
func NewBackend(opt Options) chi.Router {
	if opt.Config == nil {
		opt.Config = &goatdash.GlobalConfig{}
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 10 * time.Second
	}
	zhttp.ErrPage = ErrPage

	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		zhttp.Unpanic(opt.Config.Dev),
		addctx(opt.Config, opt.Timeout),
		zhttp.Headers(nil),
		addcsp(),
		logRequest)

	r.Route("/static", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler { return http.StripPrefix("/static", next) })
		NewStatic(r, opt.Config.Dev)
	})

	h := backend{dash: opt.Dashboard, live: opt.Live, prefs: opt.Prefs, sites: opt.Sites}
	h.mount(r)
	return r
}

func (h backend) mount(r chi.Router) {
	r.Get("/status", zhttp.Wrap(h.status))
	r.Get("/metrics", zhttp.Wrap(h.metrics))

	r.Get("/", zhttp.Wrap(h.dashboard))
	r.Get("/widget/{name}", zhttp.Wrap(h.widget))
	r.Get("/chart/{name}.svg", zhttp.Wrap(h.chart))
	r.Get("/export/{kind}.csv", zhttp.Wrap(h.export))
	r.Get("/live", zhttp.Wrap(h.liveState))
	r.Get("/sites", zhttp.Wrap(h.listSites))
	r.Get("/refresh", zhttp.Wrap(h.refresh))
	r.Get("/favorites", zhttp.Wrap(h.favorites))
	r.Get("/notes", zhttp.Wrap(h.notes))

	// The hover and select requests are sent on every pointer move, so they're
	// limited generously.
	store, err := memorystore.New(&memorystore.Config{Tokens: 600, Interval: time.Minute})
	if err != nil {
		panic(err)
	}
	rl := r.With(Ratelimit(store))
	rl.Post("/hover", zhttp.Wrap(h.hover))
	rl.Post("/select", zhttp.Wrap(h.selectRegion))
	rl.Post("/site", zhttp.Wrap(h.setSite))
	rl.Post("/favorites", zhttp.Wrap(h.toggleFavorite))
	rl.Post("/favorites/{id}/toggle", zhttp.Wrap(h.toggleFavorite))
	rl.Post("/notes", zhttp.Wrap(h.addNote))
	rl.Post("/notes/{id}/delete", zhttp.Wrap(h.deleteNote))
}

func (h backend) status(w http.ResponseWriter, r *http.Request) error {
	j, err := json.Marshal(map[string]any{
		"uptime":  ztime.Now(r.Context()).Sub(Started).Round(time.Second).String(),
		"version": goatdash.Version,
		"site":    h.dash.Site(),
		"live":    h.live.State().Status,
		"jobs":    bgrun.Running(),
		"recent":  bgrun.History(),
		"go":      runtime.Version(),
		"GOOS":    runtime.GOOS,
		"GOARCH":  runtime.GOARCH,
	})
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return zhttp.Bytes(w, j)
}

func (h backend) metrics(w http.ResponseWriter, r *http.Request) error {
	by := r.URL.Query().Get("sort")
	if by == "" {
		by = "sum"
	}
	if !metrics.CanSort(by) {
		return guru.Errorf(400, "unknown sort column: %q", by)
	}

	type m struct {
		Tag    string  `json:"tag"`
		Count  int     `json:"count"`
		Sum    float64 `json:"sum_ms"`
		Mean   float64 `json:"mean_ms"`
		Median float64 `json:"median_ms"`
		Max    float64 `json:"max_ms"`
	}
	ms := func(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }

	l := metrics.List().Sort(by)
	out := make([]m, 0, len(l))
	for _, mm := range l {
		out = append(out, m{
			Tag:    mm.Tag,
			Count:  mm.Times.Len(),
			Sum:    ms(mm.Times.Sum()),
			Mean:   ms(mm.Times.Mean()),
			Median: ms(mm.Times.Median()),
			Max:    ms(mm.Times.Max()),
		})
	}
	return zhttp.JSON(w, out)
}

func (h backend) liveState(w http.ResponseWriter, r *http.Request) error {
	return zhttp.JSON(w, h.live.State())
}

func (h backend) listSites(w http.ResponseWriter, r *http.Request) error {
	sites, err := h.sites.Sites(r.Context())
	if err != nil {
		return err
	}
	return zhttp.JSON(w, map[string]any{
		"sites":  sites,
		"active": h.dash.Site(),
	})
}

func (h backend) chart(w http.ResponseWriter, r *http.Request) error {
	name := chi.URLParam(r, "name")
	if !widgets.Exists(name) {
		return guru.Errorf(404, "no widget %q", name)
	}
	c, ok := widgets.NewWidget(name).(widgets.Charter)
	if !ok {
		return guru.Errorf(404, "widget %q has no chart", name)
	}

	nav, err := h.nav(r)
	if err != nil {
		return err
	}
	h.load(r.Context(), nav)
	if !nav.HasRange() {
		nav = nav.WithRange(h.dash.Range())
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	return chart.Render(w, c.Chart(r.Context(), h.shared(r, nav)))
}

func (h backend) export(w http.ResponseWriter, r *http.Request) error {
	kind := chi.URLParam(r, "kind")
	nav, err := h.nav(r)
	if err != nil {
		return err
	}
	h.load(r.Context(), nav)

	var (
		s     = h.dash.View()
		stats goatdash.Stats
	)
	switch kind {
	case "top-pages":
		stats = s.Pages
	case "referrers":
		stats = s.Referrers
	case "browsers":
		stats = s.Browsers
	case "systems":
		stats = s.Systems
	case "devices":
		stats = s.Devices
	case "countries":
		stats = make(goatdash.Stats, 0, len(s.Countries.Ranked))
		for _, c := range s.Countries.Ranked {
			stats = append(stats, goatdash.Stat{Name: c.Name, Value: c.Count, Percentage: c.Percentage})
		}
	default:
		return guru.Errorf(404, "unknown export: %q; must be one of %s",
			kind, strings.Join(goatdash.ExportKinds, ", "))
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+
		goatdash.ExportFilename(kind, ztime.Now(r.Context()))+`"`)
	return goatdash.ExportCSV(w, stats, true)
}

func (h backend) refresh(w http.ResponseWriter, r *http.Request) error {
	_, err := h.dash.Refresh(client.NoCache(r.Context()))
	if err != nil && !errors.Is(err, dashboard.ErrStale) {
		zhttp.FlashError(w, r, err.Error())
	}
	return zhttp.SeeOther(w, "/?"+r.URL.RawQuery)
}

func (h backend) hover(w http.ResponseWriter, r *http.Request) error {
	var args struct {
		ISO string `json:"iso"`
	}
	if _, err := zhttp.Decode(r, &args); err != nil {
		return err
	}
	if args.ISO == "" {
		h.dash.Selection().Unhover()
	} else {
		h.dash.Selection().Hover(args.ISO)
	}
	return h.selectionResponse(w, r)
}

func (h backend) selectRegion(w http.ResponseWriter, r *http.Request) error {
	var args struct {
		ISO   string `json:"iso"`
		Clear bool   `json:"clear"`
	}
	if _, err := zhttp.Decode(r, &args); err != nil {
		return err
	}
	if args.Clear {
		h.dash.Selection().Clear()
	} else {
		h.dash.Selection().Select(args.ISO)
	}
	return h.selectionResponse(w, r)
}

// selectionResponse sends the new selection state with the re-rendered
// locations widget, as both the map and the list depend on it.
func (h backend) selectionResponse(w http.ResponseWriter, r *http.Request) error {
	nav, err := h.nav(r)
	if err != nil {
		return err
	}
	html, err := h.renderWidget(r, nav, "locations", false)
	if err != nil {
		return err
	}
	return zhttp.JSON(w, map[string]any{
		"selection": h.dash.Selection().State(),
		"mode":      h.dash.Selection().State().Mode(),
		"html":      html,
	})
}

func (h backend) setSite(w http.ResponseWriter, r *http.Request) error {
	var args struct {
		Site string `json:"site"`
	}
	if _, err := zhttp.Decode(r, &args); err != nil {
		return err
	}
	args.Site = strings.TrimSpace(args.Site)
	if args.Site == "" {
		return guru.New(400, "site is empty")
	}

	if err := h.switchSite(r.Context(), args.Site); err != nil {
		zhttp.FlashError(w, r, err.Error())
	}

	nav, _ := h.nav(r)
	nav.Site = args.Site
	return zhttp.SeeOther(w, "/?"+nav.Query())
}

// switchSite stores the site in the preferences, loads the data for it, and
// restarts the realtime poller.
func (h backend) switchSite(ctx context.Context, site string) error {
	if err := h.prefs.SetActiveSite(ctx, site); err != nil {
		log.Module("prefs").Error(ctx, err)
	}
	if err := h.live.Start(ctx, site); err != nil {
		log.Module("live").Error(ctx, err, "site", site)
	}
	_, err := h.dash.SetSite(ctx, site)
	if errors.Is(err, dashboard.ErrStale) {
		return nil
	}
	return err
}
