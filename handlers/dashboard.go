package handlers

import (
	"context"
	"html/template"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"zgo.at/errors"
	"zgo.at/goatdash"
	"zgo.at/goatdash/dashboard"
	"zgo.at/goatdash/pkg/geo"
	"zgo.at/goatdash/pkg/log"
	"zgo.at/goatdash/pkg/metrics"
	"zgo.at/goatdash/widgets"
	"zgo.at/guru"
	"zgo.at/zhttp"
	"zgo.at/zstd/zsync"
	"zgo.at/ztpl"
)

// nav reads the navigation state from the query; the "range" parameter can
// be used as a shortcut for a preset.
func (h backend) nav(r *http.Request) (goatdash.NavState, error) {
	loc := goatdash.Config(r.Context()).Location()
	nav, err := goatdash.DecodeNav(r.URL.Query(), loc)
	if err != nil {
		return nav, err
	}
	if p := r.URL.Query().Get("range"); p != "" && !nav.HasRange() {
		rng, err := goatdash.ParseRange(r.Context(), p, loc)
		if err != nil {
			return nav, err
		}
		nav = nav.WithRange(rng)
	}
	if nav.Site == "" {
		nav.Site = h.dash.Site()
	}
	return nav, nil
}

// load applies the navigation state to the dashboard and loads the data if
// needed.
//
// An error loading the data isn't returned; the last loaded data is shown
// with the error in Snapshot.Err.
func (h backend) load(ctx context.Context, nav goatdash.NavState) {
	st := dashboard.State{Site: nav.Site, Metric: nav.Metric}
	if nav.HasRange() {
		st.Range = nav.Range()
	}

	siteChanged := nav.Site != "" && nav.Site != h.dash.Site()
	_, err := h.dash.Apply(ctx, st)
	country := nav.Country
	if a2, ok := geo.ResolveContext(ctx, country); ok {
		country = a2
	}
	h.dash.SetFilter(dashboard.Filter{Device: nav.Device, Country: country, Search: nav.Search})
	if err != nil && !errors.Is(err, dashboard.ErrStale) {
		log.Module("dashboard").Warn(ctx, "loading data", "err", err, "site", nav.Site)
	}

	if siteChanged || h.live.State().Status == dashboard.StatusIdle {
		if err := h.prefs.SetActiveSite(ctx, h.dash.Site()); err != nil && siteChanged {
			log.Module("prefs").Error(ctx, err)
		}
		if err := h.live.Start(ctx, h.dash.Site()); err != nil {
			log.Module("live").Error(ctx, err)
		}
	}
}

func (h backend) shared(r *http.Request, nav goatdash.NavState) widgets.SharedData {
	return widgets.SharedData{
		Snapshot:  h.dash.View(),
		Nav:       nav,
		Selection: h.dash.Selection().State(),
		Live:      h.live.State(),
		Favorites: h.prefs.Favorites(),
		Notes:     h.prefs.Notes(),
		Expand:    r.URL.Query().Get("expand"),
	}
}

// renderWidgets renders the HTML for all widgets concurrently; errors are set
// on the widget, so one broken widget doesn't break the entire page.
func renderWidgets(ctx context.Context, wid widgets.List, shared widgets.SharedData) error {
	var (
		wg   sync.WaitGroup
		errs = errors.NewGroup(20)
	)
	if shared.Snapshot.Err != "" {
		for _, w := range wid {
			w.SetErr(errors.New(shared.Snapshot.Err))
		}
	}
	for _, w := range wid {
		wg.Add(1)
		go func(w widgets.Widget) {
			defer log.Recover(ctx, func(err error) {
				log.Module("dashboard").Error(ctx, err, "widget", w.Name())
				w.SetErr(err)
			})
			defer wg.Done()

			m := metrics.Start("widget")
			m.AddTag(w.Name())
			defer m.Done()

			tplName, tplData := w.RenderHTML(ctx, shared)
			if tplName == "" {
				return
			}
			tpl, err := ztpl.ExecuteString(tplName, tplData)
			if errs.Append(errors.Wrap(err, w.Name())) {
				w.SetErr(err)
				return
			}
			w.SetHTML(template.HTML(tpl))
		}(w)
	}

	zsync.Wait(ctx, &wg)
	return errs.ErrorOrNil()
}

func (h backend) dashboard(w http.ResponseWriter, r *http.Request) error {
	nav, err := h.nav(r)
	if err != nil {
		zhttp.FlashError(w, r, err.Error())
		nav, _ = goatdash.DecodeNav(nil, goatdash.Config(r.Context()).Location())
		nav.Site = h.dash.Site()
	}
	h.load(r.Context(), nav)
	if !nav.HasRange() {
		nav = nav.WithRange(h.dash.Range())
	}

	var (
		shared = h.shared(r, nav)
		wid    = widgets.Default()
	)
	if err := renderWidgets(r.Context(), wid, shared); err != nil {
		log.Module("dashboard").Error(r.Context(), err)
	}

	// When reloading the dashboard from e.g. the range selector we don't need
	// to render the header and footer. Render just the widgets and return
	// that as JSON.
	if r.URL.Query().Get("reload") != "" {
		t, err := ztpl.ExecuteString("_dashboard_widgets.gohtml", struct {
			Globals
			Widgets widgets.List
		}{h.globals(w, r, nav), wid})
		if err != nil {
			return err
		}
		return zhttp.JSON(w, map[string]any{
			"widgets":   t,
			"timerange": goatdash.Label(shared.Snapshot.Range),
			"query":     nav.Query(),
		})
	}

	return zhttp.Template(w, "dashboard.gohtml", struct {
		Globals
		Snapshot  dashboard.Snapshot
		Presets   []goatdash.Preset
		Range     string
		Widgets   widgets.List
		Favorites []goatdash.Favorite
	}{h.globals(w, r, nav), shared.Snapshot, goatdash.Presets,
		goatdash.Label(shared.Snapshot.Range), wid, shared.Favorites})
}

// globals gets the globals with the navigation state and the site list; an
// error loading the sites is only logged.
func (h backend) globals(w http.ResponseWriter, r *http.Request, nav goatdash.NavState) Globals {
	g := newGlobals(w, r)
	g.Nav, g.Site = nav, nav.Site
	sites, err := h.sites.Sites(r.Context())
	if err != nil {
		log.Module("dashboard").Warn(r.Context(), "listing sites", "err", err)
	}
	g.Sites = sites
	return g
}

// widget renders a single widget, for reloading it in the frontend.
func (h backend) widget(w http.ResponseWriter, r *http.Request) error {
	name := chi.URLParam(r, "name")
	if !widgets.Exists(name) {
		return guru.Errorf(404, "no widget %q", name)
	}
	nav, err := h.nav(r)
	if err != nil {
		return err
	}
	h.load(r.Context(), nav)

	rowsOnly, _ := strconv.ParseBool(r.URL.Query().Get("rows"))
	html, err := h.renderWidget(r, nav, name, rowsOnly)
	if err != nil {
		return err
	}
	return zhttp.JSON(w, map[string]any{"html": html})
}

func (h backend) renderWidget(r *http.Request, nav goatdash.NavState, name string, rowsOnly bool) (string, error) {
	shared := h.shared(r, nav)
	shared.RowsOnly = rowsOnly
	wid := widgets.List{widgets.NewWidget(name)}
	if err := renderWidgets(r.Context(), wid, shared); err != nil {
		return "", err
	}
	return string(wid[0].HTML()), nil
}
