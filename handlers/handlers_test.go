package handlers

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"zgo.at/goatdash"
	"zgo.at/goatdash/client"
	"zgo.at/goatdash/dashboard"
	"zgo.at/goatdash/pkg/bgrun"
	"zgo.at/goatdash/pkg/store"
	"zgo.at/zstd/ztest"
	"zgo.at/zstd/ztime"
	"zgo.at/ztpl"
)

var week = goatdash.DayRange(time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC))

type fakeSource struct{}

func (fakeSource) Pageviews(ctx context.Context, site string, rng ztime.Range) ([]goatdash.Point, error) {
	return []goatdash.Point{{Time: rng.Start.Add(time.Hour), Count: 42}}, nil
}
func (fakeSource) UniqueVisitors(ctx context.Context, site string, rng ztime.Range) (int, error) {
	return 12, nil
}
func (fakeSource) TopPages(ctx context.Context, site string, rng ztime.Range, limit int) (goatdash.Stats, error) {
	return goatdash.Stats{{Name: "/about", Value: 30}, {Name: "/", Value: 12}}, nil
}
func (fakeSource) Referrers(ctx context.Context, site string, rng ztime.Range, limit int) (goatdash.Stats, error) {
	return goatdash.Stats{{Name: "example.com", Value: 7}}, nil
}
func (fakeSource) BrowserStats(ctx context.Context, site string, rng ztime.Range) (client.BrowserStats, error) {
	return client.BrowserStats{
		Browsers: goatdash.Stats{{Name: "Firefox", Value: 3}},
		Systems:  goatdash.Stats{{Name: "Linux", Value: 3}},
		Devices:  goatdash.Stats{{Name: "desktop", Value: 2}, {Name: "mobile", Value: 1}},
	}, nil
}
func (fakeSource) Countries(ctx context.Context, site string, rng ztime.Range) (goatdash.Stats, error) {
	return goatdash.Stats{{Name: "Netherlands", Value: 30}, {Name: "Germany", Value: 12}}, nil
}
func (fakeSource) BounceRate(ctx context.Context, site string, rng ztime.Range) (*float64, error) {
	b := 40.0
	return &b, nil
}
func (fakeSource) AvgSessionDuration(ctx context.Context, site string, rng ztime.Range) (*float64, error) {
	return nil, nil
}
func (fakeSource) VisitorsTrend(ctx context.Context, site string, rng ztime.Range) (goatdash.TimeSeries, error) {
	return goatdash.TimeSeries{{Start: rng.Start, Value: 12}}, nil
}
func (fakeSource) BounceRateTrend(ctx context.Context, site string, rng ztime.Range) ([]goatdash.BounceTrend, error) {
	return nil, nil
}
func (fakeSource) Realtime(ctx context.Context, site string) (client.Realtime, error) {
	return client.Realtime{ActiveVisitors: 3, TopPages: goatdash.Stats{{Name: "/live", Value: 3}}}, nil
}
func (fakeSource) Sites(ctx context.Context) ([]client.Site, error) {
	return []client.Site{{ID: "s1", Name: "First"}, {ID: "s2", Domain: "two.example.com"}}, nil
}

type testBackend struct {
	r     chi.Router
	dash  *dashboard.Dashboard
	prefs *goatdash.Prefs
}

func newTest(t *testing.T) testBackend {
	t.Helper()

	files, err := fs.Sub(goatdash.Templates, "tpl")
	if err != nil {
		t.Fatal(err)
	}
	if err := ztpl.Init(files); err != nil {
		t.Fatal(err)
	}

	var (
		ctx    = context.Background()
		runner = bgrun.NewRunner(func(task string, err error) { t.Errorf("%s: %s", task, err) })
		live   = dashboard.NewLive(fakeSource{}, runner, time.Hour)
		tb     = testBackend{
			dash:  dashboard.New(fakeSource{}, dashboard.Options{Site: "s1", Range: week}),
			prefs: goatdash.NewPrefs(ctx, store.NewMemory()),
		}
	)
	t.Cleanup(func() {
		live.Stop()
		runner.Wait("")
	})

	tb.r = NewBackend(Options{
		Dashboard: tb.dash,
		Live:      live,
		Prefs:     tb.prefs,
		Sites:     fakeSource{},
		Config: &goatdash.GlobalConfig{
			Dev:            true,
			CountryAliases: map[string]string{"nederland": "nl"},
		},
	})
	return tb
}

func (tb testBackend) do(t *testing.T, method, path string, form url.Values, wantJSON bool) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if form != nil {
		r = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	if wantJSON {
		r.Header.Set("Accept", "application/json")
	}
	r.Header.Set("Accept-Language", "en")
	rr := httptest.NewRecorder()
	tb.r.ServeHTTP(rr, r)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("%s\n%s", err, rr.Body.String())
	}
}

func TestDashboard(t *testing.T) {
	tb := newTest(t)

	rr := tb.do(t, "GET", "/", nil, false)
	ztest.Code(t, rr, 200)

	body := rr.Body.String()
	for _, want := range []string{"/about", "example.com", "Netherlands", "Firefox", "First", "<svg", "Jan 8 – Jan 14, 2024"} {
		if !strings.Contains(body, want) {
			t.Errorf("%q not in body", want)
		}
	}
	if csp := rr.Header().Get("Content-Security-Policy"); !strings.Contains(csp, flagHost) {
		t.Errorf("CSP: %q", csp)
	}
	if s := tb.prefs.ActiveSite(); s != "s1" {
		t.Errorf("active site: %q", s)
	}
}

func TestDashboardNav(t *testing.T) {
	tb := newTest(t)

	rr := tb.do(t, "GET", "/?from=2024-01-01&to=2024-01-07&metric=visitors&device=mobile", nil, false)
	ztest.Code(t, rr, 200)
	if r := tb.dash.Range(); !r.Start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("range: %s", r)
	}
	if m := tb.dash.Metric(); m != "visitors" {
		t.Errorf("metric: %q", m)
	}
	if d := tb.dash.View().Devices; len(d) != 1 || d[0].Name != "mobile" {
		t.Errorf("devices: %v", d)
	}

	// Invalid parameters are reported, and the defaults are used.
	rr = tb.do(t, "GET", "/?metric=nope", nil, false)
	ztest.Code(t, rr, 200)
}

func TestDashboardSearch(t *testing.T) {
	tests := []struct {
		query         string
		want, notWant []string
	}{
		{"", []string{"/about", "example.com", "Firefox"}, nil},
		{"q=ABOUT", []string{"/about", `value="ABOUT"`}, []string{`<span class="name">/</span>`, "Firefox"}},
		{"q=fire", []string{"Firefox", "Linux"}, []string{"/about", `<span class="name">example.com</span>`}},
		{"q=nothing+here", []string{"Nothing matches"}, []string{"/about", "Firefox"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			tb := newTest(t)
			rr := tb.do(t, "GET", "/?"+tt.query, nil, false)
			ztest.Code(t, rr, 200)

			body := rr.Body.String()
			for _, w := range tt.want {
				if !strings.Contains(body, w) {
					t.Errorf("%q not in body", w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(body, w) {
					t.Errorf("%q in body", w)
				}
			}
		})
	}
}

func TestDashboardCountryAlias(t *testing.T) {
	tests := []struct {
		country string
		want    []string
	}{
		{"", []string{"Netherlands", "Germany"}},
		{"Nederland", []string{"Netherlands"}},
		{"nld", []string{"Netherlands"}},
		{"Mordor", nil},
	}

	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			tb := newTest(t)
			rr := tb.do(t, "GET", "/?country="+url.QueryEscape(tt.country), nil, false)
			ztest.Code(t, rr, 200)

			var have []string
			for _, c := range tb.dash.View().Countries.Ranked {
				have = append(have, c.Name)
			}
			if !reflect.DeepEqual(have, tt.want) {
				t.Errorf("\nhave: %v\nwant: %v", have, tt.want)
			}
		})
	}
}

func TestDashboardReload(t *testing.T) {
	tb := newTest(t)

	rr := tb.do(t, "GET", "/?reload=1", nil, true)
	ztest.Code(t, rr, 200)

	var have struct {
		Widgets   string `json:"widgets"`
		Timerange string `json:"timerange"`
		Query     string `json:"query"`
	}
	decode(t, rr, &have)
	if !strings.Contains(have.Widgets, `id="widget-pages"`) {
		t.Errorf("widgets: %s", have.Widgets)
	}
	if have.Timerange != "Jan 8 – Jan 14, 2024" {
		t.Errorf("timerange: %q", have.Timerange)
	}
	if !strings.Contains(have.Query, "from=2024-01-08") {
		t.Errorf("query: %q", have.Query)
	}
}

func TestWidget(t *testing.T) {
	tb := newTest(t)

	rr := tb.do(t, "GET", "/widget/pages", nil, true)
	ztest.Code(t, rr, 200)
	var have struct {
		HTML string `json:"html"`
	}
	decode(t, rr, &have)
	if !strings.Contains(have.HTML, "/about") || !strings.Contains(have.HTML, "<header>") {
		t.Errorf("html: %s", have.HTML)
	}

	rr = tb.do(t, "GET", "/widget/pages?rows=true", nil, true)
	ztest.Code(t, rr, 200)
	decode(t, rr, &have)
	if strings.Contains(have.HTML, "<header>") {
		t.Errorf("header with rows=true: %s", have.HTML)
	}

	rr = tb.do(t, "GET", "/widget/nope", nil, true)
	ztest.Code(t, rr, 404)
}

func TestChart(t *testing.T) {
	tb := newTest(t)
	tb.do(t, "GET", "/", nil, false)

	tests := []struct {
		path     string
		wantCode int
	}{
		{"/chart/locations.svg", 200},
		{"/chart/trend.svg", 200},
		{"/chart/pages.svg", 200},
		{"/chart/devices.svg", 200},
		{"/chart/metrics.svg", 404},
		{"/chart/nope.svg", 404},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := tb.do(t, "GET", tt.path, nil, true)
			ztest.Code(t, rr, tt.wantCode)
			if tt.wantCode != 200 {
				return
			}
			if ct := rr.Header().Get("Content-Type"); ct != "image/svg+xml" {
				t.Errorf("content-type: %q", ct)
			}
			if !strings.HasPrefix(rr.Body.String(), "<svg") {
				t.Errorf("body: %.50s", rr.Body.String())
			}
		})
	}
}

func TestExport(t *testing.T) {
	tb := newTest(t)
	tb.do(t, "GET", "/", nil, false)

	rr := tb.do(t, "GET", "/export/top-pages.csv", nil, false)
	ztest.Code(t, rr, 200)
	if cd := rr.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, `attachment; filename="top-pages-`) {
		t.Errorf("Content-Disposition: %q", cd)
	}
	if !strings.HasPrefix(rr.Body.String(), "Name,Value,Percentage\n/about,30,") {
		t.Errorf("body: %s", rr.Body.String())
	}

	rr = tb.do(t, "GET", "/export/countries.csv", nil, false)
	ztest.Code(t, rr, 200)
	if !strings.Contains(rr.Body.String(), "\nNetherlands,30,") {
		t.Errorf("body: %s", rr.Body.String())
	}

	rr = tb.do(t, "GET", "/export/devices.csv", nil, false)
	ztest.Code(t, rr, 200)
	if have, want := rr.Body.String(), "Name,Value,Percentage\ndesktop,2,66.7\nmobile,1,33.3\n"; have != want {
		t.Errorf("\nhave: %q\nwant: %q", have, want)
	}

	rr = tb.do(t, "GET", "/export/nope.csv", nil, true)
	ztest.Code(t, rr, 404)
}

func TestExportChartNav(t *testing.T) {
	tests := []struct {
		path      string
		wantStart time.Time
		wantBody  string
	}{
		{"/export/top-pages.csv?from=2024-01-01&to=2024-01-03",
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "Name,Value,Percentage\n/about,30,"},
		{"/export/top-pages.csv?from=2024-02-01&to=2024-02-03&q=about",
			time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "Name,Value,Percentage\n/about,30,71.4\n"},
		{"/export/devices.csv?from=2024-01-01&to=2024-01-31&device=mobile",
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "Name,Value,Percentage\nmobile,1,33.3\n"},
		{"/chart/trend.svg?from=2023-12-01&to=2023-12-31",
			time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), "<svg"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			tb := newTest(t)
			tb.do(t, "GET", "/", nil, false)

			rr := tb.do(t, "GET", tt.path, nil, false)
			ztest.Code(t, rr, 200)
			if have := tb.dash.Range().Start; !have.Equal(tt.wantStart) {
				t.Errorf("range start\nhave: %v\nwant: %v", have, tt.wantStart)
			}
			if !strings.HasPrefix(rr.Body.String(), tt.wantBody) {
				t.Errorf("body\nhave: %s\nwant: %s", rr.Body.String(), tt.wantBody)
			}
		})
	}

	t.Run("invalid", func(t *testing.T) {
		tb := newTest(t)
		rr := tb.do(t, "GET", "/export/top-pages.csv?from=2024-01-03&to=2024-01-01", nil, true)
		ztest.Code(t, rr, 400)
	})
}

func TestSelect(t *testing.T) {
	tb := newTest(t)
	tb.do(t, "GET", "/", nil, false)

	type resp struct {
		Selection dashboard.SelectionState `json:"selection"`
		Mode      string                   `json:"mode"`
		HTML      string                   `json:"html"`
	}

	var have resp
	rr := tb.do(t, "POST", "/hover", url.Values{"iso": {"deu"}}, true)
	ztest.Code(t, rr, 200)
	decode(t, rr, &have)
	if have.Selection.Hovered != "DEU" || have.Mode != "hovered" {
		t.Errorf("%+v", have.Selection)
	}
	if !strings.Contains(have.HTML, "hovered") {
		t.Errorf("html: %s", have.HTML)
	}

	rr = tb.do(t, "POST", "/select", url.Values{"iso": {"NLD"}}, true)
	ztest.Code(t, rr, 200)
	decode(t, rr, &have)
	if have.Selection.Selected != "NLD" || have.Mode != "selected" {
		t.Errorf("%+v", have.Selection)
	}

	// Selecting again clears it.
	rr = tb.do(t, "POST", "/select", url.Values{"iso": {"NLD"}}, true)
	decode(t, rr, &have)
	if have.Selection.Selected != "" {
		t.Errorf("%+v", have.Selection)
	}

	rr = tb.do(t, "POST", "/hover", url.Values{"iso": {""}}, true)
	decode(t, rr, &have)
	if have.Mode != "idle" {
		t.Errorf("%+v", have)
	}
}

func TestFavorites(t *testing.T) {
	tb := newTest(t)

	var have struct {
		Added     bool                `json:"added"`
		Favorites []goatdash.Favorite `json:"favorites"`
	}
	rr := tb.do(t, "POST", "/favorites", url.Values{
		"id": {"metrics-pageviews"}, "name": {"Pageviews"}, "section": {"metrics"}, "value": {"pageviews"},
	}, true)
	ztest.Code(t, rr, 200)
	decode(t, rr, &have)
	if !have.Added || len(have.Favorites) != 1 || have.Favorites[0].Name != "Pageviews" {
		t.Errorf("%+v", have)
	}

	rr = tb.do(t, "GET", "/favorites", nil, true)
	ztest.Code(t, rr, 200)
	var list []goatdash.Favorite
	decode(t, rr, &list)
	if len(list) != 1 {
		t.Errorf("%+v", list)
	}

	rr = tb.do(t, "POST", "/favorites/metrics-pageviews/toggle", url.Values{}, true)
	ztest.Code(t, rr, 200)
	decode(t, rr, &have)
	if have.Added || len(have.Favorites) != 0 {
		t.Errorf("%+v", have)
	}

	// Redirect for regular form posts.
	rr = tb.do(t, "POST", "/favorites", url.Values{"section": {"pages"}, "value": {"/about"}}, false)
	ztest.Code(t, rr, 303)
	if !tb.prefs.IsFavorite("pages-/about") {
		t.Errorf("%+v", tb.prefs.Favorites())
	}

	rr = tb.do(t, "POST", "/favorites", url.Values{}, true)
	ztest.Code(t, rr, 400)
}

func TestNotes(t *testing.T) {
	tb := newTest(t)

	rr := tb.do(t, "POST", "/notes", url.Values{"date": {"2024-01-08"}, "content": {"Launched"}}, true)
	ztest.Code(t, rr, 200)
	var n goatdash.Note
	decode(t, rr, &n)
	if n.ID == "" || n.Date != "2024-01-08" || n.Content != "Launched" {
		t.Errorf("%+v", n)
	}

	rr = tb.do(t, "GET", "/notes?date=2024-01-08", nil, true)
	ztest.Code(t, rr, 200)
	var list []goatdash.Note
	decode(t, rr, &list)
	if len(list) != 1 || list[0].ID != n.ID {
		t.Errorf("%+v", list)
	}

	// Shown in the trend table.
	rr = tb.do(t, "GET", "/", nil, false)
	if !strings.Contains(rr.Body.String(), "Launched") {
		t.Error("note not on dashboard")
	}

	rr = tb.do(t, "POST", "/notes", url.Values{"date": {"8 Jan"}, "content": {"x"}}, true)
	ztest.Code(t, rr, 400)
	rr = tb.do(t, "POST", "/notes", url.Values{"date": {"2024-01-08"}, "content": {"  "}}, true)
	ztest.Code(t, rr, 400)

	rr = tb.do(t, "POST", "/notes/"+n.ID+"/delete", url.Values{}, true)
	ztest.Code(t, rr, 200)
	if l := tb.prefs.Notes(); len(l) != 0 {
		t.Errorf("%+v", l)
	}
}

func TestSetSite(t *testing.T) {
	tb := newTest(t)

	rr := tb.do(t, "POST", "/site", url.Values{"site": {"s2"}}, false)
	ztest.Code(t, rr, 303)
	if loc := rr.Header().Get("Location"); !strings.Contains(loc, "site=s2") {
		t.Errorf("Location: %q", loc)
	}
	if s := tb.prefs.ActiveSite(); s != "s2" {
		t.Errorf("active site: %q", s)
	}
	if s := tb.dash.Site(); s != "s2" {
		t.Errorf("dashboard site: %q", s)
	}

	rr = tb.do(t, "POST", "/site", url.Values{"site": {""}}, true)
	ztest.Code(t, rr, 400)
}

func TestStatus(t *testing.T) {
	tb := newTest(t)

	rr := tb.do(t, "GET", "/status", nil, true)
	ztest.Code(t, rr, 200)
	var have map[string]any
	decode(t, rr, &have)
	if have["version"] != goatdash.Version || have["site"] != "s1" {
		t.Errorf("%v", have)
	}

	rr = tb.do(t, "GET", "/sites", nil, true)
	ztest.Code(t, rr, 200)
	var sites struct {
		Sites  []client.Site `json:"sites"`
		Active string        `json:"active"`
	}
	decode(t, rr, &sites)
	if len(sites.Sites) != 2 || sites.Active != "s1" {
		t.Errorf("%+v", sites)
	}

	tb.do(t, "GET", "/", nil, false)
	rr = tb.do(t, "GET", "/metrics", nil, true)
	ztest.Code(t, rr, 200)
	var ms []struct {
		Tag   string `json:"tag"`
		Count int    `json:"count"`
	}
	decode(t, rr, &ms)
	found := false
	for _, m := range ms {
		if m.Tag == "GET /" && m.Count > 0 {
			found = true
		}
	}
	if !found {
		t.Errorf("metrics: %s", rr.Body.String())
	}
}

func TestErrPage(t *testing.T) {
	tb := newTest(t)

	rr := tb.do(t, "GET", "/widget/nope", nil, false)
	ztest.Code(t, rr, 404)
	if !strings.Contains(rr.Body.String(), "<h1>404</h1>") {
		t.Errorf("body: %s", rr.Body.String())
	}

	rr = tb.do(t, "GET", "/widget/nope", nil, true)
	var have map[string]string
	decode(t, rr, &have)
	if !strings.Contains(have["error"], "nope") {
		t.Errorf("%v", have)
	}
}

func TestRouteTag(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/", "/"},
		{"/widget/pages", "/widget"},
		{"/status", "/status"},
		{"/notes/x/delete", "/notes"},
	}
	for _, tt := range tests {
		if have := routeTag(tt.in); have != tt.want {
			t.Errorf("routeTag(%q)\nhave: %q\nwant: %q", tt.in, have, tt.want)
		}
	}
}

func TestBack(t *testing.T) {
	tests := []struct{ ref, want string }{
		{"", "/"},
		{"http://example.com/?metric=visitors", "/?metric=visitors"},
		{"http://evil.com/x", "/"},
		{"//evil.com", "/"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("POST", "http://example.com/notes", nil)
		r.Header.Set("Referer", tt.ref)
		if have := back(r); have != tt.want {
			t.Errorf("back(%q)\nhave: %q\nwant: %q", tt.ref, have, tt.want)
		}
	}
}
