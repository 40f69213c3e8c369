package widgets

import (
	"context"
	"html/template"

	"zgo.at/goatdash"
	"zgo.at/goatdash/dashboard"
	"zgo.at/z18n"
)

// Live shows the realtime visitors; it's reloaded from the frontend every few
// seconds.
type Live struct {
	err  error
	html template.HTML
}

func (w Live) Name() string { return "live" }
func (w Live) Type() string { return "hchart" }
func (w Live) Label(ctx context.Context) string {
	return z18n.T(ctx, "label/live|Realtime visitors")
}
func (w *Live) SetHTML(h template.HTML) { w.html = h }
func (w Live) HTML() template.HTML      { return w.html }
func (w *Live) SetErr(h error)          { w.err = h }
func (w Live) Err() error               { return w.err }

func (w Live) RenderHTML(ctx context.Context, shared SharedData) (string, any) {
	var (
		st     = shared.Live
		status string
	)
	switch st.Status {
	case dashboard.StatusConnecting:
		status = z18n.T(ctx, "live/connecting|Connecting…")
	case dashboard.StatusConnected:
		status = z18n.T(ctx, "live/connected|Live")
	case dashboard.StatusError:
		status = z18n.T(ctx, "live/error|Connection error")
	default:
		status = z18n.T(ctx, "live/idle|Not connected")
	}

	return "_dashboard_live.gohtml", struct {
		Context   context.Context
		Name      string
		Header    string
		RowsOnly  bool
		Status    string
		StatusMsg string
		Updated   string
		Active    string
		Last24h   string
		Pages     goatdash.Stats
		Max       int
		Err       string
	}{ctx, w.Name(), z18n.T(ctx, "header/live|Realtime"), shared.RowsOnly,
		string(st.Status), status, updated(st), goatdash.Number(st.Data.ActiveVisitors),
		goatdash.Number(st.Data.PageviewsLast24h), st.Data.TopPages, st.Data.TopPages.Max(), st.Err}
}

func updated(st dashboard.LiveState) string {
	if st.LastUpdated.IsZero() {
		return ""
	}
	return st.LastUpdated.Format("15:04:05")
}
