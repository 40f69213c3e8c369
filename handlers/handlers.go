// Package handlers contains the HTTP frontend for the dashboard.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"zgo.at/errors"
	"zgo.at/goatdash"
	"zgo.at/goatdash/client"
	"zgo.at/goatdash/pkg/log"
	"zgo.at/zhttp"
	"zgo.at/zstd/zfs"
	"zgo.at/ztpl"
	"zgo.at/zvalidate"
)

type Globals struct {
	Context context.Context
	Path    string
	Query   string
	Flash   *zhttp.FlashMessage
	Version string
	Dev     bool
	Nav     goatdash.NavState
	Site    string
	Sites   []client.Site
}

func newGlobals(w http.ResponseWriter, r *http.Request) Globals {
	return Globals{
		Context: r.Context(),
		Path:    r.URL.Path,
		Query:   r.URL.RawQuery,
		Flash:   zhttp.ReadFlash(w, r),
		Version: goatdash.Version,
		Dev:     goatdash.Config(r.Context()).Dev,
	}
}

// SiteName gets the display name for the current site.
func (g Globals) SiteName() string {
	for _, s := range g.Sites {
		if s.ID == g.Site {
			if s.Name != "" {
				return s.Name
			}
			return s.Domain
		}
	}
	return g.Site
}

func NewStatic(r chi.Router, dev bool) chi.Router {
	var cache map[string]int
	if !dev {
		cache = map[string]int{
			"*": 86400 * 30,
		}
	}
	fsys, err := zfs.EmbedOrDir(goatdash.Static, "public", dev)
	if err != nil {
		panic(err)
	}

	r.Get("/*", zhttp.NewStatic("*", fsys, cache).ServeHTTP)
	return r
}

// ErrPage renders the error page; this is used as zhttp.ErrPage.
//
// Requests that want JSON get {"error": ...}; everything else gets the HTML
// error page, or plain text if that fails.
func ErrPage(w http.ResponseWriter, r *http.Request, reported error) {
	if reported == nil {
		return
	}

	code, msg := errCode(reported)
	if code >= 500 {
		log.Module("http").Error(r.Context(), reported, log.AttrHTTP(r))
		if !goatdash.Config(r.Context()).Dev {
			msg = "unexpected error; details have been logged"
		}
	}

	if wantJSON(r) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		var v *zvalidate.Validator
		if errors.As(reported, &v) {
			zhttp.JSON(w, map[string]any{"errors": v.Errors})
			return
		}
		zhttp.JSON(w, map[string]string{"error": msg})
		return
	}

	html, err := ztpl.ExecuteString("error.gohtml", struct {
		Globals
		Code  int
		Error string
	}{newGlobals(w, r), code, msg})
	if err != nil {
		log.Module("http").Error(r.Context(), err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(code)
		w.Write([]byte(msg))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	w.Write([]byte(html))
}

func errCode(err error) (int, string) {
	var v *zvalidate.Validator
	if errors.As(err, &v) {
		return 400, v.Error()
	}
	// 5xx errors are from the API.
	if c := client.Status(err); c >= 500 {
		return 502, err.Error()
	} else if c > 0 {
		return c, err.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return 504, "timed out"
	}
	return 500, err.Error()
}

func wantJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
