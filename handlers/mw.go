package handlers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sethvargo/go-limiter"
	"zgo.at/goatdash"
	"zgo.at/goatdash/pkg/geo"
	"zgo.at/goatdash/pkg/log"
	"zgo.at/goatdash/pkg/metrics"
	"zgo.at/z18n"
	"zgo.at/zhttp/header"
)

// Started is set when the server is started.
var Started time.Time

type statusWriter interface{ Status() int }

func addctx(cfg *goatdash.GlobalConfig, timeout time.Duration) func(http.Handler) http.Handler {
	Started = time.Now()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer func() {
				cancel()
				if ctx.Err() == context.DeadlineExceeded {
					if ww, ok := w.(statusWriter); !ok || ww.Status() == 0 {
						w.WriteHeader(http.StatusGatewayTimeout)
						w.Write([]byte("Server timed out"))
					}
				}
			}()

			ctx = goatdash.WithConfig(ctx, cfg)
			if len(cfg.CountryAliases) > 0 {
				ctx = geo.With(ctx, cfg.CountryAliases)
			}
			ctx = z18n.With(ctx, goatdash.Bundle().Locale(r.Header.Get("Accept-Language")))
			*r = *r.WithContext(ctx)
			next.ServeHTTP(w, r)
		})
	}
}

// logRequest logs every request to the "http" module, and records the time it
// took as a metric.
func logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			ww    = middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start = time.Now()
			m     = metrics.Start(r.Method + " " + routeTag(r.URL.Path))
		)
		next.ServeHTTP(ww, r)
		m.Done()

		if !log.HasDebug("http") || strings.HasPrefix(r.URL.Path, "/static/") {
			return
		}
		log.Module("http").Debug(r.Context(), strconv.Itoa(ww.Status()),
			log.AttrHTTP(r),
			"took", time.Since(start).Round(time.Microsecond),
			"size", ww.BytesWritten())
	})
}

// routeTag shortens a path to its first component, so that /widget/pages and
// /widget/trend are recorded under the same tag.
func routeTag(p string) string {
	if p == "/" {
		return p
	}
	if i := strings.IndexByte(p[1:], '/'); i > -1 {
		return p[:i+1]
	}
	return p
}

// The flag images for the country list are loaded from flagHost.
const flagHost = "https://hatscripts.github.io"

func addcsp() func(http.Handler) http.Handler {
	policy := [][2]string{
		{header.CSPDefaultSrc, header.CSPSourceNone},
		{header.CSPFontSrc, header.CSPSourceSelf},
		{header.CSPFormAction, header.CSPSourceSelf},
		{header.CSPFrameAncestors, header.CSPSourceNone},
		{header.CSPScriptSrc, header.CSPSourceSelf},
		{header.CSPStyleSrc, header.CSPSourceSelf + " " + header.CSPSourceUnsafeInline},
		{header.CSPConnectSrc, header.CSPSourceSelf},
		{header.CSPImgSrc, header.CSPSourceSelf + " data: " + flagHost},
	}
	parts := make([]string, 0, len(policy))
	for _, p := range policy {
		parts = append(parts, p[0]+" "+p[1])
	}
	csp := strings.Join(parts, "; ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Security-Policy", csp)
			next.ServeHTTP(w, r)
		})
	}
}

// Ratelimit limits the number of requests per remote host.
func Ratelimit(store limiter.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				key = r.RemoteAddr
			}

			limit, left, reset, ok, err := store.Take(r.Context(), key)
			if err != nil { // Only after the store is closed.
				log.Module("ratelimit").Error(r.Context(), err, "key", key)
				ok = false
			}
			wait := time.Until(time.Unix(0, int64(reset))).Round(time.Second)
			if wait < 0 {
				wait = 0
			}

			h := w.Header()
			h.Set("X-Rate-Limit-Limit", strconv.FormatUint(limit, 10))
			h.Set("X-Rate-Limit-Remaining", strconv.FormatUint(left, 10))
			h.Set("X-Rate-Limit-Reset", strconv.Itoa(int(wait.Seconds())))
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Retry-After", strconv.Itoa(int(wait.Seconds())))
			msg := "too many requests; try again in " + wait.String()
			if wantJSON(r) {
				h.Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprintf(w, "{\"error\": %q}\n", msg)
				return
			}
			http.Error(w, msg, http.StatusTooManyRequests)
		})
	}
}
