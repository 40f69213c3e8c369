// Package log adds per-module logging on top of slog.
//
// Every message is logged through a module:
//
//	l := log.Module("live")
//	l.Info(ctx, "polling", "site", site)
//	l.Debug(ctx, "got buckets", "n", len(b))
//
// Debug messages are only shown for modules enabled with SetDebug (the -debug
// flag); the other levels follow the level of the default slog handler.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"zgo.at/errors"
	"zgo.at/gadget"
	"zgo.at/zstd/zdebug"
)

type ctxKey struct{}

// WithLog returns a copy of ctx with extra attributes added to every message
// logged with it. Attributes from the parent context are kept, and duplicate
// keys are not merged.
func WithLog(ctx context.Context, attrs ...any) context.Context {
	return context.WithValue(ctx, ctxKey{}, append(ctxAttrs(ctx), attrs...))
}

func ctxAttrs(ctx context.Context) []any {
	a, _ := ctx.Value(ctxKey{}).([]any)
	return slices.Clip(a)
}

var (
	debugMods   []string
	debugModsMu sync.RWMutex
)

// SetDebug sets the modules to log debug messages for. "all" enables all of
// them; a module prefixed with "-" is excluded.
func SetDebug(mods []string) {
	debugModsMu.Lock()
	defer debugModsMu.Unlock()
	debugMods = mods
}

// HasDebug reports if debug messages are enabled for this module.
func HasDebug(module string) bool {
	debugModsMu.RLock()
	defer debugModsMu.RUnlock()
	if slices.Contains(debugMods, "-"+module) {
		return false
	}
	return slices.Contains(debugMods, module) || slices.Contains(debugMods, "all")
}

// Logger logs messages for a module.
type Logger struct{ module string }

// Module gets a logger for the module. An empty module logs without a prefix.
func Module(module string) Logger { return Logger{module: module} }

func Error(ctx context.Context, msg any, attr ...any)        { Logger{}.Error(ctx, msg, attr...) }
func Errorf(ctx context.Context, format string, args ...any) { Logger{}.Errorf(ctx, format, args...) }
func Warn(ctx context.Context, msg string, attr ...any)      { Logger{}.Warn(ctx, msg, attr...) }
func Info(ctx context.Context, msg string, attr ...any)      { Logger{}.Info(ctx, msg, attr...) }
func Debug(ctx context.Context, msg string, attr ...any)     { Logger{}.Debug(ctx, msg, attr...) }

// Error logs an error; msg can be a string or an error. The stack trace is
// added, and errors created with zgo.at/errors also get their own trace.
func (l Logger) Error(ctx context.Context, msg any, attr ...any) {
	l.emit(ctx, slog.LevelError, msg, attr)
}
func (l Logger) Errorf(ctx context.Context, format string, args ...any) {
	l.emit(ctx, slog.LevelError, fmt.Sprintf(format, args...), nil)
}
func (l Logger) Warn(ctx context.Context, msg string, attr ...any) {
	l.emit(ctx, slog.LevelWarn, msg, attr)
}
func (l Logger) Warnf(ctx context.Context, format string, args ...any) {
	l.emit(ctx, slog.LevelWarn, fmt.Sprintf(format, args...), nil)
}
func (l Logger) Info(ctx context.Context, msg string, attr ...any) {
	l.emit(ctx, slog.LevelInfo, msg, attr)
}
func (l Logger) Infof(ctx context.Context, format string, args ...any) {
	l.emit(ctx, slog.LevelInfo, fmt.Sprintf(format, args...), nil)
}
func (l Logger) Debug(ctx context.Context, msg string, attr ...any) {
	l.emit(ctx, slog.LevelDebug, msg, attr)
}
func (l Logger) Debugf(ctx context.Context, format string, args ...any) {
	l.emit(ctx, slog.LevelDebug, fmt.Sprintf(format, args...), nil)
}

var now = func() time.Time { return time.Now().UTC() }

// Frames hidden from the stack trace of error messages.
var stackFilter = []string{
	"github.com/go-chi/chi/v5.(*ChainHandler).ServeHTTP",
	"github.com/go-chi/chi/v5.(*Mux).ServeHTTP",
	"github.com/go-chi/chi/v5.(*Mux).routeHTTP",
	"github.com/go-chi/chi/v5/middleware",
	"golang.org/x/net/http2/h2c.h2cHandler.ServeHTTP",
	"net/http.(*conn).serve",
	"net/http.HandlerFunc.ServeHTTP",
	"net/http.serverHandler.ServeHTTP",
	"zgo.at/goatdash/handlers.ErrPage",
	"zgo.at/goatdash/handlers.NewBackend.Ratelimit",
	"zgo.at/goatdash/handlers.addcsp",
	"zgo.at/goatdash/handlers.addctx",
	"zgo.at/goatdash/handlers.logRequest",
	"zgo.at/goatdash/pkg/log.Logger.emit",
	"zgo.at/goatdash/pkg/log.Error",
	"zgo.at/goatdash/pkg/log.Test",
	"zgo.at/zhttp.Unpanic",
	"zgo.at/zhttp.Wrap",
	"zgo.at/zhttp.Headers",
}

func (l Logger) emit(ctx context.Context, level slog.Level, msg any, attr []any) {
	h := slog.Default().Handler()
	if level == slog.LevelDebug {
		if !HasDebug(l.module) {
			return
		}
	} else if !h.Enabled(context.Background(), level) {
		return
	}

	text, errAttr := message(msg)
	if l.module != "" {
		text = l.module + ": " + text
	}

	var pc [1]uintptr
	runtime.Callers(3, pc[:]) // Callers, emit, Logger method
	r := slog.NewRecord(now(), level, text, pc[0])
	if level == slog.LevelError {
		r.Add("stacktrace", "\n"+string(zdebug.Stack(stackFilter...)))
	}
	r.Add(attr...)
	r.Add(errAttr...)
	if l.module != "" { // slog_align drops it again with ReplaceAttr.
		r.Add("module", l.module)
	}
	r.Add(ctxAttrs(ctx)...)

	if err := h.Handle(context.Background(), r); err != nil {
		fmt.Fprintf(os.Stderr, "log: handler error: %s\n", err)
	}
}

func message(msg any) (string, []any) {
	switch m := msg.(type) {
	case string:
		return m, nil
	case error:
		attr := []any{"_err", m}
		stErr := new(errors.StackErr)
		if !errors.As(m, &stErr) {
			return m.Error(), attr
		}
		if t := stErr.StackTrace(); t != "" {
			attr = append(attr, "stacktrace", "\n"+t)
		}
		return stErr.Unwrap().Error(), attr
	default:
		panic(fmt.Sprintf("log.Error: msg must be a string or error, not %T", m))
	}
}

// AttrHTTP gets attributes for a request; the User-Agent is shortened.
func AttrHTTP(r *http.Request) slog.Attr {
	return slog.Group("http",
		"verb", r.Method,
		"url", r.URL.String(),
		"host", r.Host,
		"ua", gadget.ShortenUA(r.UserAgent()),
	)
}

// Recover a panic and log it, with the stack, as an error in the "panic"
// module. Use as:
//
//	go func() {
//		defer log.Recover(ctx)
//		poll()
//	}()
//
// If report is given it's called with the error instead.
func Recover(ctx context.Context, report ...func(error)) {
	rec := recover()
	if rec == nil {
		return
	}
	err, ok := rec.(error)
	if !ok {
		err = fmt.Errorf("%v", rec)
	}
	err = fmt.Errorf("%w\n%s", err, debug.Stack())
	if len(report) > 0 && report[0] != nil {
		report[0](err)
		return
	}
	Module("panic").Error(ctx, err)
}
