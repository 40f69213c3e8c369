package log

import (
	"context"
	"errors"
	"log/slog"
	"slices"
)

// Chain sends records to several handlers; for example to stderr and to the
// email handler for errors. Every handler checks its own level.
type Chain []slog.Handler

func NewChain(handlers ...slog.Handler) Chain { return Chain(handlers) }

func (c Chain) each(f func(slog.Handler) slog.Handler) Chain {
	n := make(Chain, len(c))
	for i, h := range c {
		n[i] = f(h)
	}
	return n
}

func (c Chain) Enabled(ctx context.Context, l slog.Level) bool {
	return slices.ContainsFunc(c, func(h slog.Handler) bool { return h.Enabled(ctx, l) })
}

func (c Chain) WithAttrs(attrs []slog.Attr) slog.Handler {
	return c.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(slices.Clone(attrs)) })
}

func (c Chain) WithGroup(name string) slog.Handler {
	if name == "" {
		return c
	}
	return c.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

// Handle the record with all handlers that are enabled for its level. All
// handlers are tried, even if one fails.
func (c Chain) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range c {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
