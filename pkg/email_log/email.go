// Package email_log sends log records as email.
package email_log

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"zgo.at/blackmail"
	"zgo.at/goatdash/pkg/bgrun"
	"zgo.at/slog_align"
	"zgo.at/zstd/zstring"
)

// Email is a slog.Handler that sends every record at or above the level as an
// email.
type Email struct {
	m        blackmail.Mailer
	from, to string
	lvl      slog.Level
}

// Maximum number of emails that are sent at the same time; records are
// dropped while this many are being sent, so a flood of errors doesn't end up
// as a flood of emails.
const maxSending = 2

func New(mailer blackmail.Mailer, lvl slog.Level, from, to string) Email {
	bgrun.Limit("email error", maxSending)
	return Email{m: mailer, from: from, to: to, lvl: lvl}
}

func (e Email) Enabled(ctx context.Context, l slog.Level) bool { return l >= e.lvl }
func (e Email) WithAttrs(attrs []slog.Attr) slog.Handler       { return e }
func (e Email) WithGroup(name string) slog.Handler             { return e }

// Errors that don't need an email; the API being down is already reported in
// the frontend, and cancelled requests are normal.
var ignore = []string{
	": context canceled",
	"write: broken pipe",
	"write: connection reset by peer",
	"dashboard: stale batch discarded",
}

func (e Email) Handle(ctx context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)
	h := slog_align.NewAlignedHandler(buf, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "module" || a.Key == "_err" {
				return slog.Attr{}
			}
			return a
		},
	})
	h.SetTimeFormat("Jan _2 15:04:05 ")
	h.SetColor(false)
	h.SetInlineLocation(false)
	h.Handle(context.Background(), r)
	msg := buf.String()

	for _, i := range ignore {
		if strings.Contains(msg, i) {
			return nil
		}
	}

	subject := zstring.GetLine(msg, 1)
	if len(subject) > 15 { // Remove date: "Jun  8 00:51:41"
		subject = strings.TrimSpace(subject[15:])
	}
	subject = strings.TrimLeft(strings.TrimPrefix(subject, "ERROR"), " \t:")
	subject = "goatdash: " + subject

	// Can't log errors here, as that would send another email.
	err := bgrun.RunFunction("email error", func() {
		err := e.m.Send(subject,
			blackmail.From("", e.from),
			blackmail.To(e.to),
			blackmail.BodyText([]byte(msg)))
		if err != nil {
			fmt.Fprintf(os.Stderr, "email_log: %s\n", err)
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "email_log: %s\n", err)
	}
	return nil
}
