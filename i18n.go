package goatdash

import (
	"context"

	"golang.org/x/text/language"
	"zgo.at/z18n"
)

// There are no translations yet; all messages use the default text after the
// "|" in the message ID.
var defaultBundle = z18n.NewBundle(language.English)

// Bundle gets the translation bundle.
func Bundle() *z18n.Bundle { return defaultBundle }

// DefaultLocale gets the English locale.
func DefaultLocale() *z18n.Locale { return defaultBundle.Locale("en") }

// WithLocale stores the locale for the first matching language in the
// context.
func WithLocale(ctx context.Context, langs ...string) context.Context {
	return z18n.With(ctx, defaultBundle.Locale(langs...))
}
