// Package geo resolves country names to ISO 3166-1 codes.
//
// The analytics API reports countries as free-text names ("United States",
// "USA", "Germany"); these are mapped with a static table of names and common
// aliases. Names that can't be resolved still get a best-effort flag, but are
// never used as keys for the map.
package geo

import (
	"context"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
)

// FlagBase is the base URL for flag images; the lowercase alpha-2 code and
// ".svg" are appended.
var FlagBase = "https://hatscripts.github.io/circle-flags/flags/"

// Names maps lowercase country names and aliases to alpha-2 codes.
var Names = map[string]string{
	"united states":            "us",
	"united states of america": "us",
	"usa":                      "us",
	"us":                       "us",
	"america":                  "us",
	"united kingdom":           "gb",
	"uk":                       "gb",
	"great britain":            "gb",
	"britain":                  "gb",
	"england":                  "gb",
	"scotland":                 "gb",
	"wales":                    "gb",
	"germany":                  "de",
	"deutschland":              "de",
	"france":                   "fr",
	"italy":                    "it",
	"spain":                    "es",
	"canada":                   "ca",
	"australia":                "au",
	"japan":                    "jp",
	"china":                    "cn",
	"india":                    "in",
	"brazil":                   "br",
	"russia":                   "ru",
	"russian federation":       "ru",
	"south korea":              "kr",
	"korea":                    "kr",
	"republic of korea":        "kr",
	"netherlands":              "nl",
	"the netherlands":          "nl",
	"holland":                  "nl",
	"belgium":                  "be",
	"switzerland":              "ch",
	"austria":                  "at",
	"sweden":                   "se",
	"norway":                   "no",
	"denmark":                  "dk",
	"finland":                  "fi",
	"poland":                   "pl",
	"portugal":                 "pt",
	"czech republic":           "cz",
	"czechia":                  "cz",
	"hungary":                  "hu",
	"romania":                  "ro",
	"greece":                   "gr",
	"turkey":                   "tr",
	"türkiye":                  "tr",
	"israel":                   "il",
	"south africa":             "za",
	"egypt":                    "eg",
	"nigeria":                  "ng",
	"kenya":                    "ke",
	"morocco":                  "ma",
	"mexico":                   "mx",
	"argentina":                "ar",
	"chile":                    "cl",
	"colombia":                 "co",
	"peru":                     "pe",
	"venezuela":                "ve",
	"ecuador":                  "ec",
	"uruguay":                  "uy",
	"paraguay":                 "py",
	"bolivia":                  "bo",
	"thailand":                 "th",
	"singapore":                "sg",
	"malaysia":                 "my",
	"indonesia":                "id",
	"philippines":              "ph",
	"vietnam":                  "vn",
	"viet nam":                 "vn",
	"taiwan":                   "tw",
	"hong kong":                "hk",
	"new zealand":              "nz",
	"ireland":                  "ie",
	"ukraine":                  "ua",
	"estonia":                  "ee",
	"latvia":                   "lv",
	"lithuania":                "lt",
	"slovenia":                 "si",
	"croatia":                  "hr",
	"serbia":                   "rs",
	"bulgaria":                 "bg",
	"slovakia":                 "sk",
	"iceland":                  "is",
	"luxembourg":               "lu",
	"malta":                    "mt",
	"cyprus":                   "cy",
	"pakistan":                 "pk",
	"bangladesh":               "bd",
	"saudi arabia":             "sa",
	"united arab emirates":     "ae",
	"uae":                      "ae",
	"iran":                     "ir",
	"iraq":                     "iq",
}

var ctxkey = &struct{ n string }{"geo"}

// With returns a context with extra aliases, which are used before the
// built-in table.
func With(ctx context.Context, aliases map[string]string) context.Context {
	l := make(map[string]string, len(aliases))
	for k, v := range aliases {
		l[normalize(k)] = strings.ToLower(v)
	}
	return context.WithValue(ctx, ctxkey, l)
}

// Get the extra aliases from the context.
func Get(ctx context.Context) map[string]string {
	l, _ := ctx.Value(ctxkey).(map[string]string)
	return l
}

func normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Resolve a country name to the lowercase alpha-2 code.
//
// The lookup is case-insensitive. Input that is already a valid alpha-2 or
// alpha-3 country code is also accepted.
func Resolve(name string) (string, bool) {
	return ResolveContext(context.Background(), name)
}

// ResolveContext is like Resolve, but also uses the aliases added with With().
func ResolveContext(ctx context.Context, name string) (string, bool) {
	n := normalize(name)
	if n == "" {
		return "", false
	}
	if c, ok := Get(ctx)[n]; ok {
		return c, true
	}
	if c, ok := Names[n]; ok {
		return c, true
	}

	if l := len(n); l == 2 || l == 3 {
		r, err := language.ParseRegion(n)
		if err == nil && r.IsCountry() {
			return strings.ToLower(r.String()), true
		}
	}
	return "", false
}

// FlagCode gets the code for the flag image.
//
// This uses the first two characters of the name if it can't be resolved, which
// may or may not be correct. Never use this for anything other than the flag.
func FlagCode(name string) string {
	if c, ok := Resolve(name); ok {
		return c
	}
	n := normalize(name)
	if utf8.RuneCountInString(n) <= 2 {
		return n
	}
	r := []rune(n)
	return string(r[:2])
}

// FlagURL gets the URL for a flag image.
func FlagURL(name string) string {
	c := FlagCode(name)
	if c == "" {
		c = "xx"
	}
	return FlagBase + c + ".svg"
}

// Flag gets the emoji flag, or an empty string if the name can't be resolved.
func Flag(name string) string {
	c, ok := Resolve(name)
	if !ok || len(c) != 2 {
		return ""
	}
	c = strings.ToUpper(c)
	if c[0] < 'A' || c[0] > 'Z' || c[1] < 'A' || c[1] > 'Z' {
		return ""
	}
	return string([]rune{rune(c[0]-'A') + 0x1F1E6, rune(c[1]-'A') + 0x1F1E6})
}

// Alpha3 gets the uppercase alpha-3 code for an alpha-2 code.
func Alpha3(alpha2 string) (string, bool) {
	r, err := language.ParseRegion(alpha2)
	if err != nil || !r.IsCountry() {
		return "", false
	}
	a3 := r.ISO3()
	if a3 == "" || a3 == "ZZZ" {
		return "", false
	}
	return a3, true
}

// MapKey gets the alpha-3 code used as the key for the map, or nil if the name
// can't be resolved.
func MapKey(name string) *string {
	return MapKeyContext(context.Background(), name)
}

// MapKeyContext is like MapKey, but also uses the aliases added with With().
func MapKeyContext(ctx context.Context, name string) *string {
	c, ok := ResolveContext(ctx, name)
	if !ok {
		return nil
	}
	a3, ok := Alpha3(c)
	if !ok {
		return nil
	}
	return &a3
}
