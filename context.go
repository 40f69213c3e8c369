// Package goatdash is the client side of an analytics dashboard: it re-buckets
// pre-aggregated counts from the analytics API, computes comparison deltas,
// and prepares the data for the chart primitives in the chart package.
package goatdash

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"zgo.at/tz"
)

// Version of goatdash; set at compile-time with:
//
//	-ldflags="-X zgo.at/goatdash.Version=…"
//
// For development builds it's the VCS revision and commit date.
var Version = "dev"

func init() {
	if Version == "" || Version == "dev" {
		Version = vcsVersion(Version)
	}
}

func vcsVersion(fallback string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return fallback
	}
	vcs := make(map[string]string)
	for _, s := range info.Settings {
		if strings.HasPrefix(s.Key, "vcs.") {
			vcs[s.Key] = s.Value
		}
	}
	rev := vcs["vcs.revision"]
	if len(rev) < 12 {
		return fallback
	}
	v := rev[:12]
	if t, err := time.Parse(time.RFC3339, vcs["vcs.time"]); err == nil {
		v += "_" + t.UTC().Format("20060102")
	}
	if vcs["vcs.modified"] == "true" {
		v += "-dirty"
	}
	return v
}

type ctxKey struct{}

// GlobalConfig is the configuration shared by everything that runs in the
// process.
type GlobalConfig struct {
	// Analytics API URL, without the /api/analytics suffix.
	API string

	// Site that's shown when there is nothing stored in the preferences.
	DefaultSite string

	// Timezone that ranges and buckets are computed in.
	Timezone *tz.Zone

	// Extra country names, mapped to the alpha-2 code.
	CountryAliases map[string]string

	Dev bool
}

// Location returns the configured timezone location, or UTC.
func (c *GlobalConfig) Location() *time.Location {
	if c == nil || c.Timezone == nil || c.Timezone.Location == nil {
		return time.UTC
	}
	return c.Timezone.Location
}

// NewConfig creates a new GlobalConfig and stores it on the context.
func NewConfig(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, &GlobalConfig{})
}

// WithConfig stores the configuration on the context.
func WithConfig(ctx context.Context, c *GlobalConfig) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// Config gets the global configuration, or an empty configuration if it
// doesn't exist.
func Config(ctx context.Context) *GlobalConfig {
	if c, ok := ctx.Value(ctxKey{}).(*GlobalConfig); ok {
		return c
	}
	return &GlobalConfig{}
}
