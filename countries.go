package goatdash

import (
	"context"
	"math"
	"strings"

	"zgo.at/goatdash/pkg/geo"
)

// Country is the visitor count for a single country. ISO is the ISO 3166-1
// alpha-2 code, or nil if the name couldn't be resolved.
type Country struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	ISO        *string `json:"iso"`
	Flag       string  `json:"flag,omitempty"`
	FlagURL    string  `json:"flag_url"`
	Percentage float64 `json:"percentage"`
}

// CountrySummary is shown below the list of countries.
type CountrySummary struct {
	Total         int `json:"total"`
	Countries     int `json:"countries"`
	AvgPerCountry int `json:"avg_per_country"`
}

// CountryList is the list of countries, and the data for the choropleth map.
type CountryList struct {
	// All countries, sorted by count. This includes countries that couldn't
	// be resolved.
	Ranked []Country `json:"ranked"`

	// Counts by alpha-3 code; only countries that could be resolved.
	Map map[string]int `json:"map"`

	Summary CountrySummary `json:"summary"`
}

// Countries resolves the country names and builds the ranked list and the map
// data.
//
// Percentages are relative to totalPageviews, or the sum of the counts if that
// is 0.
func Countries(stats Stats, totalPageviews int) CountryList {
	return CountriesContext(context.Background(), stats, totalPageviews)
}

// CountriesContext is like Countries, but also resolves the aliases added with
// geo.With().
func CountriesContext(ctx context.Context, stats Stats, totalPageviews int) CountryList {
	var (
		sorted = stats.Sorted()
		l      = CountryList{
			Ranked: make([]Country, 0, len(sorted)),
			Map:    make(map[string]int, len(sorted)),
		}
	)
	if totalPageviews <= 0 {
		totalPageviews = sorted.Total()
	}

	for _, s := range sorted {
		c := Country{
			Name:       s.Name,
			Count:      s.Value,
			Flag:       geo.Flag(s.Name),
			FlagURL:    geo.FlagURL(s.Name),
			Percentage: Percentage(s.Value, totalPageviews),
		}
		if a2, ok := geo.ResolveContext(ctx, s.Name); ok {
			c.ISO = &a2
			c.Flag, c.FlagURL = geo.Flag(a2), geo.FlagURL(a2)
		}
		if k := geo.MapKeyContext(ctx, s.Name); k != nil {
			l.Map[*k] += s.Value
		}
		l.Ranked = append(l.Ranked, c)
		l.Summary.Total += s.Value
	}

	l.Summary.Countries = len(l.Ranked)
	if l.Summary.Countries > 0 {
		l.Summary.AvgPerCountry = int(math.Round(float64(l.Summary.Total) / float64(l.Summary.Countries)))
	}
	return l
}

// Find a country in the ranked list by alpha-2 or alpha-3 code.
func (l CountryList) Find(code string) (Country, bool) {
	for _, c := range l.Ranked {
		if c.ISO == nil {
			continue
		}
		if strings.EqualFold(*c.ISO, code) {
			return c, true
		}
		if a3, ok := geo.Alpha3(*c.ISO); ok && strings.EqualFold(a3, code) {
			return c, true
		}
	}
	return Country{}, false
}

// Max gets the highest count in the ranked list.
func (l CountryList) Max() int {
	if len(l.Ranked) == 0 {
		return 0
	}
	return l.Ranked[0].Count
}

// Alpha3 gets the alpha-3 code, or an empty string if the country wasn't
// resolved.
func (c Country) Alpha3() string {
	if c.ISO == nil {
		return ""
	}
	a3, _ := geo.Alpha3(*c.ISO)
	return a3
}
