package goatdash

import (
	"math"
	"sort"
	"strings"
)

// Sorted returns a copy sorted by value, highest first. Entries with the same
// value are sorted by name.
func (s Stats) Sorted() Stats {
	c := make(Stats, len(s))
	copy(c, s)
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].Value == c[j].Value {
			return c[i].Name < c[j].Name
		}
		return c[i].Value > c[j].Value
	})
	return c
}

// Total gets the sum of all values.
func (s Stats) Total() int {
	var t int
	for _, ss := range s {
		t += ss.Value
	}
	return t
}

// Max gets the highest value.
func (s Stats) Max() int {
	var m int
	for _, ss := range s {
		if ss.Value > m {
			m = ss.Value
		}
	}
	return m
}

// WithPercentages returns a copy with the Percentage set relative to total. If
// total is 0 the sum of the values is used.
func (s Stats) WithPercentages(total int) Stats {
	if total <= 0 {
		total = s.Total()
	}
	c := make(Stats, len(s))
	for i, ss := range s {
		c[i] = ss
		c[i].Percentage = Percentage(ss.Value, total)
	}
	return c
}

// Filter returns all entries which contain query, case-insensitive. An empty
// query returns everything.
func (s Stats) Filter(query string) Stats {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return s
	}
	c := make(Stats, 0, len(s))
	for _, ss := range s {
		if strings.Contains(strings.ToLower(ss.Name), query) {
			c = append(c, ss)
		}
	}
	return c
}

// Only returns the entries with this exact name, case-insensitive. An empty name
// returns everything.
func (s Stats) Only(name string) Stats {
	if name == "" {
		return s
	}
	c := make(Stats, 0, 1)
	for _, ss := range s {
		if strings.EqualFold(ss.Name, name) {
			c = append(c, ss)
		}
	}
	return c
}

// Limit to the first n entries; n <= 0 means no limit.
func (s Stats) Limit(n int) Stats {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[:n]
}

// Percentage gets n as a percentage of total, or 0 if total is 0.
func Percentage(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}

// BarWidth gets the width of a horizontal bar as a percentage of the largest
// value. Bars are never smaller than min percent, so small values don't
// disappear.
func BarWidth(n, max int, min float64) float64 {
	if max <= 0 {
		return min
	}
	return math.Max(float64(n)/float64(max)*100, min)
}
