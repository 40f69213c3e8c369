package goatdash

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"zgo.at/guru"
	"zgo.at/zstd/ztime"
)

// Preset is a pre-defined date range.
type Preset struct {
	Name  string
	Label string
}

// Presets are the date ranges shown in the range selector.
var Presets = []Preset{
	{"0", "Today"},
	{"7", "Last 7 days"},
	{"30", "Last 30 days"},
	{"90", "Last 90 days"},
	{"week-cur", "This week"},
	{"month-cur", "This month"},
	{"half-year", "Last 6 months"},
	{"year", "Last year"},
}

// TimeRange gets the time range for a preset name, relative to the current
// date in loc.
//
// Any number is also accepted as "the last n days"; 0 is today only.
func TimeRange(ctx context.Context, name string, loc *time.Location) (ztime.Range, error) {
	var (
		n     = ztime.Now(ctx).In(loc)
		c     = &now.Config{WeekStartDay: time.Monday, TimeLocation: loc}
		today = c.With(n).BeginningOfDay()
		rng   = ztime.Range{End: ztime.EndOf(today, ztime.Day)}
	)
	switch name {
	case "today":
		rng.Start = today
	case "week":
		rng.Start = today.AddDate(0, 0, -7)
	case "month":
		rng.Start = today.AddDate(0, -1, 0)
	case "quarter":
		rng.Start = today.AddDate(0, -3, 0)
	case "half-year":
		rng.Start = today.AddDate(0, -6, 0)
	case "year":
		rng.Start = today.AddDate(-1, 0, 0)
	case "week-cur":
		rng.Start, rng.End = c.With(n).BeginningOfWeek(), c.With(n).EndOfWeek()
	case "month-cur":
		rng.Start, rng.End = c.With(n).BeginningOfMonth(), c.With(n).EndOfMonth()
	default:
		days, err := strconv.Atoi(name)
		if err != nil || days < 0 {
			return rng, guru.Errorf(400, "unknown range: %q", name)
		}
		rng.Start = today.AddDate(0, 0, -days)
	}
	return rng, nil
}

// ParseRange parses a range as a preset name, a number of days, or an
// explicit start and end date as "2006-01-02:2006-01-02".
//
// The default is the last 7 days if s is empty.
func ParseRange(ctx context.Context, s string, loc *time.Location) (ztime.Range, error) {
	if s == "" {
		return TimeRange(ctx, "7", loc)
	}

	startS, endS, ok := strings.Cut(s, ":")
	if !ok {
		return TimeRange(ctx, s, loc)
	}

	start, err := time.ParseInLocation("2006-01-02", startS, loc)
	if err != nil {
		return ztime.Range{}, guru.Errorf(400, "unknown format for range: %q", s)
	}
	end, err := time.ParseInLocation("2006-01-02", endS, loc)
	if err != nil {
		return ztime.Range{}, guru.Errorf(400, "unknown format for range: %q", s)
	}
	rng := ztime.Range{Start: start, End: ztime.EndOf(end, ztime.Day)}
	return rng, ValidateRange(rng)
}

// ValidateRange checks that the start of a range isn't after the end.
func ValidateRange(rng ztime.Range) error {
	if rng.Start.IsZero() || rng.End.IsZero() {
		return guru.New(400, "range is not set")
	}
	if rng.Start.After(rng.End) {
		return guru.Errorf(400, "start date %s is after end date %s",
			rng.Start.Format("2006-01-02"), rng.End.Format("2006-01-02"))
	}
	return nil
}

// DayRange gets the range for whole days, from the start of the day of start to
// the end of the day of end.
func DayRange(start, end time.Time) ztime.Range {
	return ztime.Range{
		Start: ztime.StartOf(start, ztime.Day),
		End:   ztime.EndOf(end, ztime.Day),
	}
}

// IsSingleDay reports if the range is a single calendar day.
func IsSingleDay(rng ztime.Range) bool {
	return SpanDays(rng.Start, rng.End) == 0
}

// Label gets a readable label for the range, e.g. "Jan 8 – Jan 14, 2024".
func Label(rng ztime.Range) string {
	if IsSingleDay(rng) {
		return rng.Start.Format("Jan 2, 2006")
	}
	if rng.Start.Year() == rng.End.Year() {
		return rng.Start.Format("Jan 2") + " – " + rng.End.Format("Jan 2, 2006")
	}
	return rng.Start.Format("Jan 2, 2006") + " – " + rng.End.Format("Jan 2, 2006")
}
