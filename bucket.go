package goatdash

import (
	"fmt"
	"sort"
	"time"

	"github.com/jinzhu/now"
)

// Granularity is the width of a bucket.
type Granularity uint8

const (
	Hour Granularity = iota
	Day
	Week
	Month
)

func (g Granularity) String() string {
	switch g {
	case Hour:
		return "hour"
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	}
	return fmt.Sprintf("Granularity(%d)", uint8(g))
}

// SpanDays gets the number of whole calendar days between the start and end of
// the range, in the location of the start time.
//
// A range that starts and ends on the same day is 0.
func SpanDays(start, end time.Time) int {
	loc := start.Location()
	end = end.In(loc)
	var (
		y1, m1, d1 = start.Date()
		y2, m2, d2 = end.Date()
		a          = time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
		b          = time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	)
	return int(b.Sub(a).Hours() / 24)
}

// GranularityFor selects the bucket granularity for a range:
//
//	0 days          hour
//	up to 90 days   day
//	up to 365 days  week (starting on Monday)
//	more            month
func GranularityFor(start, end time.Time) Granularity {
	switch d := SpanDays(start, end); {
	case d <= 0:
		return Hour
	case d <= 90:
		return Day
	case d <= 365:
		return Week
	default:
		return Month
	}
}

// TrendInterval gets the interval to request pre-aggregated trends with.
func TrendInterval(start, end time.Time) string {
	if GranularityFor(start, end) == Hour {
		return "hour"
	}
	return "day"
}

// BucketKey gets the start of the bucket t falls in.
func BucketKey(t time.Time, g Granularity, loc *time.Location) time.Time {
	t = t.In(loc)
	c := &now.Config{WeekStartDay: time.Monday, TimeLocation: loc}
	switch g {
	case Hour:
		return c.With(t).BeginningOfHour()
	case Day:
		return c.With(t).BeginningOfDay()
	case Week:
		return c.With(t).BeginningOfWeek()
	case Month:
		return c.With(t).BeginningOfMonth()
	}
	panic(fmt.Sprintf("BucketKey: unknown granularity %d", g))
}

// Aggregate the points in to a time series, with the granularity
// selected from the range with GranularityFor().
//
// Single-day ranges always return 24 hour buckets, including hours without any
// points. Other granularities only return buckets that have points.
//
// The total of the returned series is always the total of all the points.
func Aggregate(points []Point, start, end time.Time) TimeSeries {
	var (
		loc = start.Location()
		g   = GranularityFor(start, end)
	)
	if g == Hour {
		return bucketHours(points, start)
	}
	return group(points, g, loc)
}

// Resample a series that was already bucketed (e.g. by the API) to the
// granularity for the range.
func Resample(series TimeSeries, start, end time.Time) TimeSeries {
	points := make([]Point, 0, len(series))
	for _, b := range series {
		points = append(points, Point{Time: b.Start, Count: b.Value})
	}
	return Aggregate(points, start, end)
}

func bucketHours(points []Point, day time.Time) TimeSeries {
	var (
		y, m, d  = day.Date()
		dayStart = time.Date(y, m, d, 0, 0, 0, 0, day.Location())
		ts       = make(TimeSeries, 24)
	)
	// Elapsed hours rather than wall clock hours, so a DST change doesn't give
	// two buckets with the same start.
	for h := range ts {
		ts[h] = Bucket{Start: dayStart.Add(time.Duration(h) * time.Hour)}
	}
	for _, p := range points {
		h := max(0, min(23, int(p.Time.Sub(dayStart)/time.Hour)))
		ts[h].Value += p.Count
	}
	return ts
}

func group(points []Point, g Granularity, loc *time.Location) TimeSeries {
	if len(points) == 0 {
		return TimeSeries{}
	}

	var (
		idx = make(map[int64]int, len(points)/2)
		ts  = make(TimeSeries, 0, len(points)/2)
	)
	for _, p := range points {
		k := BucketKey(p.Time, g, loc)
		i, ok := idx[k.Unix()]
		if !ok {
			i = len(ts)
			idx[k.Unix()] = i
			ts = append(ts, Bucket{Start: k})
		}
		ts[i].Value += p.Count
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Start.Before(ts[j].Start) })
	return ts
}

// BounceTrend is a single entry of the bounce rate trend.
type BounceTrend struct {
	Time           time.Time
	BounceSessions int
	TotalSessions  int
}

// BounceSplit splits the bounce rate trend in "bounced" and "not bounced"
// series that can be used for a stacked bar chart.
//
// Single-day ranges are grouped in 24 hour slots.
func BounceSplit(trend []BounceTrend, start, end time.Time) (bounce, other TimeSeries) {
	b := make([]Point, 0, len(trend))
	o := make([]Point, 0, len(trend))
	for _, t := range trend {
		nb := t.TotalSessions - t.BounceSessions
		if nb < 0 {
			nb = 0
		}
		b = append(b, Point{Time: t.Time, Count: t.BounceSessions})
		o = append(o, Point{Time: t.Time, Count: nb})
	}

	if GranularityFor(start, end) == Hour {
		return bucketHours(b, start), bucketHours(o, start)
	}
	// Keep the server-side day buckets as-is.
	return group(b, Day, start.Location()), group(o, Day, start.Location())
}
