package goatdash

import (
	"time"
)

// Point is a single count as returned by the analytics API; it may represent a
// single event or a pre-aggregated count for some fine-grained bucket.
type Point struct {
	Time  time.Time
	Count int
}

// Bucket is a time interval with the aggregated count for that interval.
type Bucket struct {
	Start time.Time `json:"start"`
	Value int       `json:"value"`
}

// TimeSeries is an ordered list of buckets, strictly increasing by Start.
type TimeSeries []Bucket

// Total gets the sum of all buckets.
func (t TimeSeries) Total() int {
	var n int
	for _, b := range t {
		n += b.Value
	}
	return n
}

// Max gets the highest value.
func (t TimeSeries) Max() int {
	var m int
	for _, b := range t {
		if b.Value > m {
			m = b.Value
		}
	}
	return m
}

// Values gets all the values, in order.
func (t TimeSeries) Values() []int {
	v := make([]int, 0, len(t))
	for _, b := range t {
		v = append(v, b.Value)
	}
	return v
}

// Stat is a single entry in a categorical series, such as a browser or a page
// path.
type Stat struct {
	Name       string  `json:"name"`
	Value      int     `json:"value"`
	Percentage float64 `json:"percentage,omitempty"`
}

// Stats is a categorical series (browsers, systems, devices, referrers, pages,
// countries).
type Stats []Stat

// Favorite is a pinned metric, e.g. "pageviews" in the "metrics" section.
type Favorite struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Section   string    `json:"section"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"timestamp"`
}

// Note is a free-form annotation on a date.
type Note struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
}
