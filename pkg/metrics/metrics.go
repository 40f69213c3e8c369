// Package metrics keeps timings for HTTP requests, API fetches, and widget
// renders; they're listed on /metrics.
package metrics

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"zgo.at/zstd/ztime"
)

// Number of timings kept per tag.
const keep = 8192

var (
	mu     sync.Mutex
	timing = make(map[string]ztime.Durations)
)

func record(tag string, d time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	t, ok := timing[tag]
	if !ok {
		t = ztime.NewDurations(keep)
	}
	t.Append(d)
	timing[tag] = t
}

// Reset removes all timings.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	timing = make(map[string]ztime.Durations)
}

// Timing is the list of durations for a tag.
type Timing struct {
	Tag   string
	Times ztime.Durations
}

type Timings []Timing

var sortKeys = map[string]func(ztime.Durations) time.Duration{
	"sum":    func(d ztime.Durations) time.Duration { return d.Sum() },
	"mean":   func(d ztime.Durations) time.Duration { return d.Mean() },
	"median": func(d ztime.Durations) time.Duration { return d.Median() },
	"min":    func(d ztime.Durations) time.Duration { return d.Min() },
	"max":    func(d ztime.Durations) time.Duration { return d.Max() },
	"len":    func(d ztime.Durations) time.Duration { return time.Duration(d.Len()) },
}

// CanSort reports if the timings can be sorted by this column.
func CanSort(by string) bool { _, ok := sortKeys[by]; return ok }

// Sort by the column, highest first. Timings with the same value keep their
// order. It panics on an unknown column.
func (t Timings) Sort(by string) Timings {
	key, ok := sortKeys[by]
	if !ok {
		panic(fmt.Sprintf("metrics.Timings.Sort: unknown column %q", by))
	}
	sort.SliceStable(t, func(i, j int) bool { return key(t[i].Times) > key(t[j].Times) })
	return t
}

// List all timings, sorted by tag.
func List() Timings {
	mu.Lock()
	defer mu.Unlock()
	l := make(Timings, 0, len(timing))
	for tag, d := range timing {
		l = append(l, Timing{Tag: tag, Times: d})
	}
	sort.Slice(l, func(i, j int) bool { return l[i].Tag < l[j].Tag })
	return l
}

// Metric is a running timer.
type Metric struct {
	tag   string
	start time.Time
}

// Start a timer for the tag.
func Start(tag string) *Metric { return &Metric{tag: tag, start: time.Now()} }

// AddTag appends to the tag, so that a failed fetch is recorded as
// "fetch.pages·error" rather than mixed with the successful ones.
func (m *Metric) AddTag(tag string) { m.tag += "·" + tag }

// Done stops the timer and records it.
func (m *Metric) Done() { record(m.tag, time.Since(m.start)) }
