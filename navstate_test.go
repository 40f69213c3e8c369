package goatdash

import (
	"net/url"
	"reflect"
	"testing"
	"time"

	"zgo.at/zstd/ztest"
)

func TestDecodeNav(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr string
	}{
		{"", "density=detailed", ""},
		{"from=2024-01-01&to=2024-01-31",
			"density=detailed&from=2024-01-01&to=2024-01-31", ""},
		{"from=2024-01-01&to=2024-01-31&comparison=true&density=compact&device=mobile&country=NL",
			"comparison=true&country=NL&density=compact&device=mobile&from=2024-01-01&to=2024-01-31", ""},
		{"metric=visitors&site=abc&unknown=1",
			"density=detailed&metric=visitors&site=abc", ""},
		{"metric=pageviews", "density=detailed", ""},
		{"q=+%2Fblog+&device=Desktop", "density=detailed&device=Desktop&q=%2Fblog", ""},
		{"q=", "density=detailed", ""},
		{"comparison=false", "density=detailed", ""},

		{"density=tiny", "", "density"},
		{"metric=sessions", "", "metric"},
		{"from=2024-01-01", "", "to"},
		{"from=2024-01-31&to=2024-01-01", "", "must be before"},
		{"from=2024-13-01&to=2024-01-01", "", "must be a date"},
		{"comparison=maybe", "", "comparison"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			q, err := url.ParseQuery(tt.in)
			if err != nil {
				t.Fatal(err)
			}

			n, err := DecodeNav(q, time.UTC)
			if !ztest.ErrorContains(err, tt.wantErr) {
				t.Fatalf("wrong error: %v", err)
			}
			if tt.wantErr != "" {
				return
			}
			if have := n.Query(); have != tt.want {
				t.Errorf("\nhave: %s\nwant: %s", have, tt.want)
			}
		})
	}
}

func TestNavRoundTrip(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Makassar")
	if err != nil {
		t.Skip(err)
	}

	states := []NavState{
		{Density: "detailed", Metric: "pageviews"},
		{
			From:       time.Date(2024, 1, 1, 0, 0, 0, 0, loc),
			To:         time.Date(2024, 1, 31, 0, 0, 0, 0, loc),
			Comparison: true,
			Density:    "compact",
			Device:     "Mobile",
			Country:    "United States",
			Metric:     "bounce",
			Site:       "site-1",
			Search:     "blog post",
		},
	}

	for _, s := range states {
		have, err := DecodeNav(s.Encode(), loc)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(have, s) {
			t.Errorf("\nhave: %#v\nwant: %#v", have, s)
		}
	}
}

func TestNavRange(t *testing.T) {
	n := NavState{}.WithRange(DayRange(date("2024-01-08 13:00"), date("2024-01-14 10:00")))
	if !n.HasRange() {
		t.Fatal("no range")
	}
	rng := n.Range()
	if have := rng.Start.Format("2006-01-02 15:04:05"); have != "2024-01-08 00:00:00" {
		t.Error(have)
	}
	if have := rng.End.Format("2006-01-02 15:04:05"); have != "2024-01-14 23:59:59" {
		t.Error(have)
	}
}
