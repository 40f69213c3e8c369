package goatdash

import (
	"context"
	"testing"
	"time"

	"zgo.at/zstd/ztest"
	"zgo.at/zstd/ztime"
)

func TestTimeRange(t *testing.T) {
	tests := []struct {
		name, today, start, end string
	}{
		{"today", "2024-03-09", "2024-03-09", "2024-03-09"},
		{"0", "2024-03-09", "2024-03-09", "2024-03-09"},
		{"1", "2024-03-09", "2024-03-08", "2024-03-09"},
		{"30", "2024-03-09", "2024-02-08", "2024-03-09"},
		{"week", "2024-03-09", "2024-03-02", "2024-03-09"},
		{"month", "2024-05-20", "2024-04-20", "2024-05-20"},
		{"month", "2024-03-31", "2024-03-02", "2024-03-31"}, // No Feb 31
		{"quarter", "2024-05-20", "2024-02-20", "2024-05-20"},
		{"half-year", "2024-05-20", "2023-11-20", "2024-05-20"},
		{"year", "2024-02-29", "2023-03-01", "2024-02-29"},
		{"week-cur", "2024-03-09", "2024-03-04", "2024-03-10"},
		{"week-cur", "2024-03-04", "2024-03-04", "2024-03-10"},
		{"month-cur", "2024-02-10", "2024-02-01", "2024-02-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name+" "+tt.today, func(t *testing.T) {
			ctx := ztime.WithNow(context.Background(), ztime.FromString(tt.today))
			rng, err := TimeRange(ctx, tt.name, time.UTC)
			if err != nil {
				t.Fatal(err)
			}
			have := rng.Start.Format("2006-01-02 15:04:05") + " " + rng.End.Format("2006-01-02 15:04:05")
			want := tt.start + " 00:00:00 " + tt.end + " 23:59:59"
			if have != want {
				t.Errorf("\nhave: %s\nwant: %s", have, want)
			}
		})
	}

	t.Run("timezone", func(t *testing.T) {
		loc, err := time.LoadLocation("Asia/Makassar")
		if err != nil {
			t.Skip(err)
		}
		ctx := ztime.WithNow(context.Background(), time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC))
		rng, err := TimeRange(ctx, "today", loc)
		if err != nil {
			t.Fatal(err)
		}
		if have := rng.Start.Format("2006-01-02 15:04 -0700"); have != "2024-03-10 00:00 +0800" {
			t.Error(have)
		}
	})
}

func TestParseRange(t *testing.T) {
	ctx := ztime.WithNow(context.Background(), ztime.FromString("2024-01-15"))

	tests := []struct {
		in, wantStart, wantEnd, wantErr string
	}{
		{"", "2024-01-08 00:00:00", "2024-01-15 23:59:59", ""},
		{"30", "2023-12-16 00:00:00", "2024-01-15 23:59:59", ""},
		{"2024-01-01:2024-01-31", "2024-01-01 00:00:00", "2024-01-31 23:59:59", ""},
		{"2024-01-15:2024-01-15", "2024-01-15 00:00:00", "2024-01-15 23:59:59", ""},
		{"2024-01-31:2024-01-01", "", "", "is after end date"},
		{"2024-01-31:xxx", "", "", "unknown format for range"},
		{"-3", "", "", "unknown range"},
		{"fortnight", "", "", "unknown range"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			rng, err := ParseRange(ctx, tt.in, time.UTC)
			if !ztest.ErrorContains(err, tt.wantErr) {
				t.Fatalf("wrong error: %v", err)
			}
			if tt.wantErr != "" {
				return
			}

			gotStart := rng.Start.Format("2006-01-02 15:04:05")
			gotEnd := rng.End.Format("2006-01-02 15:04:05")
			if gotStart != tt.wantStart || gotEnd != tt.wantEnd {
				t.Errorf("\nhave: %q, %q\nwant: %q, %q",
					gotStart, gotEnd, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		start, end, want string
	}{
		{"2024-01-15", "2024-01-15", "Jan 15, 2024"},
		{"2024-01-08", "2024-01-14", "Jan 8 – Jan 14, 2024"},
		{"2023-12-08", "2024-01-14", "Dec 8, 2023 – Jan 14, 2024"},
	}
	for _, tt := range tests {
		have := Label(DayRange(date(tt.start), date(tt.end)))
		if have != tt.want {
			t.Errorf("\nhave: %q\nwant: %q", have, tt.want)
		}
	}
}
