package goatdash

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"zgo.at/errors"
)

// ExportKinds are the lists that can be exported as CSV.
var ExportKinds = []string{"top-pages", "referrers", "countries", "browsers", "systems", "devices"}

// ExportFilename gets the filename for a CSV export: "{kind}-{date}.csv".
func ExportFilename(kind string, t time.Time) string {
	return kind + "-" + t.Format("2006-01-02") + ".csv"
}

// ExportCSV writes the stats as CSV, with a header row.
//
// The percentage column is only added if withPerc is set.
func ExportCSV(w io.Writer, stats Stats, withPerc bool) error {
	c := csv.NewWriter(w)

	head := []string{"Name", "Value"}
	if withPerc {
		head = append(head, "Percentage")
	}
	c.Write(head)

	for _, s := range stats {
		row := []string{s.Name, strconv.Itoa(s.Value)}
		if withPerc {
			row = append(row, strconv.FormatFloat(s.Percentage, 'f', 1, 64))
		}
		c.Write(row)
	}

	c.Flush()
	return errors.Wrap(c.Error(), "ExportCSV")
}

// ExportCSVString is like ExportCSV, but returns a string.
func ExportCSVString(stats Stats, withPerc bool) (string, error) {
	b := new(strings.Builder)
	err := ExportCSV(b, stats, withPerc)
	return b.String(), err
}
