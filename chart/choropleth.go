package chart

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"zgo.at/goatdash"
)

// Grid positions (column, row) of every country in the tile map, by ISO 3166-1
// alpha-3 code.
var Grid = map[string][2]int{
	"ISL": {10, 0}, "NOR": {13, 0}, "SWE": {14, 0}, "FIN": {15, 0},
	"CAN": {2, 1}, "IRL": {10, 1}, "GBR": {11, 1}, "DNK": {13, 1}, "EST": {15, 1}, "RUS": {17, 1},
	"USA": {2, 2}, "BEL": {11, 2}, "NLD": {12, 2}, "DEU": {13, 2}, "POL": {14, 2}, "LVA": {15, 2}, "BLR": {16, 2},
	"MEX": {2, 3}, "CUB": {4, 3}, "DOM": {5, 3}, "FRA": {11, 3}, "LUX": {12, 3}, "CZE": {13, 3}, "SVK": {14, 3}, "LTU": {15, 3}, "UKR": {16, 3},
	"GTM": {2, 4}, "HND": {3, 4}, "JAM": {4, 4}, "HTI": {5, 4}, "PRI": {6, 4}, "PRT": {10, 4}, "ESP": {11, 4}, "CHE": {12, 4}, "AUT": {13, 4}, "HUN": {14, 4}, "ROU": {15, 4}, "MDA": {16, 4}, "KAZ": {20, 4}, "MNG": {24, 4}, "PRK": {26, 4},
	"SLV": {2, 5}, "NIC": {3, 5}, "ITA": {12, 5}, "SVN": {13, 5}, "HRV": {14, 5}, "SRB": {15, 5}, "BGR": {16, 5}, "GEO": {18, 5}, "UZB": {20, 5}, "KGZ": {21, 5}, "CHN": {24, 5}, "KOR": {26, 5}, "JPN": {27, 5},
	"CRI": {3, 6}, "PAN": {4, 6}, "MLT": {12, 6}, "BIH": {14, 6}, "MNE": {15, 6}, "MKD": {16, 6}, "TUR": {17, 6}, "ARM": {18, 6}, "AZE": {19, 6}, "TKM": {20, 6}, "TJK": {21, 6}, "HKG": {25, 6}, "TWN": {26, 6},
	"COL": {4, 7}, "VEN": {5, 7}, "GUY": {6, 7}, "ALB": {15, 7}, "GRC": {16, 7}, "CYP": {17, 7}, "LBN": {18, 7}, "SYR": {19, 7}, "AFG": {21, 7},
	"ECU": {3, 8}, "PER": {4, 8}, "BRA": {5, 8}, "MAR": {10, 8}, "DZA": {11, 8}, "TUN": {12, 8}, "LBY": {13, 8}, "EGY": {14, 8}, "ISR": {17, 8}, "JOR": {18, 8}, "IRQ": {19, 8}, "IRN": {20, 8}, "PAK": {21, 8}, "NPL": {23, 8}, "MMR": {24, 8}, "LAO": {25, 8}, "VNM": {26, 8}, "PHL": {27, 8},
	"BOL": {4, 9}, "PRY": {5, 9}, "MRT": {10, 9}, "MLI": {11, 9}, "NER": {12, 9}, "TCD": {13, 9}, "SDN": {14, 9}, "ERI": {15, 9}, "SAU": {18, 9}, "KWT": {19, 9}, "IND": {22, 9}, "BGD": {24, 9}, "THA": {25, 9}, "KHM": {26, 9},
	"CHL": {4, 10}, "ARG": {5, 10}, "URY": {6, 10}, "SEN": {10, 10}, "BFA": {11, 10}, "NGA": {12, 10}, "CMR": {13, 10}, "SSD": {14, 10}, "ETH": {15, 10}, "SOM": {16, 10}, "QAT": {19, 10}, "ARE": {20, 10}, "OMN": {21, 10}, "LKA": {22, 10}, "MYS": {25, 10},
	"CIV": {10, 11}, "GHA": {11, 11}, "BEN": {12, 11}, "COD": {13, 11}, "UGA": {14, 11}, "KEN": {15, 11}, "YEM": {19, 11}, "SGP": {25, 11}, "IDN": {26, 11},
	"AGO": {12, 12}, "ZMB": {13, 12}, "TZA": {14, 12}, "RWA": {15, 12}, "PNG": {28, 12}, "FJI": {29, 12},
	"NAM": {12, 13}, "ZWE": {13, 13}, "MOZ": {14, 13}, "MDG": {16, 13}, "AUS": {26, 13},
	"BWA": {12, 14}, "ZAF": {13, 14}, "NZL": {28, 14},
}

const (
	lowColor   = "#f3ebff"
	highColor  = "#6366f1"
	hoverFill  = "rgba(99, 102, 241, 0.6)"
	tileStroke = "#888"
)

// Choropleth is a world map as a grid of tiles, coloured by count.
type Choropleth struct {
	Config

	// Counts by alpha-3 country code.
	Data map[string]int

	// Display names by alpha-3 code; the code is used if there's no name.
	Names map[string]string

	// Currently hovered and selected country (alpha-3); may be empty.
	Hovered, Selected string
}

// Tile is a single country on the map.
type Tile struct {
	ISO         string
	Name        string
	X, Y, Size  float64
	Fill        string
	Stroke      string
	StrokeWidth float64
	Value       int
	HasData     bool
}

// NewChoropleth creates a new map from the country list.
func NewChoropleth(c Config, l goatdash.CountryList) Choropleth {
	m := Choropleth{Config: c, Data: l.Map, Names: make(map[string]string)}
	for _, cc := range l.Ranked {
		if k := cc.Alpha3(); k != "" {
			if _, ok := m.Names[k]; !ok {
				m.Names[k] = cc.Name
			}
		}
	}
	return m
}

func (m Choropleth) cfg() Config {
	c := m.Config
	if c.Width <= 0 && c.Height <= 0 {
		c.Width, c.Height = 475, 335
	}
	if c.Margin == (Margin{}) {
		c.Margin = Margin{Top: 4, Right: 4, Bottom: 4, Left: 4}
	}
	return c.withDefaults()
}

// Max gets the highest count.
func (m Choropleth) Max() int {
	var max int
	for _, v := range m.Data {
		if v > max {
			max = v
		}
	}
	return max
}

// Fill gets the fill colour for a country.
//
// Countries without data get a neutral colour; the rest are scaled linearly
// from 0 to the highest count.
func (m Choropleth) Fill(iso string) string {
	v, ok := m.Data[iso]
	if !ok {
		return neutralFill
	}
	max := m.Max()
	if max <= 0 {
		max = 1
	}
	return Interpolate(lowColor, highColor, float64(v)/float64(max))
}

// Tiles gets all tiles, ordered by row and column.
func (m Choropleth) Tiles() []Tile {
	var (
		c              = m.cfg()
		x0, x1, y0, y1 = c.plot()
		cols, rows     = gridSize()
		size           = math.Min((x1-x0)/float64(cols), (y1-y0)/float64(rows))
		tiles          = make([]Tile, 0, len(Grid))
	)
	for iso, pos := range Grid {
		v, ok := m.Data[iso]
		t := Tile{
			ISO:         iso,
			Name:        iso,
			X:           x0 + float64(pos[0])*size,
			Y:           y0 + float64(pos[1])*size,
			Size:        size,
			Fill:        m.Fill(iso),
			Stroke:      tileStroke,
			StrokeWidth: 1,
			Value:       v,
			HasData:     ok,
		}
		if name, ok := m.Names[iso]; ok && name != "" {
			t.Name = name
		}
		switch iso {
		case m.Selected:
			t.StrokeWidth = 2.5
		case m.Hovered:
			t.StrokeWidth = 2
			t.Fill = hoverFill
		}
		tiles = append(tiles, t)
	}
	sort.Slice(tiles, func(i, j int) bool {
		if tiles[i].Y == tiles[j].Y {
			return tiles[i].X < tiles[j].X
		}
		return tiles[i].Y < tiles[j].Y
	})
	return tiles
}

func gridSize() (cols, rows int) {
	for _, p := range Grid {
		if p[0]+1 > cols {
			cols = p[0] + 1
		}
		if p[1]+1 > rows {
			rows = p[1] + 1
		}
	}
	return cols, rows
}

// SVG renders the chart.
//
// Every tile has a data-iso attribute with the alpha-3 code, which the frontend
// uses to send hover and select events.
func (m Choropleth) SVG() string {
	var (
		c = m.cfg()
		s svg
	)
	s.open(c, "map")
	for _, t := range m.Tiles() {
		class := "tile"
		if t.HasData {
			class += " has-data"
		}
		if t.ISO == m.Selected {
			class += " selected"
		}
		if t.ISO == m.Hovered {
			class += " hovered"
		}
		title := t.Name
		if t.HasData {
			title += ": " + goatdash.Number(t.Value)
		}
		s.f(`<rect class="%s" data-iso="%s" x="%s" y="%s" width="%s" height="%s" rx="2" fill="%s" stroke="%s" stroke-width="%s"><title>%s</title></rect>`,
			class, t.ISO, n(t.X+1), n(t.Y+1), n(t.Size-2), n(t.Size-2),
			t.Fill, t.Stroke, n(t.StrokeWidth), attr(title))
	}
	return s.close()
}

// Interpolate linearly between two "#rrggbb" colours; f is clamped to 0..1.
func Interpolate(from, to string, f float64) string {
	if math.IsNaN(f) || f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	a, b := hexRGB(from), hexRGB(to)
	var out [3]uint8
	for i := range out {
		out[i] = uint8(math.Round(float64(a[i]) + (float64(b[i])-float64(a[i]))*f))
	}
	return fmt.Sprintf("#%02x%02x%02x", out[0], out[1], out[2])
}

func hexRGB(s string) [3]uint8 {
	var rgb [3]uint8
	if len(s) != 7 || s[0] != '#' {
		return rgb
	}
	for i := range rgb {
		v, _ := strconv.ParseUint(s[1+i*2:3+i*2], 16, 8)
		rgb[i] = uint8(v)
	}
	return rgb
}
