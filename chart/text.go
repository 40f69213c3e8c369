package chart

import (
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var (
	faceOnce sync.Once
	face     font.Face
)

func labelFace() font.Face {
	faceOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			panic(err)
		}
		face, err = opentype.NewFace(f, &opentype.FaceOptions{
			Size:    11,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			panic(err)
		}
	})
	return face
}

// TextWidth gets the width of a label in pixels.
//
// This is measured with the Go font at the label size, which won't be exactly
// what the browser uses but is close enough to size the margins.
func TextWidth(s string) float64 {
	return float64(font.MeasureString(labelFace(), s)) / 64
}

// leftMargin gets the margin needed to fit all labels, with some padding.
func leftMargin(min float64, labels []string) float64 {
	m := min
	for _, l := range labels {
		if w := TextWidth(l) + 8; w > m {
			m = w
		}
	}
	return m
}
