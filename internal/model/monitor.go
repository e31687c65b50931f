package model

import (
	"image"
	"math"
)

// Monitor describes one attached display.
type Monitor struct {
	Index   int     `yaml:"index"             json:"index"`
	Bounds  [4]int  `yaml:"bounds"            json:"bounds"` // [x, y, width, height]
	DPIX    int     `yaml:"dpi_x"             json:"dpi_x"`
	DPIY    int     `yaml:"dpi_y"             json:"dpi_y"`
	Scale   float64 `yaml:"scale"             json:"scale"`
	Primary bool    `yaml:"primary,omitempty" json:"primary,omitempty"`
}

// Rect returns the monitor bounds in virtual-desktop coordinates.
func (m Monitor) Rect() image.Rectangle {
	return image.Rect(m.Bounds[0], m.Bounds[1], m.Bounds[0]+m.Bounds[2], m.Bounds[1]+m.Bounds[3])
}

// ScaleFor converts a DPI value into a scale factor relative to 96 DPI,
// rounded to two decimals. Zero DPI is treated as 96.
func ScaleFor(dpi int) float64 {
	if dpi <= 0 {
		dpi = 96
	}
	return math.Round(float64(dpi)/96*100) / 100
}
