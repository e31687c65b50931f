package model

import "fmt"

// Crop is a sub-rectangle of a window expressed as fractions of its size.
type Crop struct {
	Left   float64 `yaml:"left"   json:"left"`
	Top    float64 `yaml:"top"    json:"top"`
	Right  float64 `yaml:"right"  json:"right"`
	Bottom float64 `yaml:"bottom" json:"bottom"`
}

// Crop presets used by tune-crop.
var (
	CropChat    = Crop{Left: 0.18, Top: 0.12, Right: 0.92, Bottom: 0.88}
	CropProfile = Crop{Left: 0.60, Top: 0.08, Right: 0.98, Bottom: 0.92}
	CropFull    = Crop{Left: 0, Top: 0, Right: 1, Bottom: 1}

	// CropChatHighDPI is applied to the chat crop when the active monitor
	// scale exceeds 1.5.
	CropChatHighDPI = Crop{Left: 0.30, Top: 0.14, Right: 0.90, Bottom: 0.86}
)

// CropPresets maps preset names to crops.
var CropPresets = map[string]Crop{
	"chat":    CropChat,
	"profile": CropProfile,
	"full":    CropFull,
}

// IsFull reports whether c covers the whole window.
func (c Crop) IsFull() bool {
	return c == CropFull
}

// Validate checks that every edge is within [0,1] and the crop is non-empty.
func (c Crop) Validate() error {
	for _, v := range []float64{c.Left, c.Top, c.Right, c.Bottom} {
		if v < 0 || v > 1 {
			return fmt.Errorf("crop %v: fractions must be within [0,1]", c)
		}
	}
	if c.Left >= c.Right || c.Top >= c.Bottom {
		return fmt.Errorf("crop %v: left must be < right and top < bottom", c)
	}
	return nil
}
