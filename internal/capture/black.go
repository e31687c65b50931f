package capture

import "image"

// DefaultBlackThreshold is the mean channel value below which a frame is
// considered black.
const DefaultBlackThreshold = 6.0

// MeanBrightness returns the mean of the R, G and B channels over all
// pixels, on a 0-255 scale. An empty image has mean 0.
func MeanBrightness(img image.Image) float64 {
	b := img.Bounds()
	if b.Empty() {
		return 0
	}
	var sum uint64
	if rgba, ok := img.(*image.RGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := rgba.Pix[rgba.PixOffset(b.Min.X, y):rgba.PixOffset(b.Max.X, y)]
			for i := 0; i < len(row); i += 4 {
				sum += uint64(row[i]) + uint64(row[i+1]) + uint64(row[i+2])
			}
		}
	} else {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := img.At(x, y).RGBA()
				sum += uint64(r>>8) + uint64(g>>8) + uint64(bl>>8)
			}
		}
	}
	return float64(sum) / float64(3*b.Dx()*b.Dy())
}

// IsBlack reports whether the image's mean brightness is below threshold.
// A non-positive threshold uses DefaultBlackThreshold.
func IsBlack(img image.Image, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultBlackThreshold
	}
	return MeanBrightness(img) < threshold
}
