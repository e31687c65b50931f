// Package ocr recognises text in captured images.
package ocr

import (
	"context"
	"image"
	"strings"

	"golang.org/x/image/draw"
)

// Engine turns an image into text.
type Engine interface {
	Name() string
	Available() bool
	Recognize(ctx context.Context, img image.Image, lang string) (string, error)
}

// MinSide is the shorter-side length below which images are upscaled before
// recognition.
const MinSide = 400

// Prepare converts img to RGBA, upscaling it 2x with Catmull-Rom when its
// shorter side is below MinSide.
func Prepare(img image.Image) *image.RGBA {
	b := img.Bounds()
	scale := 1
	if min(b.Dx(), b.Dy()) < MinSide {
		scale = 2
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	if scale == 1 {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Clean normalises recognised text: CRLF to LF, trailing spaces stripped,
// runs of blank lines collapsed, and surrounding whitespace trimmed.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\f", "")
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// LineCount returns the number of non-empty lines in s.
func LineCount(s string) int {
	n := 0
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			n++
		}
	}
	return n
}
