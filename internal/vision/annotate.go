package vision

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	markColor    = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	textColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor = color.RGBA{R: 0, G: 0, B: 0, A: 200}
)

// crossArm is the half-length of the crosshair in pixels.
const crossArm = 12

// Annotate returns a copy of img with a crosshair, a box, and an "(x,y)"
// label at the image-local point pt. label is the text drawn; empty means
// the local coordinates.
func Annotate(img image.Image, pt image.Point, label string) *image.RGBA {
	rgba := ToRGBA(img)
	if label == "" {
		label = fmt.Sprintf("(%d,%d)", pt.X, pt.Y)
	}
	for d := -crossArm; d <= crossArm; d++ {
		setIn(rgba, pt.X+d, pt.Y, markColor)
		setIn(rgba, pt.X, pt.Y+d, markColor)
	}
	drawRectangle(rgba, pt.X-crossArm, pt.Y-crossArm, pt.X+crossArm+1, pt.Y+crossArm+1, markColor)
	drawTextWithOutline(rgba, label, pt.X, pt.Y-crossArm-4, textColor, outlineColor)
	return rgba
}

// ToRGBA copies any image into a new RGBA.
func ToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

func setIn(img *image.RGBA, x, y int, c color.Color) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.Set(x, y, c)
	}
}

func drawRectangle(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	r := image.Rect(x1, y1, x2, y2).Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		if y1 >= r.Min.Y {
			img.Set(x, y1, c)
		}
		if y2-1 < r.Max.Y {
			img.Set(x, y2-1, c)
		}
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		if x1 >= r.Min.X {
			img.Set(x1, y, c)
		}
		if x2-1 < r.Max.X {
			img.Set(x2-1, y, c)
		}
	}
}

// drawTextWithOutline centres text on (x, y) in basicfont 7x13 with a one
// pixel outline.
func drawTextWithOutline(img *image.RGBA, text string, x, y int, fg, outline color.Color) {
	offsetX := x - len(text)*7/2
	offsetY := y + 13/2

	draw1 := func(dx, dy int, c color.Color) {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(c),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(offsetX+dx, offsetY+dy),
		}
		d.DrawString(text)
	}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx != 0 || dy != 0 {
				draw1(dx, dy, outline)
			}
		}
	}
	draw1(0, 0, fg)
}
