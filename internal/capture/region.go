// Package capture grabs window regions as images through an ordered list of
// capture strategies.
package capture

import (
	"image"

	"github.com/mj1618/wingman/internal/model"
)

// RegionFromCrop converts a fractional crop into screen pixels. A nil crop,
// forceFull, or a full crop selects the whole window. Edges are truncated
// toward zero and the result is clamped into the window; a crop with
// left<right and top<bottom always yields at least one pixel.
func RegionFromCrop(win image.Rectangle, crop *model.Crop, forceFull bool) image.Rectangle {
	if forceFull || crop == nil || crop.IsFull() {
		return win
	}
	w := max(1, win.Dx())
	h := max(1, win.Dy())
	x1, y1 := float64(win.Min.X), float64(win.Min.Y)
	r := image.Rect(
		int(x1+crop.Left*float64(w)),
		int(y1+crop.Top*float64(h)),
		int(x1+crop.Right*float64(w)),
		int(y1+crop.Bottom*float64(h)),
	)
	r.Min.X = clamp(r.Min.X, win.Min.X, win.Max.X)
	r.Max.X = clamp(r.Max.X, win.Min.X, win.Max.X)
	r.Min.Y = clamp(r.Min.Y, win.Min.Y, win.Max.Y)
	r.Max.Y = clamp(r.Max.Y, win.Min.Y, win.Max.Y)
	if crop.Left < crop.Right && r.Dx() < 1 {
		r.Min.X, r.Max.X = onePixel(r.Min.X, win.Min.X, win.Max.X)
	}
	if crop.Top < crop.Bottom && r.Dy() < 1 {
		r.Min.Y, r.Max.Y = onePixel(r.Min.Y, win.Min.Y, win.Max.Y)
	}
	return r
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// onePixel returns a one-pixel span starting at v that fits in [lo,hi).
func onePixel(v, lo, hi int) (int, int) {
	if hi-lo < 1 {
		return lo, lo + 1
	}
	v = clamp(v, lo, hi-1)
	return v, v + 1
}

// ClampToMonitor intersects region with the monitor rectangle. When they do
// not overlap the region is returned unchanged.
func ClampToMonitor(region, monitor image.Rectangle) image.Rectangle {
	inter := region.Intersect(monitor)
	if inter.Empty() {
		return region
	}
	return inter
}

// ToRelative translates an absolute region into coordinates relative to the
// monitor origin, clamping negative values to zero.
func ToRelative(region, monitor image.Rectangle) image.Rectangle {
	r := region.Sub(monitor.Min)
	r.Min.X, r.Min.Y = max(0, r.Min.X), max(0, r.Min.Y)
	r.Max.X, r.Max.Y = max(0, r.Max.X), max(0, r.Max.Y)
	return r
}

// Pair is one (output, monitor) capture attempt: the output index does the
// grab, the monitor index supplies the origin the region is made relative to.
type Pair struct {
	Output  int `yaml:"output"  json:"output"`
	Monitor int `yaml:"monitor" json:"monitor"`
}

// Candidates returns the ordered capture attempts for n monitors:
//  1. the override paired with itself, then (tryAll) with every other monitor;
//  2. the window's monitor guess paired with itself;
//  3. every parallel pair not yet listed;
//  4. (tryAll) every remaining pair.
//
// An override outside [0,n) is ignored. The result has no duplicates.
func Candidates(override *int, guess, n int, tryAll bool) []Pair {
	n = max(1, n)
	var out []Pair
	seen := make(map[Pair]bool)
	add := func(p Pair) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	if override != nil && *override >= 0 && *override < n {
		o := *override
		add(Pair{o, o})
		if tryAll {
			for ri := 0; ri < n; ri++ {
				add(Pair{o, ri})
			}
		}
	}

	g := min(max(guess, 0), n-1)
	add(Pair{g, g})

	for i := 0; i < n; i++ {
		add(Pair{i, i})
	}

	if tryAll {
		for oi := 0; oi < n; oi++ {
			for ri := 0; ri < n; ri++ {
				add(Pair{oi, ri})
			}
		}
	}
	return out
}
