//go:build darwin && cgo

package darwin

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"time"

	"golang.org/x/image/draw"
)

const captureTimeout = 10 * time.Second

// Grabber captures with the screencapture tool. Images are resampled from
// backing pixels to points so they line up with window bounds.
type Grabber struct {
	displays *Displays
}

// NewGrabber creates a grabber.
func NewGrabber(displays *Displays) *Grabber { return &Grabber{displays: displays} }

// GrabOutput captures the whole of display output and crops rect, relative
// to that display's origin.
func (g *Grabber) GrabOutput(output int, rect image.Rectangle) (image.Image, error) {
	monitors, err := g.displays.Monitors()
	if err != nil {
		return nil, err
	}
	if output < 0 || output >= len(monitors) {
		return nil, fmt.Errorf("output %d out of range (have %d)", output, len(monitors))
	}
	img, err := screencapture("-D", strconv.Itoa(output+1))
	if err != nil {
		return nil, err
	}
	m := monitors[output]
	full := toPoints(img, image.Pt(m.Bounds[2], m.Bounds[3]))
	r := rect.Intersect(full.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("rect %v is outside output %d", rect, output)
	}
	return full.SubImage(r), nil
}

// GrabScreen captures rect of the desktop, in global points.
func (g *Grabber) GrabScreen(rect image.Rectangle) (image.Image, error) {
	if rect.Empty() {
		return nil, fmt.Errorf("empty capture rectangle")
	}
	region := fmt.Sprintf("%d,%d,%d,%d", rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy())
	img, err := screencapture("-R", region)
	if err != nil {
		return nil, err
	}
	return toPoints(img, rect.Size()), nil
}

func screencapture(args ...string) (image.Image, error) {
	if err := CheckScreenRecordingPermission(); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp("", "wingman-capture-*.png")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	ctx, cancel := context.WithTimeout(context.Background(), captureTimeout)
	defer cancel()
	cmdArgs := append([]string{"-x", "-t", "png"}, args...)
	cmdArgs = append(cmdArgs, path)
	if out, err := exec.CommandContext(ctx, "screencapture", cmdArgs...).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("screencapture: %w: %s", err, out)
	}

	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding capture: %w", err)
	}
	return img, nil
}

// toPoints resamples img to size when the capture came back at a backing
// scale other than 1.
func toPoints(img image.Image, size image.Point) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	if img.Bounds().Size() == size {
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
		return dst
	}
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
