package capture

import (
	"context"
	"image"
	"log/slog"

	werrors "github.com/mj1618/wingman/internal/errors"
	"github.com/mj1618/wingman/internal/model"
	"github.com/mj1618/wingman/internal/platform"
)

// Capturer turns a window plus crop into an image.
type Capturer struct {
	chain     *Chain
	displays  platform.DisplayLister
	forceFull bool
	logger    *slog.Logger
}

// NewCapturer creates a Capturer. displays may be nil, which skips the
// monitor clamp.
func NewCapturer(chain *Chain, displays platform.DisplayLister, forceFull bool, logger *slog.Logger) *Capturer {
	return &Capturer{chain: chain, displays: displays, forceFull: forceFull, logger: logger.With("component", "capture")}
}

// Region computes the absolute region for a crop of w, clamped to the
// monitor showing the window.
func (c *Capturer) Region(w model.Window, crop *model.Crop) image.Rectangle {
	r := RegionFromCrop(w.Rect(), crop, c.forceFull)
	if c.displays == nil {
		return r
	}
	monitors, err := c.displays.Monitors()
	if err != nil || len(monitors) == 0 {
		return r
	}
	idx, err := c.displays.MonitorFor(w.Handle)
	if err != nil || idx < 0 || idx >= len(monitors) {
		return r
	}
	return ClampToMonitor(r, monitors[idx].Rect())
}

// CaptureCrop captures crop of w. The window must be usable.
func (c *Capturer) CaptureCrop(ctx context.Context, w model.Window, crop *model.Crop) (Result, error) {
	if !w.Usable() {
		return Result{}, werrors.NewWindowNotFound("window is hidden, minimized, or gone")
	}
	return c.chain.Capture(ctx, Request{Window: w, Region: c.Region(w, crop)})
}

// CaptureFull captures the whole window, ignoring any crop.
func (c *Capturer) CaptureFull(ctx context.Context, w model.Window) (Result, error) {
	if !w.Usable() {
		return Result{}, werrors.NewWindowNotFound("window is hidden, minimized, or gone")
	}
	return c.chain.Capture(ctx, Request{Window: w, Region: w.Rect()})
}
