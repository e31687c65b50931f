//go:build darwin && cgo

package darwin

/*
#cgo LDFLAGS: -framework CoreGraphics
#include <CoreGraphics/CoreGraphics.h>

typedef struct {
    int x, y, w, h;
    int pixel_width;
    int main;
} DispInfo;

static int list_displays(DispInfo *out, int max) {
    CGDirectDisplayID ids[16];
    uint32_t n = 0;
    if (CGGetActiveDisplayList(16, ids, &n) != kCGErrorSuccess) return -1;
    int count = 0;
    for (uint32_t i = 0; i < n && count < max; i++) {
        CGRect b = CGDisplayBounds(ids[i]);
        DispInfo *d = &out[count++];
        d->x = (int)b.origin.x;
        d->y = (int)b.origin.y;
        d->w = (int)b.size.width;
        d->h = (int)b.size.height;
        d->pixel_width = d->w;
        CGDisplayModeRef mode = CGDisplayCopyDisplayMode(ids[i]);
        if (mode) {
            d->pixel_width = (int)CGDisplayModeGetPixelWidth(mode);
            CGDisplayModeRelease(mode);
        }
        d->main = CGDisplayIsMain(ids[i]);
    }
    return count;
}
*/
import "C"
import (
	"fmt"
	"image"

	"github.com/mj1618/wingman/internal/model"
)

// Displays reports monitors through CGGetActiveDisplayList. Bounds are in
// points; the backing scale is reported as the monitor scale.
type Displays struct{}

// NewDisplays creates a display lister.
func NewDisplays() *Displays { return &Displays{} }

// Monitors returns every active display, main display first as the OS
// orders them.
func (d *Displays) Monitors() ([]model.Monitor, error) {
	buf := make([]C.DispInfo, 16)
	n := int(C.list_displays(&buf[0], C.int(len(buf))))
	if n < 0 {
		return nil, fmt.Errorf("CGGetActiveDisplayList failed")
	}
	out := make([]model.Monitor, 0, n)
	for i, di := range buf[:n] {
		m := model.Monitor{
			Index:   i,
			Bounds:  [4]int{int(di.x), int(di.y), int(di.w), int(di.h)},
			Primary: di.main != 0,
		}
		if di.w > 0 {
			m.DPIX = 96 * int(di.pixel_width) / int(di.w)
		}
		m.DPIY = m.DPIX
		m.Scale = model.ScaleFor(m.DPIX)
		out = append(out, m)
	}
	return out, nil
}

// MonitorFor returns the display containing the centre of the window.
func (d *Displays) MonitorFor(handle uintptr) (int, error) {
	wins, err := listWindows(uint32(handle), false)
	if err != nil {
		return 0, err
	}
	if len(wins) == 0 {
		return 0, fmt.Errorf("window %d no longer exists", handle)
	}
	monitors, err := d.Monitors()
	if err != nil {
		return 0, err
	}
	r := wins[0].Rect()
	centre := image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
	for i, m := range monitors {
		if centre.In(m.Rect()) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("window %d is not on any display", handle)
}
