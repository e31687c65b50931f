//go:build darwin && cgo

package darwin

/*
#cgo LDFLAGS: -framework CoreGraphics
#include <CoreGraphics/CoreGraphics.h>

static int left_down() {
    return CGEventSourceButtonState(kCGEventSourceStateCombinedSessionState, kCGMouseButtonLeft);
}

static void cursor(double *x, double *y) {
    CGEventRef e = CGEventCreate(NULL);
    CGPoint p = CGEventGetLocation(e);
    CFRelease(e);
    *x = p.x;
    *y = p.y;
}
*/
import "C"
import (
	"context"
	"fmt"
	"image"
	"time"
)

const pollInterval = 15 * time.Millisecond

// Pointer polls the left mouse button state.
type Pointer struct{}

// NewPointer creates a pointer watcher.
func NewPointer() *Pointer { return &Pointer{} }

// WaitForClick waits for a press and release and returns the position at
// release, in screen points.
func (p *Pointer) WaitForClick(ctx context.Context) (image.Point, error) {
	for _, down := range []bool{false, true, false} {
		if err := waitButton(ctx, down); err != nil {
			return image.Point{}, err
		}
	}
	var x, y C.double
	C.cursor(&x, &y)
	return image.Pt(int(x), int(y)), nil
}

func waitButton(ctx context.Context, down bool) error {
	for {
		if (C.left_down() != 0) == down {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// ClientArea returns the window bounds; macOS windows have no separate
// client rectangle.
func (p *Pointer) ClientArea(handle uintptr) (image.Rectangle, error) {
	wins, err := listWindows(uint32(handle), false)
	if err != nil {
		return image.Rectangle{}, err
	}
	if len(wins) == 0 {
		return image.Rectangle{}, fmt.Errorf("window %d no longer exists", handle)
	}
	return wins[0].Rect(), nil
}
