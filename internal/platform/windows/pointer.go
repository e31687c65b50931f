//go:build windows

package windows

import (
	"context"
	"fmt"
	"image"
	"time"
	"unsafe"
)

const pollInterval = 15 * time.Millisecond

// Pointer watches the mouse with GetAsyncKeyState polling.
type Pointer struct{}

// NewPointer creates a pointer watcher.
func NewPointer() *Pointer { return &Pointer{} }

// WaitForClick waits for a full left-button press and release and returns
// the cursor position at release.
func (p *Pointer) WaitForClick(ctx context.Context) (image.Point, error) {
	// A button still held from launching the command does not count.
	if err := waitButton(ctx, false); err != nil {
		return image.Point{}, err
	}
	if err := waitButton(ctx, true); err != nil {
		return image.Point{}, err
	}
	if err := waitButton(ctx, false); err != nil {
		return image.Point{}, err
	}
	var pt point
	if r, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt))); r == 0 {
		return image.Point{}, fmt.Errorf("GetCursorPos: %w", err)
	}
	return image.Pt(int(pt.X), int(pt.Y)), nil
}

func waitButton(ctx context.Context, down bool) error {
	for {
		state, _, _ := procGetAsyncKeyState.Call(vkLButton)
		if (state&asyncKeyDownBit != 0) == down {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// ClientArea returns the client rectangle of the window in screen
// coordinates.
func (p *Pointer) ClientArea(handle uintptr) (image.Rectangle, error) {
	var r rect
	if ok, _, err := procGetClientRect.Call(handle, uintptr(unsafe.Pointer(&r))); ok == 0 {
		return image.Rectangle{}, fmt.Errorf("GetClientRect: %w", err)
	}
	var origin point
	if ok, _, err := procClientToScreen.Call(handle, uintptr(unsafe.Pointer(&origin))); ok == 0 {
		return image.Rectangle{}, fmt.Errorf("ClientToScreen: %w", err)
	}
	return image.Rect(int(origin.X), int(origin.Y), int(origin.X+r.Right), int(origin.Y+r.Bottom)), nil
}
