package platform

import (
	"context"
	"image"

	"github.com/mj1618/wingman/internal/model"
)

// WindowLister enumerates top-level windows.
type WindowLister interface {
	// ListWindows returns every top-level window, visible or not.
	ListWindows() ([]model.Window, error)

	// Window looks up a single window by handle. ok is false when the handle
	// no longer refers to a window.
	Window(handle uintptr) (model.Window, bool)

	// FindByTitle returns the window whose title matches exactly.
	FindByTitle(title string) (model.Window, bool)
}

// TreeReader reads the accessibility tree of a window.
type TreeReader interface {
	// ReadTree returns the element tree rooted at the window, traversing at
	// most depth levels with the window as level 1 (0 = unlimited).
	ReadTree(handle uintptr, depth int) (model.Element, error)
}

// DisplayLister reports attached monitors.
type DisplayLister interface {
	Monitors() ([]model.Monitor, error)

	// MonitorFor returns the index of the monitor showing most of the window.
	MonitorFor(handle uintptr) (int, error)
}

// OutputGrabber captures a rectangle from one display output. rect is
// relative to the origin of that output.
type OutputGrabber interface {
	GrabOutput(output int, rect image.Rectangle) (image.Image, error)
}

// ScreenGrabber captures a rectangle of the virtual desktop in screen
// coordinates.
type ScreenGrabber interface {
	GrabScreen(rect image.Rectangle) (image.Image, error)
}

// Focuser brings windows to the foreground. Each method is one step of the
// focus fallback chain; the chain itself lives in internal/input.
type Focuser interface {
	ForegroundWindow() uintptr
	Restore(handle uintptr) error
	SetForeground(handle uintptr) bool
	// ModifierTrick taps a modifier key to unlock foreground changes, then
	// retries SetForeground.
	ModifierTrick(handle uintptr) bool
	// AttachAndActivate attaches to the foreground thread's input queue,
	// activates the window, and detaches.
	AttachAndActivate(handle uintptr) error
}

// Inputter synthesises mouse and keyboard input.
type Inputter interface {
	Click(x, y int) error
	TypeRune(r rune) error
	PressEnter() error
}

// PointerWatcher observes the mouse for calibration.
type PointerWatcher interface {
	// WaitForClick blocks until the left button is pressed and released,
	// returning the screen position, or until ctx is done.
	WaitForClick(ctx context.Context) (image.Point, error)

	// ClientArea returns the client rectangle of a window in screen
	// coordinates.
	ClientArea(handle uintptr) (image.Rectangle, error)
}
