//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework CoreGraphics -framework Foundation
#import <AppKit/AppKit.h>
#include <CoreGraphics/CoreGraphics.h>

static int frontmost_pid() {
    @autoreleasepool {
        NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
        return app ? app.processIdentifier : 0;
    }
}

static int activate_pid(int pid, int all) {
    @autoreleasepool {
        NSRunningApplication *app = [NSRunningApplication runningApplicationWithProcessIdentifier:pid];
        if (!app) return 0;
        NSApplicationActivationOptions opts = NSApplicationActivateIgnoringOtherApps;
        if (all) opts |= NSApplicationActivateAllWindows;
        return [app activateWithOptions:opts] ? 1 : 0;
    }
}

static int unhide_pid(int pid) {
    @autoreleasepool {
        NSRunningApplication *app = [NSRunningApplication runningApplicationWithProcessIdentifier:pid];
        if (!app) return 0;
        return [app unhide] ? 1 : 0;
    }
}

static int cg_click(float x, float y) {
    CGPoint point = CGPointMake(x, y);
    CGEventRef move = CGEventCreateMouseEvent(NULL, kCGEventMouseMoved, point, kCGMouseButtonLeft);
    CGEventRef down = CGEventCreateMouseEvent(NULL, kCGEventLeftMouseDown, point, kCGMouseButtonLeft);
    CGEventRef up = CGEventCreateMouseEvent(NULL, kCGEventLeftMouseUp, point, kCGMouseButtonLeft);
    if (!move || !down || !up) {
        if (move) CFRelease(move);
        if (down) CFRelease(down);
        if (up) CFRelease(up);
        return -1;
    }
    CGEventPost(kCGHIDEventTap, move);
    CGEventPost(kCGHIDEventTap, down);
    CGEventPost(kCGHIDEventTap, up);
    CFRelease(move);
    CFRelease(down);
    CFRelease(up);
    return 0;
}

// Type one character given as one or two UTF-16 units.
static int cg_type_units(UniChar *units, int n) {
    CGEventRef keyDown = CGEventCreateKeyboardEvent(NULL, 0, true);
    CGEventRef keyUp = CGEventCreateKeyboardEvent(NULL, 0, false);
    if (!keyDown || !keyUp) {
        if (keyDown) CFRelease(keyDown);
        if (keyUp) CFRelease(keyUp);
        return -1;
    }
    CGEventKeyboardSetUnicodeString(keyDown, n, units);
    CGEventKeyboardSetUnicodeString(keyUp, n, units);
    CGEventPost(kCGHIDEventTap, keyDown);
    CGEventPost(kCGHIDEventTap, keyUp);
    CFRelease(keyDown);
    CFRelease(keyUp);
    return 0;
}

static int cg_key(CGKeyCode code) {
    CGEventRef keyDown = CGEventCreateKeyboardEvent(NULL, code, true);
    CGEventRef keyUp = CGEventCreateKeyboardEvent(NULL, code, false);
    if (!keyDown || !keyUp) {
        if (keyDown) CFRelease(keyDown);
        if (keyUp) CFRelease(keyUp);
        return -1;
    }
    CGEventPost(kCGHIDEventTap, keyDown);
    CGEventPost(kCGHIDEventTap, keyUp);
    CFRelease(keyDown);
    CFRelease(keyUp);
    return 0;
}
*/
import "C"
import (
	"fmt"
	"unicode/utf16"
)

// kVK_Return from Carbon Events.h.
const keyReturn = 0x24

// Desktop implements focus with NSRunningApplication and input with
// CGEvent. Window handles are CGWindowIDs.
type Desktop struct{}

// NewDesktop creates a focus and input backend.
func NewDesktop() *Desktop { return &Desktop{} }

// ForegroundWindow returns the frontmost normal window of the frontmost
// application, or 0.
func (d *Desktop) ForegroundWindow() uintptr {
	pid := int(C.frontmost_pid())
	if pid == 0 {
		return 0
	}
	wins, err := listWindows(0, true)
	if err != nil {
		return 0
	}
	for _, w := range wins {
		if w.PID == pid && !w.ToolWindow {
			return w.Handle
		}
	}
	return 0
}

// Restore unhides the owning application.
func (d *Desktop) Restore(handle uintptr) error {
	pid, err := ownerPID(handle)
	if err != nil {
		return err
	}
	C.unhide_pid(C.int(pid))
	return nil
}

// SetForeground activates the owning application.
func (d *Desktop) SetForeground(handle uintptr) bool {
	pid, err := ownerPID(handle)
	if err != nil {
		return false
	}
	return C.activate_pid(C.int(pid), 0) != 0
}

// ModifierTrick unhides the application before activating it again; macOS
// has no foreground lock for a modifier tap to lift.
func (d *Desktop) ModifierTrick(handle uintptr) bool {
	pid, err := ownerPID(handle)
	if err != nil {
		return false
	}
	C.unhide_pid(C.int(pid))
	return C.activate_pid(C.int(pid), 0) != 0
}

// AttachAndActivate brings every window of the application forward.
func (d *Desktop) AttachAndActivate(handle uintptr) error {
	pid, err := ownerPID(handle)
	if err != nil {
		return err
	}
	if C.activate_pid(C.int(pid), 1) == 0 {
		return fmt.Errorf("activating pid %d refused", pid)
	}
	return nil
}

// Click clicks the left button at (x, y) in screen points.
func (d *Desktop) Click(x, y int) error {
	if err := CheckAccessibilityPermission(); err != nil {
		return err
	}
	if C.cg_click(C.float(x), C.float(y)) != 0 {
		return fmt.Errorf("failed to click at (%d, %d)", x, y)
	}
	return nil
}

// TypeRune posts r as a Unicode key event.
func (d *Desktop) TypeRune(r rune) error {
	units := utf16.Encode([]rune{r})
	cu := make([]C.UniChar, len(units))
	for i, u := range units {
		cu[i] = C.UniChar(u)
	}
	if C.cg_type_units(&cu[0], C.int(len(cu))) != 0 {
		return fmt.Errorf("failed to type %q", r)
	}
	return nil
}

// PressEnter taps Return.
func (d *Desktop) PressEnter() error {
	if C.cg_key(C.CGKeyCode(keyReturn)) != 0 {
		return fmt.Errorf("failed to press return")
	}
	return nil
}

func ownerPID(handle uintptr) (int, error) {
	wins, err := listWindows(uint32(handle), false)
	if err != nil {
		return 0, err
	}
	if len(wins) == 0 {
		return 0, fmt.Errorf("window %d no longer exists", handle)
	}
	return wins[0].PID, nil
}
