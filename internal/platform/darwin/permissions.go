//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework CoreGraphics -framework Foundation
#include <ApplicationServices/ApplicationServices.h>
#include <CoreGraphics/CoreGraphics.h>

static int is_trusted() {
    return AXIsProcessTrusted();
}

static void prompt_trust() {
    const void *keys[] = { kAXTrustedCheckOptionPrompt };
    const void *values[] = { kCFBooleanTrue };
    CFDictionaryRef opts = CFDictionaryCreate(NULL, keys, values, 1,
        &kCFTypeDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
    AXIsProcessTrustedWithOptions(opts);
    CFRelease(opts);
}

static int can_record_screen() {
    return CGPreflightScreenCaptureAccess();
}

static void request_screen_recording() {
    CGRequestScreenCaptureAccess();
}
*/
import "C"
import "fmt"

// CheckAccessibilityPermission returns an error with instructions when the
// process may not post input events.
func CheckAccessibilityPermission() error {
	if C.is_trusted() == 0 {
		return fmt.Errorf(
			"accessibility permission required\n\n" +
				"Grant permission at: System Settings > Privacy & Security > Accessibility\n" +
				"Add your terminal app (e.g. Terminal.app, iTerm2, or the IDE running wingman).\n" +
				"Then restart the terminal and try again.")
	}
	return nil
}

// CheckScreenRecordingPermission returns an error with instructions when
// captures would come back blank.
func CheckScreenRecordingPermission() error {
	if C.can_record_screen() == 0 {
		return fmt.Errorf(
			"screen recording permission required\n\n" +
				"Grant permission at: System Settings > Privacy & Security > Screen Recording\n" +
				"Then restart the terminal and try again.")
	}
	return nil
}

// RequestPermissions shows the system prompts for any missing permission.
func RequestPermissions() {
	if C.is_trusted() == 0 {
		C.prompt_trust()
	}
	if C.can_record_screen() == 0 {
		C.request_screen_recording()
	}
}
