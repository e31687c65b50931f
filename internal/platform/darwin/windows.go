//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation
#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>
#include <string.h>

typedef struct {
    unsigned int id;
    int pid;
    int layer;
    int onscreen;
    int x, y, w, h;
    char owner[256];
    char title[512];
} WinInfo;

static int dict_int(CFDictionaryRef d, CFStringRef key) {
    CFNumberRef n = CFDictionaryGetValue(d, key);
    int v = 0;
    if (n) CFNumberGetValue(n, kCFNumberIntType, &v);
    return v;
}

static void dict_str(CFDictionaryRef d, CFStringRef key, char *buf, int len) {
    CFStringRef s = CFDictionaryGetValue(d, key);
    buf[0] = 0;
    if (s) CFStringGetCString(s, buf, len, kCFStringEncodingUTF8);
}

// list_windows fills out front to back. With only != 0 just that window is
// described; with onscreen != 0 only visible windows are listed.
static int list_windows(WinInfo *out, int max, unsigned int only, int onscreen) {
    CFArrayRef arr;
    if (only) {
        arr = CGWindowListCopyWindowInfo(kCGWindowListOptionIncludingWindow, only);
    } else if (onscreen) {
        arr = CGWindowListCopyWindowInfo(kCGWindowListOptionOnScreenOnly | kCGWindowListExcludeDesktopElements, kCGNullWindowID);
    } else {
        arr = CGWindowListCopyWindowInfo(kCGWindowListOptionAll | kCGWindowListExcludeDesktopElements, kCGNullWindowID);
    }
    if (!arr) return -1;

    int n = 0;
    CFIndex count = CFArrayGetCount(arr);
    for (CFIndex i = 0; i < count && n < max; i++) {
        CFDictionaryRef d = CFArrayGetValueAtIndex(arr, i);
        WinInfo *w = &out[n++];
        memset(w, 0, sizeof(WinInfo));
        w->id = (unsigned int)dict_int(d, kCGWindowNumber);
        w->pid = dict_int(d, kCGWindowOwnerPID);
        w->layer = dict_int(d, kCGWindowLayer);
        CFBooleanRef on = CFDictionaryGetValue(d, kCGWindowIsOnscreen);
        w->onscreen = on && CFBooleanGetValue(on);
        CFDictionaryRef b = CFDictionaryGetValue(d, kCGWindowBounds);
        CGRect r;
        if (b && CGRectMakeWithDictionaryRepresentation(b, &r)) {
            w->x = (int)r.origin.x;
            w->y = (int)r.origin.y;
            w->w = (int)r.size.width;
            w->h = (int)r.size.height;
        }
        dict_str(d, kCGWindowOwnerName, w->owner, sizeof(w->owner));
        dict_str(d, kCGWindowName, w->title, sizeof(w->title));
    }
    CFRelease(arr);
    return n;
}
*/
import "C"
import (
	"fmt"

	"github.com/mj1618/wingman/internal/model"
)

const maxWindows = 1024

// WindowList enumerates windows through CGWindowListCopyWindowInfo.
type WindowList struct{}

// NewWindowList creates a window lister.
func NewWindowList() *WindowList { return &WindowList{} }

// ListWindows returns every window front to back. Window titles are empty
// unless the process has screen recording permission.
func (l *WindowList) ListWindows() ([]model.Window, error) {
	return listWindows(0, false)
}

// Window describes a single window id.
func (l *WindowList) Window(handle uintptr) (model.Window, bool) {
	wins, err := listWindows(uint32(handle), false)
	if err != nil || len(wins) == 0 {
		return model.Window{}, false
	}
	return wins[0], true
}

// FindByTitle returns the frontmost window whose title equals title.
func (l *WindowList) FindByTitle(title string) (model.Window, bool) {
	wins, err := listWindows(0, false)
	if err != nil {
		return model.Window{}, false
	}
	for _, w := range wins {
		if w.Title == title {
			return w, true
		}
	}
	return model.Window{}, false
}

func listWindows(only uint32, onscreen bool) ([]model.Window, error) {
	buf := make([]C.WinInfo, maxWindows)
	on := C.int(0)
	if onscreen {
		on = 1
	}
	n := int(C.list_windows(&buf[0], C.int(len(buf)), C.uint(only), on))
	if n < 0 {
		return nil, fmt.Errorf("CGWindowListCopyWindowInfo failed")
	}
	out := make([]model.Window, 0, n)
	for _, w := range buf[:n] {
		owner := C.GoString(&w.owner[0])
		out = append(out, model.Window{
			Handle:  uintptr(w.id),
			PID:     int(w.pid),
			Process: owner,
			Title:   C.GoString(&w.title[0]),
			// macOS has no window classes; the owning app stands in.
			Class:      owner,
			Bounds:     [4]int{int(w.x), int(w.y), int(w.w), int(w.h)},
			Visible:    w.onscreen != 0,
			ToolWindow: w.layer != 0,
		})
	}
	return out, nil
}
