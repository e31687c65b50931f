//go:build windows

package windows

import (
	"path/filepath"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/mj1618/wingman/internal/model"
)

// WindowList enumerates top-level windows with EnumWindows.
type WindowList struct{}

// NewWindowList creates a window lister.
func NewWindowList() *WindowList { return &WindowList{} }

// ListWindows returns every top-level window in z-order.
func (l *WindowList) ListWindows() ([]model.Window, error) {
	var handles []uintptr
	cb := windows.NewCallback(func(h uintptr, _ uintptr) uintptr {
		handles = append(handles, h)
		return 1
	})
	if r, _, err := procEnumWindows.Call(cb, 0); r == 0 {
		return nil, err
	}
	out := make([]model.Window, 0, len(handles))
	for _, h := range handles {
		out = append(out, describe(h))
	}
	return out, nil
}

// Window describes a single handle.
func (l *WindowList) Window(handle uintptr) (model.Window, bool) {
	if r, _, _ := procIsWindow.Call(handle); r == 0 {
		return model.Window{}, false
	}
	return describe(handle), true
}

// FindByTitle returns the first window whose title equals title.
func (l *WindowList) FindByTitle(title string) (model.Window, bool) {
	wins, err := l.ListWindows()
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

func describe(h uintptr) model.Window {
	w := model.Window{
		Handle: h,
		Title:  strings.TrimSpace(windowText(h)),
		Class:  className(h),
	}
	var pid uint32
	procGetWindowThreadProcessId.Call(h, uintptr(unsafe.Pointer(&pid)))
	w.PID = int(pid)
	w.Process = processImage(pid)

	var r rect
	if ok, _, _ := procGetWindowRect.Call(h, uintptr(unsafe.Pointer(&r))); ok != 0 {
		w.Bounds = [4]int{int(r.Left), int(r.Top), int(r.Right - r.Left), int(r.Bottom - r.Top)}
	}
	vis, _, _ := procIsWindowVisible.Call(h)
	w.Visible = vis != 0
	icon, _, _ := procIsIconic.Call(h)
	w.Minimized = icon != 0

	idx := int32(gwlExStyle)
	ex, _, _ := procGetWindowLongPtrW.Call(h, uintptr(idx))
	w.ToolWindow = ex&wsExToolWindow != 0
	return w
}

func windowText(h uintptr) string {
	n, _, _ := procGetWindowTextLengthW.Call(h)
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	got, _, _ := procGetWindowTextW.Call(h, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf[:got])
}

func className(h uintptr) string {
	buf := make([]uint16, 256)
	got, _, _ := procGetClassNameW.Call(h, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf[:got])
}

// processImage returns the executable base name of pid, e.g.
// "PhoneExperienceHost.exe", or "" when the process cannot be opened.
func processImage(pid uint32) string {
	if pid == 0 {
		return ""
	}
	h, err := windows.OpenProcess(processQueryLimit, false, pid)
	if err != nil {
		return ""
	}
	defer windows.CloseHandle(h)

	buf := make([]uint16, 1024)
	size := uint32(len(buf))
	r, _, _ := procQueryFullProcessImageNameW.Call(
		uintptr(h),
		0,
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&size)),
	)
	if r == 0 || size == 0 {
		return ""
	}
	return filepath.Base(windows.UTF16ToString(buf[:size]))
}
