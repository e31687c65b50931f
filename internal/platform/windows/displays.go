//go:build windows

package windows

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/mj1618/wingman/internal/model"
)

const monitorInfoFPrimary = 0x1

// Displays reports monitors through EnumDisplayMonitors.
type Displays struct{}

// NewDisplays creates a display lister.
func NewDisplays() *Displays { return &Displays{} }

type monitorEntry struct {
	handle uintptr
	info   monitorInfoEx
}

func enumMonitors() ([]monitorEntry, error) {
	var out []monitorEntry
	cb := windows.NewCallback(func(hmon, hdc, lprc, data uintptr) uintptr {
		e := monitorEntry{handle: hmon}
		e.info.CbSize = uint32(unsafe.Sizeof(e.info))
		if r, _, _ := procGetMonitorInfoW.Call(hmon, uintptr(unsafe.Pointer(&e.info))); r != 0 {
			out = append(out, e)
		}
		return 1
	})
	if r, _, err := procEnumDisplayMonitors.Call(0, 0, cb, 0); r == 0 {
		return nil, fmt.Errorf("EnumDisplayMonitors: %w", err)
	}
	return out, nil
}

// Monitors returns every attached monitor in enumeration order.
func (d *Displays) Monitors() ([]model.Monitor, error) {
	entries, err := enumMonitors()
	if err != nil {
		return nil, err
	}
	out := make([]model.Monitor, 0, len(entries))
	for i, e := range entries {
		r := e.info.RcMonitor
		m := model.Monitor{
			Index:   i,
			Bounds:  [4]int{int(r.Left), int(r.Top), int(r.Right - r.Left), int(r.Bottom - r.Top)},
			Primary: e.info.DwFlags&monitorInfoFPrimary != 0,
		}
		m.DPIX, m.DPIY = monitorDPI(e.handle)
		m.Scale = model.ScaleFor(m.DPIX)
		out = append(out, m)
	}
	return out, nil
}

// MonitorFor returns the index of the monitor nearest to the window.
func (d *Displays) MonitorFor(handle uintptr) (int, error) {
	hmon, _, _ := procMonitorFromWindow.Call(handle, monitorNearest)
	entries, err := enumMonitors()
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		if e.handle == hmon {
			return i, nil
		}
	}
	return 0, fmt.Errorf("window %#x is not on any monitor", handle)
}

func monitorDPI(hmon uintptr) (int, int) {
	if procGetDpiForMonitor.Find() != nil {
		return 96, 96
	}
	var x, y uint32
	if r, _, _ := procGetDpiForMonitor.Call(hmon, mdtEffectiveDPI, uintptr(unsafe.Pointer(&x)), uintptr(unsafe.Pointer(&y))); r != 0 {
		return 96, 96
	}
	return int(x), int(y)
}
