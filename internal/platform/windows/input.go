//go:build windows

package windows

import (
	"errors"
	"fmt"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Desktop implements focus and synthetic input with user32.
type Desktop struct{}

// NewDesktop creates a focus and input backend.
func NewDesktop() *Desktop { return &Desktop{} }

// ForegroundWindow returns the current foreground window handle.
func (d *Desktop) ForegroundWindow() uintptr {
	h, _, _ := procGetForegroundWindow.Call()
	return h
}

// Restore un-minimizes the window.
func (d *Desktop) Restore(handle uintptr) error {
	procShowWindow.Call(handle, swRestore)
	return nil
}

// SetForeground asks the shell to bring the window forward. Windows may
// refuse when the calling process is not in the foreground.
func (d *Desktop) SetForeground(handle uintptr) bool {
	r, _, _ := procSetForegroundWindow.Call(handle)
	return r != 0
}

// ModifierTrick taps Alt, which lifts the foreground lock, and retries.
func (d *Desktop) ModifierTrick(handle uintptr) bool {
	if err := pressVK(vkMenu, true); err != nil {
		return false
	}
	if err := pressVK(vkMenu, false); err != nil {
		return false
	}
	return d.SetForeground(handle)
}

// AttachAndActivate joins the foreground thread's input queue so the
// activation calls are honoured, then detaches.
func (d *Desktop) AttachAndActivate(handle uintptr) error {
	fg := d.ForegroundWindow()
	fgThread, _, _ := procGetWindowThreadProcessId.Call(fg, 0)
	self := uintptr(windows.GetCurrentThreadId())
	if fgThread == 0 || fgThread == self {
		procBringWindowToTop.Call(handle)
		if !d.SetForeground(handle) {
			return errors.New("SetForegroundWindow refused")
		}
		return nil
	}
	if r, _, err := procAttachThreadInput.Call(self, fgThread, 1); r == 0 {
		return fmt.Errorf("AttachThreadInput: %w", err)
	}
	defer procAttachThreadInput.Call(self, fgThread, 0)

	procBringWindowToTop.Call(handle)
	procSetForegroundWindow.Call(handle)
	procSetActiveWindow.Call(handle)
	procSetFocus.Call(handle)
	return nil
}

// Click moves the cursor to (x, y) and clicks the left button.
func (d *Desktop) Click(x, y int) error {
	if r, _, err := procSetCursorPos.Call(uintptr(int32(x)), uintptr(int32(y))); r == 0 {
		return fmt.Errorf("SetCursorPos: %w", err)
	}
	down := mouseEvent{Type: inputMouse, Mi: mouseInput{DwFlags: mouseeventfLDown}}
	up := mouseEvent{Type: inputMouse, Mi: mouseInput{DwFlags: mouseeventfLUp}}
	events := []mouseEvent{down, up}
	return sendInput(uintptr(len(events)), unsafe.Pointer(&events[0]), unsafe.Sizeof(down))
}

// TypeRune sends r as Unicode key events, one pair per UTF-16 unit.
func (d *Desktop) TypeRune(r rune) error {
	units := utf16.Encode([]rune{r})
	events := make([]keyInput, 0, 2*len(units))
	for _, u := range units {
		events = append(events,
			keyInput{Type: inputKeyboard, Ki: keyboardInput{WScan: u, DwFlags: keyeventfUnicode}},
			keyInput{Type: inputKeyboard, Ki: keyboardInput{WScan: u, DwFlags: keyeventfUnicode | keyeventfKeyUp}},
		)
	}
	return sendInput(uintptr(len(events)), unsafe.Pointer(&events[0]), unsafe.Sizeof(keyInput{}))
}

// PressEnter taps the Return key.
func (d *Desktop) PressEnter() error {
	if err := pressVK(vkReturn, true); err != nil {
		return err
	}
	return pressVK(vkReturn, false)
}

func pressVK(vk uint16, down bool) error {
	flags := uint32(0)
	if !down {
		flags = keyeventfKeyUp
	}
	in := keyInput{Type: inputKeyboard, Ki: keyboardInput{WVK: vk, DwFlags: flags}}
	return sendInput(1, unsafe.Pointer(&in), unsafe.Sizeof(in))
}

func sendInput(n uintptr, first unsafe.Pointer, size uintptr) error {
	sent, _, err := procSendInput.Call(n, uintptr(first), size)
	if sent != n {
		return fmt.Errorf("SendInput delivered %d of %d events: %w", sent, n, err)
	}
	return nil
}
