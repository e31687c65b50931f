//go:build windows

package windows

import (
	"errors"
	"fmt"
	"runtime"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/mj1618/wingman/internal/model"
)

// maxNodes bounds a single tree read.
const maxNodes = 5000

var (
	clsidCUIAutomation = windows.GUID{Data1: 0xff48dba4, Data2: 0x60ef, Data3: 0x4201, Data4: [8]byte{0xaa, 0x87, 0x54, 0x10, 0x3e, 0xef, 0x59, 0x4e}}
	iidIUIAutomation   = windows.GUID{Data1: 0x30cbe57d, Data2: 0xd9d0, Data3: 0x452a, Data4: [8]byte{0xab, 0x13, 0x7a, 0xc5, 0xac, 0x48, 0x25, 0xee}}
)

// vtable slots.
const (
	slotRelease = 2

	// IUIAutomation
	slotElementFromHandle    = 6
	slotGetControlViewWalker = 14

	// IUIAutomationTreeWalker
	slotGetFirstChildElement  = 4
	slotGetNextSiblingElement = 6

	// IUIAutomationElement
	slotCurrentControlType       = 21
	slotCurrentName              = 23
	slotCurrentBoundingRectangle = 43
)

// UIA reads accessibility trees through the UI Automation COM API.
type UIA struct{}

// NewUIA creates a UI Automation tree reader.
func NewUIA() *UIA { return &UIA{} }

// ReadTree walks the control view of the window, depth levels deep
// (0 = unlimited).
func (u *UIA) ReadTree(handle uintptr, depth int) (model.Element, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	hr, _, _ := procCoInitializeEx.Call(0, coinitApartment)
	switch uint32(hr) {
	case 0, sFalse:
		defer procCoUninitialize.Call()
	case rpcEChangedMode:
		// Already initialised as MTA on this thread; UIA works either way.
	default:
		return model.Element{}, fmt.Errorf("CoInitializeEx: %#x", uint32(hr))
	}

	var automation uintptr
	hr, _, _ = procCoCreateInstance.Call(
		uintptr(unsafe.Pointer(&clsidCUIAutomation)),
		0,
		clsctxInproc,
		uintptr(unsafe.Pointer(&iidIUIAutomation)),
		uintptr(unsafe.Pointer(&automation)),
	)
	if failed(hr) || automation == 0 {
		return model.Element{}, fmt.Errorf("creating CUIAutomation: %#x", uint32(hr))
	}
	defer release(automation)

	var root uintptr
	if hr := vcall(automation, slotElementFromHandle, handle, uintptr(unsafe.Pointer(&root))); failed(hr) || root == 0 {
		return model.Element{}, fmt.Errorf("ElementFromHandle %#x: %#x", handle, uint32(hr))
	}
	defer release(root)

	var walker uintptr
	if hr := vcall(automation, slotGetControlViewWalker, uintptr(unsafe.Pointer(&walker))); failed(hr) || walker == 0 {
		return model.Element{}, fmt.Errorf("ControlViewWalker: %#x", uint32(hr))
	}
	defer release(walker)

	t := &treeWalk{walker: walker, maxDepth: depth}
	el := t.node(root, 1)
	if t.count == 0 {
		return model.Element{}, errors.New("empty accessibility tree")
	}
	model.Renumber(&el)
	return el, nil
}

type treeWalk struct {
	walker   uintptr
	maxDepth int
	count    int
}

func (t *treeWalk) node(el uintptr, level int) model.Element {
	t.count++
	out := model.Element{
		Role:   model.MapControlType(controlType(el)),
		Title:  name(el),
		Bounds: bounds(el),
	}
	if t.maxDepth > 0 && level >= t.maxDepth {
		return out
	}

	var child uintptr
	if failed(vcall(t.walker, slotGetFirstChildElement, el, uintptr(unsafe.Pointer(&child)))) {
		return out
	}
	for child != 0 && t.count < maxNodes {
		out.Children = append(out.Children, t.node(child, level+1))
		var next uintptr
		hr := vcall(t.walker, slotGetNextSiblingElement, child, uintptr(unsafe.Pointer(&next)))
		release(child)
		if failed(hr) {
			break
		}
		child = next
	}
	if child != 0 {
		release(child)
	}
	return out
}

func controlType(el uintptr) int {
	var id int32
	if failed(vcall(el, slotCurrentControlType, uintptr(unsafe.Pointer(&id)))) {
		return 0
	}
	return int(id)
}

func name(el uintptr) string {
	var bstr *uint16
	if failed(vcall(el, slotCurrentName, uintptr(unsafe.Pointer(&bstr)))) || bstr == nil {
		return ""
	}
	defer procSysFreeString.Call(uintptr(unsafe.Pointer(bstr)))
	return windows.UTF16PtrToString(bstr)
}

func bounds(el uintptr) [4]int {
	var r rect
	if failed(vcall(el, slotCurrentBoundingRectangle, uintptr(unsafe.Pointer(&r)))) {
		return [4]int{}
	}
	return [4]int{int(r.Left), int(r.Top), int(r.Right - r.Left), int(r.Bottom - r.Top)}
}

// vcall invokes vtable slot on a COM object and returns the HRESULT.
func vcall(obj uintptr, slot int, args ...uintptr) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(obj))
	fn := *(*uintptr)(unsafe.Pointer(vtbl + uintptr(slot)*unsafe.Sizeof(uintptr(0))))
	hr, _, _ := syscall.SyscallN(fn, append([]uintptr{obj}, args...)...)
	return hr
}

func release(obj uintptr) {
	if obj != 0 {
		vcall(obj, slotRelease)
	}
}

func failed(hr uintptr) bool { return int32(uint32(hr)) < 0 }
