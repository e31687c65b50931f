//go:build windows

// Package windows implements the platform backends on Win32: window
// enumeration, DXGI and GDI capture, SendInput, and UI Automation.
package windows

import (
	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")
	gdi32    = windows.NewLazySystemDLL("gdi32.dll")
	shcore   = windows.NewLazySystemDLL("shcore.dll")
	ole32    = windows.NewLazySystemDLL("ole32.dll")
	oleaut32 = windows.NewLazySystemDLL("oleaut32.dll")
	dxgi     = windows.NewLazySystemDLL("dxgi.dll")
	d3d11    = windows.NewLazySystemDLL("d3d11.dll")

	procEnumWindows                   = user32.NewProc("EnumWindows")
	procIsWindow                      = user32.NewProc("IsWindow")
	procIsWindowVisible               = user32.NewProc("IsWindowVisible")
	procIsIconic                      = user32.NewProc("IsIconic")
	procGetWindowTextW                = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW          = user32.NewProc("GetWindowTextLengthW")
	procGetClassNameW                 = user32.NewProc("GetClassNameW")
	procGetWindowRect                 = user32.NewProc("GetWindowRect")
	procGetClientRect                 = user32.NewProc("GetClientRect")
	procClientToScreen                = user32.NewProc("ClientToScreen")
	procGetWindowLongPtrW             = user32.NewProc("GetWindowLongPtrW")
	procGetWindowThreadProcessId      = user32.NewProc("GetWindowThreadProcessId")
	procGetForegroundWindow           = user32.NewProc("GetForegroundWindow")
	procSetForegroundWindow           = user32.NewProc("SetForegroundWindow")
	procShowWindow                    = user32.NewProc("ShowWindow")
	procBringWindowToTop              = user32.NewProc("BringWindowToTop")
	procSetActiveWindow               = user32.NewProc("SetActiveWindow")
	procSetFocus                      = user32.NewProc("SetFocus")
	procAttachThreadInput             = user32.NewProc("AttachThreadInput")
	procSendInput                     = user32.NewProc("SendInput")
	procSetCursorPos                  = user32.NewProc("SetCursorPos")
	procGetCursorPos                  = user32.NewProc("GetCursorPos")
	procGetAsyncKeyState              = user32.NewProc("GetAsyncKeyState")
	procEnumDisplayMonitors           = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW               = user32.NewProc("GetMonitorInfoW")
	procMonitorFromWindow             = user32.NewProc("MonitorFromWindow")
	procGetDC                         = user32.NewProc("GetDC")
	procReleaseDC                     = user32.NewProc("ReleaseDC")
	procSetProcessDpiAwarenessContext = user32.NewProc("SetProcessDpiAwarenessContext")

	procQueryFullProcessImageNameW = kernel32.NewProc("QueryFullProcessImageNameW")

	procDeleteDC               = gdi32.NewProc("DeleteDC")
	procCreateCompatibleDC     = gdi32.NewProc("CreateCompatibleDC")
	procCreateCompatibleBitmap = gdi32.NewProc("CreateCompatibleBitmap")
	procSelectObject           = gdi32.NewProc("SelectObject")
	procDeleteObject           = gdi32.NewProc("DeleteObject")
	procBitBlt                 = gdi32.NewProc("BitBlt")
	procGetDIBits              = gdi32.NewProc("GetDIBits")

	procGetDpiForMonitor = shcore.NewProc("GetDpiForMonitor")

	procCoInitializeEx   = ole32.NewProc("CoInitializeEx")
	procCoUninitialize   = ole32.NewProc("CoUninitialize")
	procCoCreateInstance = ole32.NewProc("CoCreateInstance")
	procSysFreeString    = oleaut32.NewProc("SysFreeString")

	procCreateDXGIFactory1 = dxgi.NewProc("CreateDXGIFactory1")
	procD3D11CreateDevice  = d3d11.NewProc("D3D11CreateDevice")
)

const (
	gwlExStyle        = -20
	wsExToolWindow    = 0x00000080
	swRestore         = 9
	monitorNearest    = 2
	mdtEffectiveDPI   = 0
	srcCopy           = 0x00CC0020
	captureBlt        = 0x40000000
	dibRGBColors      = 0
	biRGB             = 0
	processQueryLimit = 0x1000
	inputMouse        = 0
	inputKeyboard     = 1
	keyeventfKeyUp    = 0x0002
	keyeventfUnicode  = 0x0004
	mouseeventfLDown  = 0x0002
	mouseeventfLUp    = 0x0004
	vkLButton         = 0x01
	vkReturn          = 0x0D
	vkMenu            = 0x12
	asyncKeyDownBit   = 0x8000
	dpiAwarePerMonV2  = -4
	coinitApartment   = 0x2
	clsctxInproc      = 0x1
	rpcEChangedMode   = 0x80010106
	sFalse            = 0x1
)

type rect struct {
	Left, Top, Right, Bottom int32
}

type point struct {
	X, Y int32
}

type monitorInfoEx struct {
	CbSize    uint32
	RcMonitor rect
	RcWork    rect
	DwFlags   uint32
	SzDevice  [32]uint16
}

type bitmapInfoHeader struct {
	BiSize          uint32
	BiWidth         int32
	BiHeight        int32
	BiPlanes        uint16
	BiBitCount      uint16
	BiCompression   uint32
	BiSizeImage     uint32
	BiXPelsPerMeter int32
	BiYPelsPerMeter int32
	BiClrUsed       uint32
	BiClrImportant  uint32
}

// bitmapInfo carries one unused palette entry, as BITMAPINFO does.
type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [1]uint32
}

type keyboardInput struct {
	WVK         uint16
	WScan       uint16
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type mouseInput struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

// keyInput and mouseEvent mirror INPUT for each union member; both are 40
// bytes on amd64 and arm64.
type keyInput struct {
	Type  uint32
	_pad1 uint32
	Ki    keyboardInput
	_pad2 uint64
}

type mouseEvent struct {
	Type  uint32
	_pad1 uint32
	Mi    mouseInput
}
