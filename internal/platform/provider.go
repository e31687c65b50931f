package platform

import (
	"fmt"
	"runtime"
)

// Provider bundles all platform backends for the current OS. Backends that
// the OS cannot offer are left nil.
type Provider struct {
	Windows  WindowLister
	Tree     TreeReader
	Displays DisplayLister
	Output   OutputGrabber
	Screen   ScreenGrabber
	Focus    Focuser
	Input    Inputter
	Pointer  PointerWatcher
}

// ErrUnsupported is returned on unsupported platforms.
var ErrUnsupported = fmt.Errorf("wingman is not supported on %s/%s; supported: windows, darwin", runtime.GOOS, runtime.GOARCH)

// NewProviderFunc is set by platform-specific packages via init().
// See internal/platform/windows/init.go for the Windows registration.
var NewProviderFunc func() (*Provider, error)

// RequestPermissionsFunc is set by platform-specific packages via init().
// It triggers OS permission prompts (e.g. screen recording) at startup.
var RequestPermissionsFunc func()

// NewProvider returns a Provider for the current OS.
func NewProvider() (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc()
}
