//go:build windows

package windows

import (
	"github.com/mj1618/wingman/internal/platform"
)

func init() {
	platform.NewProviderFunc = func() (*platform.Provider, error) {
		// Physical pixels everywhere, so window bounds, capture rectangles
		// and cursor positions share one coordinate space.
		if procSetProcessDpiAwarenessContext.Find() == nil {
			ctx := int64(dpiAwarePerMonV2)
			procSetProcessDpiAwarenessContext.Call(uintptr(ctx))
		}
		desktop := NewDesktop()
		return &platform.Provider{
			Windows:  NewWindowList(),
			Tree:     NewUIA(),
			Displays: NewDisplays(),
			Output:   NewDuplicator(),
			Screen:   NewGrabber(),
			Focus:    desktop,
			Input:    desktop,
			Pointer:  NewPointer(),
		}, nil
	}
}
