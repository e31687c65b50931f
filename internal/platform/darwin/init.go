//go:build darwin && cgo

package darwin

import "github.com/mj1618/wingman/internal/platform"

func init() {
	platform.RequestPermissionsFunc = RequestPermissions
	platform.NewProviderFunc = func() (*platform.Provider, error) {
		displays := NewDisplays()
		grabber := NewGrabber(displays)
		desktop := NewDesktop()
		return &platform.Provider{
			Windows:  NewWindowList(),
			Displays: displays,
			Output:   grabber,
			Screen:   grabber,
			Focus:    desktop,
			Input:    desktop,
			Pointer:  NewPointer(),
		}, nil
	}
}
