//go:build windows

package windows

import (
	"errors"
	"fmt"
	"image"
	"unsafe"
)

// Grabber captures pixels from the virtual desktop with GDI BitBlt. It is
// the fallback behind the Desktop Duplication grabber.
type Grabber struct{}

// NewGrabber creates a GDI grabber.
func NewGrabber() *Grabber { return &Grabber{} }

// GrabScreen captures rect of the virtual desktop.
func (g *Grabber) GrabScreen(rect image.Rectangle) (image.Image, error) {
	hdc, _, err := procGetDC.Call(0)
	if hdc == 0 {
		return nil, fmt.Errorf("GetDC: %w", err)
	}
	defer procReleaseDC.Call(0, hdc)
	return blit(hdc, rect, srcCopy|captureBlt)
}

func blit(src uintptr, rect image.Rectangle, rop uintptr) (image.Image, error) {
	w, h := rect.Dx(), rect.Dy()
	if w <= 0 || h <= 0 {
		return nil, errors.New("empty capture rectangle")
	}
	mem, _, err := procCreateCompatibleDC.Call(src)
	if mem == 0 {
		return nil, fmt.Errorf("CreateCompatibleDC: %w", err)
	}
	defer procDeleteDC.Call(mem)

	bmp, _, err := procCreateCompatibleBitmap.Call(src, uintptr(w), uintptr(h))
	if bmp == 0 {
		return nil, fmt.Errorf("CreateCompatibleBitmap: %w", err)
	}
	defer procDeleteObject.Call(bmp)

	old, _, _ := procSelectObject.Call(mem, bmp)
	x, y := int32(rect.Min.X), int32(rect.Min.Y)
	ok, _, err := procBitBlt.Call(mem, 0, 0, uintptr(w), uintptr(h), src, uintptr(x), uintptr(y), rop)
	procSelectObject.Call(mem, old)
	if ok == 0 {
		return nil, fmt.Errorf("BitBlt: %w", err)
	}

	bi := bitmapInfo{Header: bitmapInfoHeader{
		BiWidth:       int32(w),
		BiHeight:      -int32(h), // top-down rows
		BiPlanes:      1,
		BiBitCount:    32,
		BiCompression: biRGB,
	}}
	bi.Header.BiSize = uint32(unsafe.Sizeof(bi.Header))
	buf := make([]byte, w*h*4)
	lines, _, err := procGetDIBits.Call(mem, bmp, 0, uintptr(h), uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&bi)), dibRGBColors)
	if lines == 0 {
		return nil, fmt.Errorf("GetDIBits: %w", err)
	}
	return bgraToRGBA(buf, w, h), nil
}

// bgraToRGBA converts a top-down BGRX buffer into an opaque RGBA image.
func bgraToRGBA(buf []byte, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i+3 < len(buf) && i+3 < len(img.Pix); i += 4 {
		img.Pix[i] = buf[i+2]
		img.Pix[i+1] = buf[i+1]
		img.Pix[i+2] = buf[i]
		img.Pix[i+3] = 0xff
	}
	return img
}
