//go:build windows

package windows

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	iidIDXGIFactory1   = windows.GUID{Data1: 0x770aae78, Data2: 0xf26f, Data3: 0x4dba, Data4: [8]byte{0xa8, 0x29, 0x25, 0x3c, 0x83, 0xd1, 0xb3, 0x87}}
	iidIDXGIOutput1    = windows.GUID{Data1: 0x00cddea8, Data2: 0x939b, Data3: 0x4b83, Data4: [8]byte{0xa3, 0x40, 0xa6, 0x85, 0x22, 0x66, 0x66, 0xcc}}
	iidID3D11Texture2D = windows.GUID{Data1: 0x6f15aaf2, Data2: 0xd208, Data3: 0x4e89, Data4: [8]byte{0x9a, 0xb4, 0x48, 0x95, 0x35, 0xd3, 0x4f, 0x9c}}
)

// vtable slots.
const (
	slotQueryInterface = 0

	// IDXGIFactory
	slotEnumAdapters = 7

	// IDXGIAdapter
	slotEnumOutputs = 7

	// IDXGIOutput, IDXGIOutput1
	slotOutputGetDesc   = 7
	slotDuplicateOutput = 22

	// IDXGIOutputDuplication
	slotAcquireNextFrame = 8
	slotReleaseFrame     = 14

	// ID3D11Device
	slotCreateTexture2D = 5

	// ID3D11DeviceContext
	slotMap          = 14
	slotUnmap        = 15
	slotCopyResource = 47

	// ID3D11Texture2D
	slotTexture2DGetDesc = 10
)

const (
	d3dDriverTypeUnknown   = 0
	d3d11SDKVersion        = 7
	d3d11CreateBGRASupport = 0x20
	d3d11UsageStaging      = 3
	d3d11CPUAccessRead     = 0x20000
	d3d11MapRead           = 1
	dxgiFormatB8G8R8A8     = 87
	dxgiRotationIdentity   = 1
	dxgiErrorNotFound      = 0x887A0002
	dxgiErrorWaitTimeout   = 0x887A0027
)

type dxgiOutputDesc struct {
	DeviceName         [32]uint16
	DesktopCoordinates rect
	AttachedToDesktop  int32
	Rotation           uint32
	Monitor            uintptr
}

type texture2DDesc struct {
	Width          uint32
	Height         uint32
	MipLevels      uint32
	ArraySize      uint32
	Format         uint32
	SampleCount    uint32
	SampleQuality  uint32
	Usage          uint32
	BindFlags      uint32
	CPUAccessFlags uint32
	MiscFlags      uint32
}

type mappedSubresource struct {
	Data       unsafe.Pointer
	RowPitch   uint32
	DepthPitch uint32
}

type frameInfo struct {
	LastPresentTime           int64
	LastMouseUpdateTime       int64
	AccumulatedFrames         uint32
	RectsCoalesced            int32
	ProtectedContentMaskedOut int32
	PointerX                  int32
	PointerY                  int32
	PointerVisible            int32
	TotalMetadataBufferSize   uint32
	PointerShapeBufferSize    uint32
}

// Duplicator captures outputs through DXGI Desktop Duplication, reading the
// composed frame from the graphics adapter. This sees hardware-accelerated
// and streamed surfaces that come back black through GDI. Output indexes
// count the outputs of every adapter in enumeration order.
type Duplicator struct {
	timeoutMs uint32
	attempts  int
}

// NewDuplicator creates a Desktop Duplication grabber.
func NewDuplicator() *Duplicator {
	return &Duplicator{timeoutMs: 250, attempts: 4}
}

// GrabOutput captures rect, relative to output's origin, from the adapter's
// copy of that output.
func (d *Duplicator) GrabOutput(output int, r image.Rectangle) (image.Image, error) {
	if r.Empty() {
		return nil, errors.New("empty capture rectangle")
	}
	if err := procCreateDXGIFactory1.Find(); err != nil {
		return nil, fmt.Errorf("DXGI unavailable: %w", err)
	}
	if err := procD3D11CreateDevice.Find(); err != nil {
		return nil, fmt.Errorf("Direct3D 11 unavailable: %w", err)
	}

	var factory uintptr
	if hr, _, _ := procCreateDXGIFactory1.Call(uintptr(unsafe.Pointer(&iidIDXGIFactory1)), uintptr(unsafe.Pointer(&factory))); failed(hr) {
		return nil, fmt.Errorf("CreateDXGIFactory1: %#x", uint32(hr))
	}
	defer release(factory)

	adapter, out, err := findOutput(factory, output)
	if err != nil {
		return nil, err
	}
	defer release(adapter)
	defer release(out)

	var desc dxgiOutputDesc
	if hr := vcall(out, slotOutputGetDesc, uintptr(unsafe.Pointer(&desc))); failed(hr) {
		return nil, fmt.Errorf("IDXGIOutput.GetDesc: %#x", uint32(hr))
	}
	if desc.Rotation > dxgiRotationIdentity {
		return nil, fmt.Errorf("output %d is rotated", output)
	}

	var out1 uintptr
	if hr := vcall(out, slotQueryInterface, uintptr(unsafe.Pointer(&iidIDXGIOutput1)), uintptr(unsafe.Pointer(&out1))); failed(hr) {
		return nil, fmt.Errorf("IDXGIOutput1: %#x", uint32(hr))
	}
	defer release(out1)

	var device, context uintptr
	hr, _, _ := procD3D11CreateDevice.Call(
		adapter,
		d3dDriverTypeUnknown,
		0,
		d3d11CreateBGRASupport,
		0, 0,
		d3d11SDKVersion,
		uintptr(unsafe.Pointer(&device)),
		0,
		uintptr(unsafe.Pointer(&context)),
	)
	if failed(hr) || device == 0 {
		return nil, fmt.Errorf("D3D11CreateDevice: %#x", uint32(hr))
	}
	defer release(device)
	defer release(context)

	var dup uintptr
	if hr := vcall(out1, slotDuplicateOutput, device, uintptr(unsafe.Pointer(&dup))); failed(hr) {
		return nil, fmt.Errorf("DuplicateOutput on output %d: %#x", output, uint32(hr))
	}
	defer release(dup)

	frame, err := d.acquire(dup)
	if err != nil {
		return nil, err
	}
	defer vcall(dup, slotReleaseFrame)
	defer release(frame)

	return readFrame(device, context, frame, r)
}

// findOutput returns the adapter owning output and the output itself. The
// caller releases both.
func findOutput(factory uintptr, output int) (uintptr, uintptr, error) {
	if output < 0 {
		return 0, 0, fmt.Errorf("output %d out of range", output)
	}
	seen := 0
	for a := 0; ; a++ {
		var adapter uintptr
		hr := vcall(factory, slotEnumAdapters, uintptr(a), uintptr(unsafe.Pointer(&adapter)))
		if uint32(hr) == dxgiErrorNotFound {
			return 0, 0, fmt.Errorf("output %d out of range (have %d)", output, seen)
		}
		if failed(hr) {
			return 0, 0, fmt.Errorf("EnumAdapters: %#x", uint32(hr))
		}
		for o := 0; ; o++ {
			var out uintptr
			hr := vcall(adapter, slotEnumOutputs, uintptr(o), uintptr(unsafe.Pointer(&out)))
			if failed(hr) {
				break
			}
			if seen == output {
				return adapter, out, nil
			}
			release(out)
			seen++
		}
		release(adapter)
	}
}

// acquire waits for a desktop frame and returns it as a texture. The caller
// releases the texture and then the frame.
func (d *Duplicator) acquire(dup uintptr) (uintptr, error) {
	for i := 0; i < d.attempts; i++ {
		var info frameInfo
		var resource uintptr
		hr := vcall(dup, slotAcquireNextFrame, uintptr(d.timeoutMs), uintptr(unsafe.Pointer(&info)), uintptr(unsafe.Pointer(&resource)))
		if uint32(hr) == dxgiErrorWaitTimeout {
			continue
		}
		if failed(hr) {
			return 0, fmt.Errorf("AcquireNextFrame: %#x", uint32(hr))
		}
		var tex uintptr
		hr = vcall(resource, slotQueryInterface, uintptr(unsafe.Pointer(&iidID3D11Texture2D)), uintptr(unsafe.Pointer(&tex)))
		release(resource)
		if failed(hr) {
			vcall(dup, slotReleaseFrame)
			return 0, fmt.Errorf("frame is not a 2D texture: %#x", uint32(hr))
		}
		return tex, nil
	}
	return 0, errors.New("no desktop frame before timeout")
}

// readFrame copies the GPU frame into a CPU-readable staging texture and
// crops r out of it.
func readFrame(device, context, frame uintptr, r image.Rectangle) (image.Image, error) {
	var desc texture2DDesc
	vcall(frame, slotTexture2DGetDesc, uintptr(unsafe.Pointer(&desc)))
	if desc.Format != dxgiFormatB8G8R8A8 {
		return nil, fmt.Errorf("unexpected frame format %d", desc.Format)
	}
	r = r.Intersect(image.Rect(0, 0, int(desc.Width), int(desc.Height)))
	if r.Empty() {
		return nil, fmt.Errorf("capture rectangle outside the %dx%d output", desc.Width, desc.Height)
	}

	staging := desc
	staging.MipLevels = 1
	staging.ArraySize = 1
	staging.SampleCount = 1
	staging.SampleQuality = 0
	staging.Usage = d3d11UsageStaging
	staging.BindFlags = 0
	staging.CPUAccessFlags = d3d11CPUAccessRead
	staging.MiscFlags = 0

	var tex uintptr
	if hr := vcall(device, slotCreateTexture2D, uintptr(unsafe.Pointer(&staging)), 0, uintptr(unsafe.Pointer(&tex))); failed(hr) {
		return nil, fmt.Errorf("CreateTexture2D: %#x", uint32(hr))
	}
	defer release(tex)

	vcall(context, slotCopyResource, tex, frame)

	var mapped mappedSubresource
	if hr := vcall(context, slotMap, tex, 0, d3d11MapRead, 0, uintptr(unsafe.Pointer(&mapped))); failed(hr) {
		return nil, fmt.Errorf("Map: %#x", uint32(hr))
	}
	defer vcall(context, slotUnmap, tex, 0)

	pitch := int(mapped.RowPitch)
	src := unsafe.Slice((*byte)(mapped.Data), pitch*int(desc.Height))
	return cropBGRA(src, pitch, r), nil
}

// cropBGRA cuts r out of a top-down BGRA buffer with the given row pitch.
func cropBGRA(src []byte, pitch int, r image.Rectangle) *image.RGBA {
	w, h := r.Dx(), r.Dy()
	buf := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		off := (r.Min.Y+y)*pitch + r.Min.X*4
		copy(buf[y*w*4:(y+1)*w*4], src[off:off+w*4])
	}
	return bgraToRGBA(buf, w, h)
}
