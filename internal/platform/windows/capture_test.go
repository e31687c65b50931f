//go:build windows

package windows

import (
	"image"
	"testing"
)

func TestBGRAToRGBA(t *testing.T) {
	buf := []byte{
		10, 20, 30, 0, // B G R X
		0, 0, 255, 0,
	}
	img := bgraToRGBA(buf, 2, 1)

	want := []byte{30, 20, 10, 255, 255, 0, 0, 255}
	for i, b := range want {
		if img.Pix[i] != b {
			t.Fatalf("Pix[%d] = %d, want %d (pix %v)", i, img.Pix[i], b, img.Pix)
		}
	}
}

func TestCropBGRA(t *testing.T) {
	// 3x2 frame with a padded row pitch of 16 bytes.
	pitch := 16
	src := make([]byte, pitch*2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			off := y*pitch + x*4
			src[off] = byte(10 * (y*3 + x)) // B
			src[off+2] = byte(y*3 + x)      // R
		}
	}

	img := cropBGRA(src, pitch, image.Rect(1, 1, 3, 2))
	if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 1 {
		t.Fatalf("bounds = %v, want 2x1", b)
	}
	// Pixel (1,1) is index 4: R=4, B=40.
	if img.Pix[0] != 4 || img.Pix[2] != 40 || img.Pix[3] != 255 {
		t.Errorf("first pixel = %v, want R=4 B=40 A=255", img.Pix[:4])
	}
	if img.Pix[4] != 5 || img.Pix[6] != 50 {
		t.Errorf("second pixel = %v, want R=5 B=50", img.Pix[4:8])
	}
}
