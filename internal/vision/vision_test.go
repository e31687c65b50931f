package vision

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"unicode/utf8"

	"github.com/mj1618/wingman/internal/capture"
	"github.com/mj1618/wingman/internal/logging"
	"github.com/mj1618/wingman/internal/model"
)

func TestExtractXY(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want image.Point
		ok   bool
	}{
		{"strict json", `{"x": 123, "y": 456}`, image.Pt(123, 456), true},
		{"float json", `{"x": 12.7, "y": 3}`, image.Pt(12, 3), true},
		{"prose around object", `Sure! The box is at {"x": 40, "y": 900} near the bottom.`, image.Pt(40, 900), true},
		{"unquoted keys", `{x: 5, y: 6}`, image.Pt(5, 6), true},
		{"upper case", `{"X": 7, "Y": 8}`, image.Pt(7, 8), true},
		{"brackets", `[x:1, y:2]`, image.Pt(1, 2), true},
		{"missing y", `{"x": 1}`, image.Point{}, false},
		{"garbage", `I can't see an input box`, image.Point{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractXY(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ExtractXY(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in   image.Point
		want image.Point
	}{
		{image.Pt(50, 50), image.Pt(50, 50)},
		{image.Pt(-3, 5), image.Pt(0, 5)},
		{image.Pt(500, 500), image.Pt(99, 79)},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in, 100, 80); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

type fakeAsker struct {
	reply  string
	err    error
	prompt string
	image  string
}

func (f *fakeAsker) Vision(ctx context.Context, prompt, jpegB64 string) (string, error) {
	f.prompt = prompt
	f.image = jpegB64
	return f.reply, f.err
}

type fakeGrabber struct {
	region image.Rectangle
	err    error
}

func (g *fakeGrabber) CaptureFull(ctx context.Context, w model.Window) (capture.Result, error) {
	if g.err != nil {
		return capture.Result{}, g.err
	}
	img := image.NewRGBA(image.Rect(0, 0, g.region.Dx(), g.region.Dy()))
	return capture.Result{Image: img, Strategy: "fake", Region: g.region}, nil
}

func TestLocate_TranslatesToScreen(t *testing.T) {
	asker := &fakeAsker{reply: `{"x": 1000, "y": 30}`}
	grabber := &fakeGrabber{region: image.Rect(200, 100, 600, 400)}
	l := NewLocator(asker, grabber, true, "", logging.Discard())

	pt, ok := l.Locate(context.Background(), model.Window{Handle: 1})
	if !ok {
		t.Fatal("expected a point")
	}
	// x clamped to width-1 (399), then offset by the window origin
	if want := image.Pt(599, 130); pt != want {
		t.Errorf("Locate() = %v, want %v", pt, want)
	}
	if asker.prompt != DefaultPrompt {
		t.Error("expected the default prompt")
	}
	if asker.image == "" {
		t.Error("expected a base64 image")
	}
}

func TestLocate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		asker   *fakeAsker
		grabber *fakeGrabber
	}{
		{"disabled", false, &fakeAsker{reply: `{"x":1,"y":1}`}, &fakeGrabber{region: image.Rect(0, 0, 10, 10)}},
		{"capture error", true, &fakeAsker{reply: `{"x":1,"y":1}`}, &fakeGrabber{err: errors.New("black")}},
		{"model error", true, &fakeAsker{err: errors.New("down")}, &fakeGrabber{region: image.Rect(0, 0, 10, 10)}},
		{"unparseable", true, &fakeAsker{reply: "no idea"}, &fakeGrabber{region: image.Rect(0, 0, 10, 10)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLocator(tt.asker, tt.grabber, tt.enabled, "", logging.Discard())
			if _, ok := l.Locate(context.Background(), model.Window{Handle: 1}); ok {
				t.Error("expected no point")
			}
		})
	}
}

func TestAnnotate(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	out := Annotate(src, image.Pt(50, 50), "")

	if got := out.RGBAAt(50, 50); got != markColor {
		t.Errorf("centre pixel = %v, want crosshair colour", got)
	}
	if got := out.RGBAAt(50+crossArm, 50); got != markColor {
		t.Errorf("arm end = %v, want crosshair colour", got)
	}
	if src.RGBAAt(50, 50) != (color.RGBA{}) {
		t.Error("source image must not be modified")
	}
}

func TestAnnotate_EdgePointDoesNotPanic(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 20, 20))
	Annotate(src, image.Pt(0, 0), "(0,0)")
	Annotate(src, image.Pt(19, 19), "")
}

func TestTruncate(t *testing.T) {
	if got := truncate("coordinates?", 20); got != "coordinates?" {
		t.Errorf("short string changed: %q", got)
	}
	got := truncate("où est-ce", 2)
	if got != "o..." || !utf8.ValidString(got) {
		t.Errorf("truncate split a rune: %q", got)
	}
}
