package model

import (
	"image"
	"testing"
)

func TestWindow_Usable(t *testing.T) {
	base := Window{Handle: 42, Visible: true, Title: "Phone Link"}
	tests := []struct {
		name string
		mod  func(w *Window)
		want bool
	}{
		{"ok", func(w *Window) {}, true},
		{"zero handle", func(w *Window) { w.Handle = 0 }, false},
		{"hidden", func(w *Window) { w.Visible = false }, false},
		{"minimized", func(w *Window) { w.Minimized = true }, false},
		{"tool window", func(w *Window) { w.ToolWindow = true }, false},
		{"class only", func(w *Window) { w.Title = ""; w.Class = "ApplicationFrameWindow" }, true},
		{"no title or class", func(w *Window) { w.Title = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := base
			tt.mod(&w)
			if got := w.Usable(); got != tt.want {
				t.Errorf("Usable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWindow_Rect(t *testing.T) {
	w := Window{Bounds: [4]int{10, 20, 300, 400}}
	if got, want := w.Rect(), image.Rect(10, 20, 310, 420); got != want {
		t.Errorf("Rect() = %v, want %v", got, want)
	}
}

func TestScaleFor(t *testing.T) {
	tests := []struct {
		dpi  int
		want float64
	}{
		{96, 1},
		{120, 1.25},
		{144, 1.5},
		{168, 1.75},
		{0, 1},
	}
	for _, tt := range tests {
		if got := ScaleFor(tt.dpi); got != tt.want {
			t.Errorf("ScaleFor(%d) = %v, want %v", tt.dpi, got, tt.want)
		}
	}
}

func TestCrop_Validate(t *testing.T) {
	if err := CropChat.Validate(); err != nil {
		t.Errorf("chat preset invalid: %v", err)
	}
	bad := []Crop{
		{Left: 0.5, Top: 0, Right: 0.5, Bottom: 1},
		{Left: 0, Top: 0.9, Right: 1, Bottom: 0.1},
		{Left: -0.1, Top: 0, Right: 1, Bottom: 1},
		{Left: 0, Top: 0, Right: 1.2, Bottom: 1},
	}
	for _, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("Validate(%v) should fail", c)
		}
	}
	if !CropFull.IsFull() || CropChat.IsFull() {
		t.Error("IsFull misreports presets")
	}
}

func TestMapControlType(t *testing.T) {
	tests := []struct {
		id   int
		want string
	}{
		{50020, RoleText},
		{50008, RoleList},
		{50033, RolePane},
		{50026, RoleGroup},
		{50004, RoleInput},
		{12345, RoleOther},
	}
	for _, tt := range tests {
		if got := MapControlType(tt.id); got != tt.want {
			t.Errorf("MapControlType(%d) = %q, want %q", tt.id, got, tt.want)
		}
	}
	if MapRole("AXStaticText") != RoleText || MapRole("AXNope") != RoleOther {
		t.Error("MapRole mismatch")
	}
}
