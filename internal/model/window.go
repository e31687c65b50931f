package model

import "image"

// Window is a top-level desktop window.
type Window struct {
	Handle     uintptr `yaml:"handle"                json:"handle"`
	PID        int     `yaml:"pid"                   json:"pid"`
	Process    string  `yaml:"process,omitempty"     json:"process,omitempty"`
	Title      string  `yaml:"title"                 json:"title"`
	Class      string  `yaml:"class,omitempty"       json:"class,omitempty"`
	Bounds     [4]int  `yaml:"bounds"                json:"bounds"` // [x, y, width, height]
	Visible    bool    `yaml:"visible"               json:"visible"`
	Minimized  bool    `yaml:"minimized,omitempty"   json:"minimized,omitempty"`
	ToolWindow bool    `yaml:"tool_window,omitempty" json:"tool_window,omitempty"`
}

// Rect returns the window bounds as an image.Rectangle in screen coordinates.
func (w Window) Rect() image.Rectangle {
	return image.Rect(w.Bounds[0], w.Bounds[1], w.Bounds[0]+w.Bounds[2], w.Bounds[1]+w.Bounds[3])
}

// Usable reports whether the window can be captured and typed into:
// visible, not minimized, not a tool window, and carrying a title or class.
func (w Window) Usable() bool {
	if w.Handle == 0 || !w.Visible || w.Minimized || w.ToolWindow {
		return false
	}
	return w.Title != "" || w.Class != ""
}
