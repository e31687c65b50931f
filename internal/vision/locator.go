// Package vision asks a multimodal model where the reply box is.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/mj1618/wingman/internal/capture"
	"github.com/mj1618/wingman/internal/model"
)

// DefaultPrompt asks for the chat input box as a JSON point.
const DefaultPrompt = "You are looking at a desktop app screenshot. Find the text input field where a user would type a chat message. Return ONLY a JSON object with integer pixel coordinates relative to THIS image, like: {\"x\": 123, \"y\": 456}. If unsure, pick the best guess near the bottom message box."

// JPEGQuality is the encoder quality for screenshots sent to the model.
const JPEGQuality = 85

var xyPattern = regexp.MustCompile(`(?i)[{\[]\s*"?x"?\s*:\s*(\d+)\s*,\s*"?y"?\s*:\s*(\d+)\s*[}\]]`)

// Asker sends one image question to a model.
type Asker interface {
	Vision(ctx context.Context, prompt, jpegB64 string) (string, error)
}

// Grabber captures a whole window.
type Grabber interface {
	CaptureFull(ctx context.Context, w model.Window) (capture.Result, error)
}

// Location is a located input point with the frame it was found in.
type Location struct {
	Point image.Point `yaml:"point"         json:"point"`
	Local image.Point `yaml:"local"         json:"local"`
	Raw   string      `yaml:"raw,omitempty" json:"raw,omitempty"`
	Frame image.Image `yaml:"-"             json:"-"`
}

// Locator finds the message box in a window screenshot.
type Locator struct {
	asker   Asker
	grabber Grabber
	enabled bool
	prompt  string
	logger  *slog.Logger
}

// NewLocator creates a Locator. An empty prompt uses DefaultPrompt.
func NewLocator(asker Asker, grabber Grabber, enabled bool, prompt string, logger *slog.Logger) *Locator {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return &Locator{
		asker:   asker,
		grabber: grabber,
		enabled: enabled,
		prompt:  prompt,
		logger:  logger.With("component", "vision"),
	}
}

// Enabled reports whether the locator will do anything.
func (l *Locator) Enabled() bool { return l != nil && l.enabled && l.asker != nil && l.grabber != nil }

// Locate returns the screen point of the reply box in w. ok is false when
// the locator is disabled or any step failed.
func (l *Locator) Locate(ctx context.Context, w model.Window) (image.Point, bool) {
	loc, err := l.Find(ctx, w)
	if err != nil {
		if l.Enabled() {
			l.logger.Warn("vision locate failed", "error", err)
		}
		return image.Point{}, false
	}
	return loc.Point, true
}

// Find is Locate with the error and the captured frame kept.
func (l *Locator) Find(ctx context.Context, w model.Window) (*Location, error) {
	if !l.Enabled() {
		return nil, fmt.Errorf("vision locator disabled")
	}
	res, err := l.grabber.CaptureFull(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("capturing window: %w", err)
	}
	b64, err := EncodeJPEG(res.Image)
	if err != nil {
		return nil, err
	}
	raw, err := l.asker.Vision(ctx, l.prompt, b64)
	if err != nil {
		return nil, err
	}
	pt, ok := ExtractXY(raw)
	if !ok {
		return nil, fmt.Errorf("no coordinates in model reply: %q", truncate(raw, 120))
	}

	b := res.Image.Bounds()
	local := Clamp(pt, b.Dx(), b.Dy())
	screen := local.Add(res.Region.Min)
	l.logger.Debug("vision located input", "local", local, "screen", screen)
	return &Location{Point: screen, Local: local, Raw: raw, Frame: res.Image}, nil
}

// EncodeJPEG encodes img as base64 JPEG.
func EncodeJPEG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return "", fmt.Errorf("encoding jpeg: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ExtractXY pulls an {x, y} point from a model reply: a strict JSON object
// first, then a lenient pattern anywhere in the text.
func ExtractXY(text string) (image.Point, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		x, xok := asInt(obj["x"])
		y, yok := asInt(obj["y"])
		if xok && yok {
			return image.Pt(x, y), true
		}
	}
	m := xyPattern.FindStringSubmatch(text)
	if m == nil {
		return image.Point{}, false
	}
	x, err1 := strconv.Atoi(m[1])
	y, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return image.Point{}, false
	}
	return image.Pt(x, y), true
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}

// Clamp limits p to [0,w-1]x[0,h-1].
func Clamp(p image.Point, w, h int) image.Point {
	return image.Pt(max(0, min(p.X, w-1)), max(0, min(p.Y, h-1)))
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
