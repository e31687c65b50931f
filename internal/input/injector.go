// Package input delivers text into a window with synthetic keyboard and
// mouse events.
package input

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/mj1618/wingman/internal/config"
	werrors "github.com/mj1618/wingman/internal/errors"
	"github.com/mj1618/wingman/internal/model"
	"github.com/mj1618/wingman/internal/platform"
)

const (
	defaultSettle = 60 * time.Millisecond
	enterGap      = 30 * time.Millisecond
)

// Injector focuses windows and types into them.
type Injector struct {
	focus  platform.Focuser
	input  platform.Inputter
	delay  time.Duration
	settle time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
	logger *slog.Logger
}

// NewInjector creates an Injector. Either backend may be nil on platforms
// that lack it; the affected operations then return UNSUPPORTED.
func NewInjector(focus platform.Focuser, in platform.Inputter, cfg config.InputConfig, logger *slog.Logger) *Injector {
	settle := time.Duration(cfg.FocusSettleMs) * time.Millisecond
	if settle <= 0 {
		settle = defaultSettle
	}
	return &Injector{
		focus:  focus,
		input:  in,
		delay:  time.Duration(max(cfg.TypePerCharDelayMs, 0)) * time.Millisecond,
		settle: settle,
		sleep:  sleepCtx,
		logger: logger.With("component", "input"),
	}
}

// WithSleep replaces the pacing sleep. Used by tests.
func (i *Injector) WithSleep(fn func(ctx context.Context, d time.Duration) error) *Injector {
	i.sleep = fn
	return i
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Focus brings w to the foreground, escalating through the platform's
// focus steps until one sticks.
func (i *Injector) Focus(ctx context.Context, w model.Window) error {
	if i.focus == nil {
		return werrors.NewUnsupported("window focus")
	}
	h := w.Handle
	if h == 0 {
		return werrors.NewWindowNotFound("no window handle")
	}
	if w.Minimized {
		if err := i.focus.Restore(h); err != nil {
			i.logger.Debug("restore failed", "handle", h, "error", err)
		}
	}

	if i.focus.ForegroundWindow() == h {
		return i.sleep(ctx, i.settle)
	}

	steps := []struct {
		name string
		run  func() bool
	}{
		{"set_foreground", func() bool { return i.focus.SetForeground(h) }},
		{"modifier_trick", func() bool { return i.focus.ModifierTrick(h) }},
		{"attach_input", func() bool {
			if err := i.focus.AttachAndActivate(h); err != nil {
				i.logger.Debug("attach and activate failed", "handle", h, "error", err)
				return false
			}
			return true
		}},
	}
	for _, step := range steps {
		step.run()
		if i.focus.ForegroundWindow() == h {
			i.logger.Debug("window focused", "handle", h, "step", step.name)
			return i.sleep(ctx, i.settle)
		}
	}
	return werrors.NewInjectionFailed(fmt.Errorf("window %d refused the foreground", h))
}

// Click clicks at a screen point.
func (i *Injector) Click(pt image.Point) error {
	if i.input == nil {
		return werrors.NewUnsupported("mouse input")
	}
	if err := i.input.Click(pt.X, pt.Y); err != nil {
		return werrors.NewInjectionFailed(err)
	}
	return nil
}

// TypeText types text one rune at a time with the configured delay.
func (i *Injector) TypeText(ctx context.Context, text string) error {
	return i.TypeTextDelay(ctx, text, i.delay)
}

// TypeTextDelay types text with an explicit per-rune delay. Line endings are
// normalised and each newline becomes an Enter press. Cancelling ctx stops
// between runes.
func (i *Injector) TypeTextDelay(ctx context.Context, text string, delay time.Duration) error {
	if i.input == nil {
		return werrors.NewUnsupported("keyboard input")
	}
	text = NormalizeNewlines(text)
	runes := []rune(text)
	for n, r := range runes {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		if r == '\n' {
			err = i.input.PressEnter()
		} else {
			err = i.input.TypeRune(r)
		}
		if err != nil {
			return werrors.NewInjectionFailed(fmt.Errorf("typing rune %d: %w", n, err))
		}
		if n < len(runes)-1 && delay > 0 {
			if err := i.sleep(ctx, delay); err != nil {
				return err
			}
		}
	}
	return nil
}

// Commit presses Enter n times.
func (i *Injector) Commit(ctx context.Context, n int) error {
	if i.input == nil {
		return werrors.NewUnsupported("keyboard input")
	}
	for k := 0; k < n; k++ {
		if k > 0 {
			if err := i.sleep(ctx, enterGap); err != nil {
				return err
			}
		}
		if err := i.input.PressEnter(); err != nil {
			return werrors.NewInjectionFailed(fmt.Errorf("pressing enter: %w", err))
		}
	}
	return nil
}

// DeliverOptions controls Deliver.
type DeliverOptions struct {
	// Focus brings the window forward first. Off for paste-at-cursor.
	Focus bool
	// Click, when set, is clicked after focusing to place the caret.
	Click *image.Point
	// Commit is the number of Enter presses after typing.
	Commit int
}

// Deliver focuses w, places the caret, types text and commits it.
func (i *Injector) Deliver(ctx context.Context, w model.Window, text string, opts DeliverOptions) error {
	if opts.Focus {
		if err := i.Focus(ctx, w); err != nil {
			return err
		}
	}
	if opts.Click != nil {
		if err := i.Click(*opts.Click); err != nil {
			return err
		}
		if err := i.sleep(ctx, i.settle); err != nil {
			return err
		}
	}
	if err := i.TypeText(ctx, text); err != nil {
		return err
	}
	return i.Commit(ctx, opts.Commit)
}

// NormalizeNewlines turns CRLF and lone CR into LF.
func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// FocusPoint converts a calibrated focus click back to a screen point
// inside client.
func FocusPoint(client image.Rectangle, fc *config.FocusClick) (image.Point, bool) {
	if fc == nil || client.Empty() {
		return image.Point{}, false
	}
	x := client.Min.X + int(math.Round(float64(client.Dx())*fc.XPct)) + fc.XOffsetPx
	y := client.Min.Y + int(math.Round(float64(client.Dy())*fc.YPct)) + fc.YOffsetPx
	return image.Pt(x, y), true
}

// FocusFraction is the inverse of FocusPoint: the client-relative fraction
// of a screen point, rounded to four places.
func FocusFraction(client image.Rectangle, pt image.Point) (*config.FocusClick, error) {
	if client.Empty() {
		return nil, fmt.Errorf("empty client area")
	}
	if !pt.In(client) {
		return nil, werrors.NewInvalidRequest(fmt.Sprintf("click %v is outside the window client area %v", pt, client))
	}
	round4 := func(v float64) float64 { return math.Round(v*10000) / 10000 }
	return &config.FocusClick{
		RelativeTo: "client",
		XPct:       round4(float64(pt.X-client.Min.X) / float64(client.Dx())),
		YPct:       round4(float64(pt.Y-client.Min.Y) / float64(client.Dy())),
	}, nil
}
