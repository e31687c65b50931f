package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	werrors "github.com/mj1618/wingman/internal/errors"
	"github.com/mj1618/wingman/internal/model"
	"github.com/mj1618/wingman/internal/platform"
)

// Request describes one capture.
type Request struct {
	Window model.Window
	Region image.Rectangle // absolute screen coordinates
}

// Strategy is one way of grabbing pixels.
type Strategy interface {
	Name() string
	Available() bool
	Capture(ctx context.Context, req Request) (image.Image, error)
}

// Result is a successful capture.
type Result struct {
	Image    image.Image
	Strategy string
	Region   image.Rectangle
}

// Chain tries strategies in order until one returns an image.
type Chain struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewChain builds a chain over the given strategies.
func NewChain(logger *slog.Logger, strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies, logger: logger.With("component", "capture")}
}

// Capture runs the chain. Unavailable strategies are skipped. When every
// strategy fails the error is CAPTURE_FAILED wrapping each failure.
func (c *Chain) Capture(ctx context.Context, req Request) (Result, error) {
	var errs []error
	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if !s.Available() {
			c.logger.Debug("strategy unavailable", "strategy", s.Name())
			continue
		}
		img, err := s.Capture(ctx, req)
		if err != nil {
			c.logger.Debug("strategy failed", "strategy", s.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		c.logger.Debug("captured", "strategy", s.Name(), "region", req.Region)
		return Result{Image: img, Strategy: s.Name(), Region: req.Region}, nil
	}
	if len(errs) == 0 {
		errs = append(errs, errors.New("no capture strategy available"))
	}
	return Result{}, werrors.NewCaptureFailed(errors.Join(errs...))
}

// OutputOptions tunes the output strategy.
type OutputOptions struct {
	Override       *int
	TryAll         bool
	BlackThreshold float64
	// OnSuccess is called with the output index that produced a usable frame.
	OnSuccess func(output int)
}

// OutputStrategy grabs through per-output capture, walking the candidate
// (output, monitor) pairs and rejecting black frames.
type OutputStrategy struct {
	grabber  platform.OutputGrabber
	displays platform.DisplayLister
	opts     OutputOptions
	logger   *slog.Logger
}

// NewOutputStrategy creates the output strategy. grabber may be nil, in
// which case the strategy is unavailable.
func NewOutputStrategy(grabber platform.OutputGrabber, displays platform.DisplayLister, opts OutputOptions, logger *slog.Logger) *OutputStrategy {
	return &OutputStrategy{grabber: grabber, displays: displays, opts: opts, logger: logger.With("component", "capture.output")}
}

func (s *OutputStrategy) Name() string { return "output" }

func (s *OutputStrategy) Available() bool { return s.grabber != nil && s.displays != nil }

func (s *OutputStrategy) Capture(ctx context.Context, req Request) (image.Image, error) {
	monitors, err := s.displays.Monitors()
	if err != nil {
		return nil, fmt.Errorf("listing monitors: %w", err)
	}
	rects := make([]image.Rectangle, max(1, len(monitors)))
	for i, m := range monitors {
		rects[i] = m.Rect()
	}

	guess, err := s.displays.MonitorFor(req.Window.Handle)
	if err != nil {
		s.logger.Debug("monitor guess failed", "error", err)
		guess = 0
	}

	var black int
	var lastErr error
	for _, p := range Candidates(s.opts.Override, guess, len(rects), s.opts.TryAll) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel := ToRelative(req.Region, rects[p.Monitor])
		img, err := s.grabber.GrabOutput(p.Output, rel)
		if err != nil {
			lastErr = err
			continue
		}
		if IsBlack(img, s.opts.BlackThreshold) {
			black++
			s.logger.Debug("black frame rejected", "output", p.Output, "monitor", p.Monitor)
			continue
		}
		if s.opts.OnSuccess != nil {
			s.opts.OnSuccess(p.Output)
		}
		return img, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("no usable frame (%d black): %w", black, lastErr)
	}
	return nil, fmt.Errorf("no usable frame (%d black)", black)
}

// ScreenStrategy grabs straight from the virtual desktop. Some composited
// surfaces come back black through it; the frame is returned regardless.
type ScreenStrategy struct {
	grabber platform.ScreenGrabber
}

// NewScreenStrategy creates the generic screen strategy.
func NewScreenStrategy(grabber platform.ScreenGrabber) *ScreenStrategy {
	return &ScreenStrategy{grabber: grabber}
}

func (s *ScreenStrategy) Name() string { return "screen" }

func (s *ScreenStrategy) Available() bool { return s.grabber != nil }

func (s *ScreenStrategy) Capture(ctx context.Context, req Request) (image.Image, error) {
	return s.grabber.GrabScreen(req.Region)
}
