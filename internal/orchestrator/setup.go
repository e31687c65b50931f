package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"

	"github.com/mj1618/wingman/internal/config"
	werrors "github.com/mj1618/wingman/internal/errors"
	"github.com/mj1618/wingman/internal/input"
	"github.com/mj1618/wingman/internal/model"
	"github.com/mj1618/wingman/internal/ocr"
	"github.com/mj1618/wingman/internal/store"
	"github.com/mj1618/wingman/internal/vision"
)

// HighDPIScale is the monitor scale above which the chat crop is nudged.
const HighDPIScale = 1.5

// DefaultCalibrateTimeout bounds how long set-focus waits for a click.
const DefaultCalibrateTimeout = 12 * time.Second

// thumbWidth is the maximum width of crop-tuner previews.
const thumbWidth = 480

// DisplayReport is the outcome of DetectDisplays.
type DisplayReport struct {
	Monitors      []model.Monitor `yaml:"monitors"            json:"monitors"`
	ActiveMonitor int             `yaml:"active_monitor"      json:"active_monitor"`
	Window        string          `yaml:"window,omitempty"    json:"window,omitempty"`
	ChatCrop      *model.Crop     `yaml:"chat_crop,omitempty" json:"chat_crop,omitempty"`
	CropNudged    bool            `yaml:"crop_nudged"         json:"crop_nudged"`
}

// DetectDisplays records the attached monitors and the one showing the
// target window in the config. On a high-DPI monitor the chat crop is
// narrowed.
func (s *Service) DetectDisplays(ctx context.Context) (*DisplayReport, error) {
	if s.Displays == nil {
		return nil, werrors.NewUnsupported("display detection")
	}
	monitors, err := s.Displays.Monitors()
	if err != nil {
		return nil, fmt.Errorf("listing monitors: %w", err)
	}
	if len(monitors) == 0 {
		return nil, fmt.Errorf("no monitors reported")
	}

	rep := &DisplayReport{Monitors: monitors}
	for i, m := range monitors {
		if m.Primary {
			rep.ActiveMonitor = i
			break
		}
	}
	if w, err := s.Windows.Resolve(); err == nil {
		rep.Window = w.Title
		if idx, err := s.Displays.MonitorFor(w.Handle); err == nil && idx >= 0 && idx < len(monitors) {
			rep.ActiveMonitor = idx
		}
	} else {
		s.logger.Debug("no target window, using primary monitor", "error", err)
	}

	active := rep.ActiveMonitor
	s.Config.Scraping.Monitors = monitors
	s.Config.Scraping.ActiveMonitor = &active
	if monitors[active].Scale > HighDPIScale {
		crop := model.CropChatHighDPI
		s.Config.Targets.PhoneLink.ChatCrop = &crop
		rep.CropNudged = true
	}
	rep.ChatCrop = s.Config.ChatCrop()
	if err := s.Config.Save(); err != nil {
		return rep, fmt.Errorf("saving config: %w", err)
	}
	s.logger.Info("displays detected", "monitors", len(monitors), "active", active, "nudged", rep.CropNudged)
	return rep, nil
}

// Preview is one saved OCR preview.
type Preview struct {
	Region string `yaml:"region"          json:"region"`
	Path   string `yaml:"path,omitempty"  json:"path,omitempty"`
	Text   string `yaml:"text,omitempty"  json:"text,omitempty"`
	Lines  int    `yaml:"lines"           json:"lines"`
	Error  string `yaml:"error,omitempty" json:"error,omitempty"`
}

// SaveOCRPreviews captures the chat and profile crops, writes them as PNGs
// in the log directory, and recognises each.
func (s *Service) SaveOCRPreviews(ctx context.Context) ([]Preview, error) {
	w, err := s.Windows.Resolve()
	if err != nil {
		return nil, err
	}
	regions := []struct {
		name string
		crop *model.Crop
	}{
		{"chat", s.Config.ChatCrop()},
		{"profile", s.Config.ProfileCrop()},
	}
	var out []Preview
	for _, r := range regions {
		p := Preview{Region: r.name}
		shot, err := s.Capturer.CaptureCrop(ctx, w, r.crop)
		if err != nil {
			p.Error = err.Error()
			out = append(out, p)
			continue
		}
		p.Path = filepath.Join(s.logDir(), fmt.Sprintf("ocr_%s_preview.png", r.name))
		if err := store.WritePNG(p.Path, shot.Image); err != nil {
			p.Error, p.Path = err.Error(), ""
		}
		if s.OCR != nil && s.OCR.Available() {
			text, err := s.OCR.Recognize(ctx, shot.Image, s.Config.Scraping.OCRLang)
			if err != nil {
				p.Error = errors.Join(errorOrNil(p.Error), err).Error()
			} else {
				p.Text = text
				p.Lines = ocr.LineCount(text)
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// CalibrateFocus waits for a click inside the target window and stores it
// as the focus point. A zero timeout uses DefaultCalibrateTimeout.
func (s *Service) CalibrateFocus(ctx context.Context, timeout time.Duration) (*config.FocusClick, error) {
	if s.Pointer == nil {
		return nil, werrors.NewUnsupported("pointer calibration")
	}
	if timeout <= 0 {
		timeout = DefaultCalibrateTimeout
	}
	w, err := s.Windows.Resolve()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	pt, err := s.Pointer.WaitForClick(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, werrors.NewInvalidRequest(fmt.Sprintf("no click within %s", timeout))
		}
		return nil, err
	}
	return s.saveFocusPoint(w, pt)
}

// SetFocusPoint stores a screen point inside the target window as the
// focus point without waiting for a click.
func (s *Service) SetFocusPoint(ctx context.Context, pt image.Point) (*config.FocusClick, error) {
	if s.Pointer == nil {
		return nil, werrors.NewUnsupported("pointer calibration")
	}
	w, err := s.Windows.Resolve()
	if err != nil {
		return nil, err
	}
	return s.saveFocusPoint(w, pt)
}

func (s *Service) saveFocusPoint(w model.Window, pt image.Point) (*config.FocusClick, error) {
	client, err := s.Pointer.ClientArea(w.Handle)
	if err != nil {
		return nil, fmt.Errorf("reading client area: %w", err)
	}
	fc, err := input.FocusFraction(client, pt)
	if err != nil {
		return nil, err
	}
	s.Config.Input.FocusClick = fc
	if err := s.Config.Save(); err != nil {
		return fc, fmt.Errorf("saving config: %w", err)
	}
	s.logger.Info("focus point calibrated", "x_pct", fc.XPct, "y_pct", fc.YPct)
	return fc, nil
}

// TuneResult is the outcome of TuneCrop.
type TuneResult struct {
	Target  string          `yaml:"target"            json:"target"`
	Crop    model.Crop      `yaml:"crop"              json:"crop"`
	Region  image.Rectangle `yaml:"region"            json:"region"`
	Preview string          `yaml:"preview,omitempty" json:"preview,omitempty"`
	Saved   bool            `yaml:"saved"             json:"saved"`
}

// TuneCrop previews crop for target ("chat" or "profile") and optionally
// saves it to the config.
func (s *Service) TuneCrop(ctx context.Context, target string, crop model.Crop, save bool) (*TuneResult, error) {
	if target != "chat" && target != "profile" {
		return nil, werrors.NewInvalidRequest(fmt.Sprintf("unknown crop target %q (want chat or profile)", target))
	}
	if err := crop.Validate(); err != nil {
		return nil, werrors.NewInvalidRequest(err.Error())
	}
	w, err := s.Windows.Resolve()
	if err != nil {
		return nil, err
	}
	shot, err := s.Capturer.CaptureCrop(ctx, w, &crop)
	if err != nil {
		return nil, err
	}

	res := &TuneResult{Target: target, Crop: crop, Region: shot.Region}
	res.Preview = filepath.Join(s.logDir(), fmt.Sprintf("tune_%s.png", target))
	if err := store.WritePNG(res.Preview, Thumbnail(shot.Image, thumbWidth)); err != nil {
		return nil, err
	}

	if save {
		c := crop
		if target == "chat" {
			s.Config.Targets.PhoneLink.ChatCrop = &c
		} else {
			s.Config.Targets.PhoneLink.ProfileCrop = &c
		}
		if err := s.Config.Save(); err != nil {
			return res, fmt.Errorf("saving config: %w", err)
		}
		res.Saved = true
	}
	return res, nil
}

// Thumbnail scales img down to at most width pixels wide.
func Thumbnail(img image.Image, width int) image.Image {
	b := img.Bounds()
	if b.Dx() <= width || b.Dx() == 0 {
		return img
	}
	h := max(1, b.Dy()*width/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, width, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// LocateResult is the outcome of LocateInput.
type LocateResult struct {
	Point     image.Point `yaml:"point"               json:"point"`
	Local     image.Point `yaml:"local"               json:"local"`
	Raw       string      `yaml:"raw,omitempty"       json:"raw,omitempty"`
	Annotated string      `yaml:"annotated,omitempty" json:"annotated,omitempty"`
}

// LocateInput asks the vision model where the reply box is. When annotate
// is set, a marked-up screenshot is written there.
func (s *Service) LocateInput(ctx context.Context, annotate string) (*LocateResult, error) {
	if s.Locator == nil || !s.Locator.Enabled() {
		return nil, werrors.NewInvalidRequest("vision locator is disabled (set vision.enabled)")
	}
	w, err := s.Windows.Resolve()
	if err != nil {
		return nil, err
	}
	loc, err := s.Locator.Find(ctx, w)
	if err != nil {
		return nil, err
	}
	res := &LocateResult{Point: loc.Point, Local: loc.Local, Raw: loc.Raw}
	if annotate != "" && loc.Frame != nil {
		label := fmt.Sprintf("(%d,%d)", loc.Point.X, loc.Point.Y)
		if err := store.WritePNG(annotate, vision.Annotate(loc.Frame, loc.Local, label)); err != nil {
			return res, err
		}
		res.Annotated = annotate
	}
	return res, nil
}

func errorOrNil(msg string) error {
	if msg == "" {
		return nil
	}
	return errors.New(msg)
}
