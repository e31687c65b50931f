package orchestrator

import (
	"context"
	"image"

	werrors "github.com/mj1618/wingman/internal/errors"
	"github.com/mj1618/wingman/internal/model"
	"github.com/mj1618/wingman/internal/ocr"
)

// Text sources.
const (
	SourceAccessibility = "accessibility"
	SourceOCR           = "ocr"
)

// ReadResult is the outcome of a read.
type ReadResult struct {
	Text       string       `yaml:"text"               json:"text"`
	Source     string       `yaml:"source"             json:"source"`
	Lines      int          `yaml:"lines"              json:"lines"`
	Window     model.Window `yaml:"window"             json:"window"`
	Warnings   []string     `yaml:"warnings,omitempty" json:"warnings,omitempty"`
	Screenshot image.Image  `yaml:"-"                  json:"-"`
}

// ReadProfile reads the bio: accessibility first, then OCR over the profile
// crop when that yields fewer than scraping.min_profile_chars characters.
func (s *Service) ReadProfile(ctx context.Context) (*ReadResult, error) {
	minChars := s.Config.Scraping.MinProfileChars
	res, err := s.read(ctx, "profile", s.Config.ProfileCrop(), func(text string) bool {
		return len([]rune(text)) < minChars
	})
	if err != nil {
		return nil, err
	}
	sess := s.loadSession()
	sess.Bio, sess.BioSource = res.Text, res.Source
	s.saveSession(sess)
	return res, nil
}

// ReadChat reads the transcript: accessibility first, then OCR over the
// chat crop when that yields fewer than scraping.min_chat_lines lines.
func (s *Service) ReadChat(ctx context.Context) (*ReadResult, error) {
	minLines := s.Config.Scraping.MinChatLines
	res, err := s.read(ctx, "chat", s.Config.ChatCrop(), func(text string) bool {
		return ocr.LineCount(text) < minLines
	})
	if err != nil {
		return nil, err
	}
	sess := s.loadSession()
	sess.Chat, sess.ChatSource = res.Text, res.Source
	s.saveSession(sess)
	return res, nil
}

// read runs the accessibility reader and, when insufficient reports true,
// exactly one OCR pass. A non-empty OCR result replaces the accessibility
// text.
func (s *Service) read(ctx context.Context, what string, crop *model.Crop, insufficient func(string) bool) (*ReadResult, error) {
	w, err := s.Windows.Resolve()
	if err != nil {
		return nil, err
	}
	res := &ReadResult{Window: w}

	if s.Reader != nil && s.Reader.Available() {
		var text string
		if what == "chat" {
			text, err = s.Reader.ReadChat(w.Handle)
		} else {
			text, err = s.Reader.ReadProfile(w.Handle)
		}
		switch {
		case err == nil:
			res.Text, res.Source = text, SourceAccessibility
		case werrors.Is(err, werrors.ErrNoText):
			s.logger.Debug("accessibility found no text", "region", what)
		default:
			s.logger.Warn("accessibility read failed, will try OCR", "region", what, "error", err)
			res.Warnings = append(res.Warnings, "accessibility: "+err.Error())
		}
	}

	if insufficient(res.Text) && s.Config.Scraping.OCRFallback {
		text, shot, err := s.ocrRegion(ctx, w, crop)
		if err != nil {
			s.logger.Error("OCR read failed", "region", what, "error", err)
			res.Warnings = append(res.Warnings, "ocr: "+err.Error())
		}
		res.Screenshot = shot
		if text != "" {
			res.Text, res.Source = text, SourceOCR
		}
	}

	if res.Text == "" {
		return nil, werrors.NewNoText(what)
	}
	res.Lines = ocr.LineCount(res.Text)
	s.logger.Info("read text", "region", what, "source", res.Source, "lines", res.Lines)
	return res, nil
}

// ocrRegion captures crop of w and recognises it. The image is returned
// even when recognition fails.
func (s *Service) ocrRegion(ctx context.Context, w model.Window, crop *model.Crop) (string, image.Image, error) {
	if s.OCR == nil || !s.OCR.Available() {
		return "", nil, werrors.NewUnsupported("OCR (install tesseract or set scraping.tesseract_path)")
	}
	shot, err := s.Capturer.CaptureCrop(ctx, w, crop)
	if err != nil {
		return "", nil, err
	}
	text, err := s.OCR.Recognize(ctx, shot.Image, s.Config.Scraping.OCRLang)
	if err != nil {
		return "", shot.Image, err
	}
	return ocr.Clean(text), shot.Image, nil
}
