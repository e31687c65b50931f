// Package orchestrator sequences a wingman action: read the window,
// generate replies, record them, and deliver the chosen one.
package orchestrator

import (
	"context"
	"image"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/mj1618/wingman/internal/capture"
	"github.com/mj1618/wingman/internal/config"
	"github.com/mj1618/wingman/internal/input"
	"github.com/mj1618/wingman/internal/llm"
	"github.com/mj1618/wingman/internal/model"
	"github.com/mj1618/wingman/internal/ocr"
	"github.com/mj1618/wingman/internal/platform"
	"github.com/mj1618/wingman/internal/vision"
)

// WindowResolver finds the target window.
type WindowResolver interface {
	Resolve() (model.Window, error)
}

// TextReader reads text through the accessibility API.
type TextReader interface {
	Available() bool
	ReadChat(handle uintptr) (string, error)
	ReadProfile(handle uintptr) (string, error)
}

// ImageCapturer captures window regions.
type ImageCapturer interface {
	CaptureCrop(ctx context.Context, w model.Window, crop *model.Crop) (capture.Result, error)
	CaptureFull(ctx context.Context, w model.Window) (capture.Result, error)
}

// ChatModel is the language model.
type ChatModel interface {
	Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (*llm.Response, error)
	RunTools(ctx context.Context, system, user string, exec llm.ToolExecutor) (*llm.ToolRun, error)
	Warm(ctx context.Context) (time.Duration, error)
}

// InputLocator finds the reply box with a vision model.
type InputLocator interface {
	Enabled() bool
	Locate(ctx context.Context, w model.Window) (image.Point, bool)
	Find(ctx context.Context, w model.Window) (*vision.Location, error)
}

// MacroSender delivers text through an external macro tool.
type MacroSender interface {
	Send(w model.Window, title, text string, focus bool) error
}

// Recorder is the database side of persistence.
type Recorder interface {
	UpsertMatch(ctx context.Context, name, source, handle, folder string) (int64, error)
	SaveProfile(ctx context.Context, matchID int64, bio, traitsJSON, screenshotPath string) error
	SaveChat(ctx context.Context, matchID int64, history, summary string) error
	SaveSuggestions(ctx context.Context, matchID int64, prompt string, replies []string) (string, error)
	MarkChosen(ctx context.Context, batchID, text string) error
}

// ArtifactWriter is the file side of persistence.
type ArtifactWriter interface {
	EnsurePersonFolder(name string) (string, error)
	SaveProfile(folder, bio string, traits any, img image.Image) (string, error)
	SaveChatHistory(folder, text string) (string, error)
}

// Deps are the collaborators of a Service. Optional ones may be left nil:
// Reader, OCR, Locator, Macro, Store, Artifacts, Displays, Pointer.
type Deps struct {
	Config    *config.Config
	Windows   WindowResolver
	Reader    TextReader
	Capturer  ImageCapturer
	OCR       ocr.Engine
	Model     ChatModel
	Locator   InputLocator
	Injector  *input.Injector
	Tools     *input.DesktopTools
	Macro     MacroSender
	Throttle  *input.Throttle
	Store     Recorder
	Artifacts ArtifactWriter
	Displays  platform.DisplayLister
	Pointer   platform.PointerWatcher
	Session   *SessionStore
	Logger    *slog.Logger
}

// Service runs wingman actions.
type Service struct {
	Deps
	logger *slog.Logger
}

// New creates a Service.
func New(d Deps) *Service {
	if d.Throttle == nil {
		d.Throttle = input.NewThrottle(time.Duration(d.Config.Behavior.ThrottleSecondsPerChat) * time.Second)
	}
	if d.Session == nil {
		d.Session = NewSessionStore(filepath.Join(d.Config.Storage.BaseDir, SessionFile))
	}
	return &Service{Deps: d, logger: d.Logger.With("component", "orchestrator")}
}

// Warm loads the model with a tiny request and reports how long it took.
func (s *Service) Warm(ctx context.Context) (time.Duration, error) {
	d, err := s.Model.Warm(ctx)
	if err != nil {
		return d, err
	}
	s.logger.Info("model warm", "elapsed", d)
	return d, nil
}

func (s *Service) loadSession() *Session {
	sess, err := s.Session.Load()
	if err != nil {
		s.logger.Warn("session unreadable, starting fresh", "error", err)
		return &Session{}
	}
	return sess
}

func (s *Service) saveSession(sess *Session) {
	if err := s.Session.Save(sess); err != nil {
		s.logger.Warn("saving session failed", "error", err)
	}
}

func (s *Service) logDir() string {
	if s.Config.Logging.Dir == "" {
		return "logs"
	}
	return s.Config.Logging.Dir
}
