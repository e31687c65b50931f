package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mj1618/wingman/internal/capture"
	"github.com/mj1618/wingman/internal/config"
	werrors "github.com/mj1618/wingman/internal/errors"
	"github.com/mj1618/wingman/internal/input"
	"github.com/mj1618/wingman/internal/llm"
	"github.com/mj1618/wingman/internal/logging"
	"github.com/mj1618/wingman/internal/model"
	"github.com/mj1618/wingman/internal/store"
)

var phoneWindow = model.Window{
	Handle:  0x42,
	Process: "PhoneExperienceHost.exe",
	Title:   "Phone Link",
	Bounds:  [4]int{100, 100, 800, 600},
	Visible: true,
}

type fakeWindows struct {
	win model.Window
	err error
}

func (f *fakeWindows) Resolve() (model.Window, error) { return f.win, f.err }

func (f *fakeWindows) FindByTitlePattern(re *regexp.Regexp) (model.Window, error) {
	if f.err != nil || !re.MatchString(f.win.Title) {
		return model.Window{}, werrors.NewWindowNotFound(re.String())
	}
	return f.win, nil
}

type fakeReader struct {
	chat, profile       string
	chatErr, profileErr error
}

func (f *fakeReader) Available() bool { return true }

func (f *fakeReader) ReadChat(uintptr) (string, error) {
	if f.chatErr != nil {
		return "", f.chatErr
	}
	if f.chat == "" {
		return "", werrors.NewNoText("chat")
	}
	return f.chat, nil
}

func (f *fakeReader) ReadProfile(uintptr) (string, error) {
	if f.profileErr != nil {
		return "", f.profileErr
	}
	if f.profile == "" {
		return "", werrors.NewNoText("profile")
	}
	return f.profile, nil
}

type fakeCapturer struct {
	crops []*model.Crop
	err   error
}

func (f *fakeCapturer) CaptureCrop(ctx context.Context, w model.Window, crop *model.Crop) (capture.Result, error) {
	f.crops = append(f.crops, crop)
	if f.err != nil {
		return capture.Result{}, f.err
	}
	return capture.Result{Image: image.NewRGBA(image.Rect(0, 0, 64, 48)), Strategy: "fake", Region: image.Rect(100, 100, 164, 148)}, nil
}

func (f *fakeCapturer) CaptureFull(ctx context.Context, w model.Window) (capture.Result, error) {
	return f.CaptureCrop(ctx, w, nil)
}

type fakeOCR struct {
	text  string
	err   error
	calls int
}

func (f *fakeOCR) Name() string    { return "fake" }
func (f *fakeOCR) Available() bool { return true }

func (f *fakeOCR) Recognize(ctx context.Context, img image.Image, lang string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeModel struct {
	reply    string
	err      error
	messages []llm.Message

	// tools, when set, are executed in order by RunTools.
	tools  []llm.ToolCall
	runErr error
	user   string
}

func (f *fakeModel) Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (*llm.Response, error) {
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.reply}, nil
}

func (f *fakeModel) RunTools(ctx context.Context, system, user string, exec llm.ToolExecutor) (*llm.ToolRun, error) {
	f.user = user
	run := &llm.ToolRun{Iterations: 1}
	if f.runErr != nil {
		return run, f.runErr
	}
	for _, tc := range f.tools {
		res := exec.Execute(ctx, tc.Function.Name, json.RawMessage(tc.Function.Arguments))
		run.DidTools = true
		run.Calls = append(run.Calls, llm.ToolCallRecord{Name: tc.Function.Name, Result: res})
	}
	if !run.DidTools {
		run.Text = "ok"
	}
	return run, nil
}

func (f *fakeModel) Warm(ctx context.Context) (time.Duration, error) { return time.Millisecond, f.err }

func toolCall(name, args string) llm.ToolCall {
	return llm.ToolCall{ID: name, Type: "function", Function: llm.FunctionCall{Name: name, Arguments: args}}
}

// fakeDesktop is both the Focuser and the Inputter; focus always succeeds.
type fakeDesktop struct {
	fg     uintptr
	events []string
	refuse bool
}

func (f *fakeDesktop) ForegroundWindow() uintptr { return f.fg }
func (f *fakeDesktop) Restore(uintptr) error     { return nil }

func (f *fakeDesktop) SetForeground(h uintptr) bool {
	if f.refuse {
		return false
	}
	f.fg = h
	f.events = append(f.events, "<focus>")
	return true
}

func (f *fakeDesktop) ModifierTrick(uintptr) bool { return false }

func (f *fakeDesktop) AttachAndActivate(uintptr) error { return errors.New("denied") }

func (f *fakeDesktop) Click(x, y int) error {
	f.events = append(f.events, "<click>")
	return nil
}

func (f *fakeDesktop) TypeRune(r rune) error {
	f.events = append(f.events, string(r))
	return nil
}

func (f *fakeDesktop) PressEnter() error {
	f.events = append(f.events, "<enter>")
	return nil
}

type fakeMacro struct {
	err   error
	sends []string
	focus bool
}

func (f *fakeMacro) Send(w model.Window, title, text string, focus bool) error {
	if f.err != nil {
		return f.err
	}
	f.sends = append(f.sends, text)
	f.focus = focus
	return nil
}

type fakeDisplays struct {
	monitors []model.Monitor
	active   int
}

func (f *fakeDisplays) Monitors() ([]model.Monitor, error) { return f.monitors, nil }
func (f *fakeDisplays) MonitorFor(uintptr) (int, error)    { return f.active, nil }

type fakePointer struct {
	click  image.Point
	err    error
	client image.Rectangle
}

func (f *fakePointer) WaitForClick(ctx context.Context) (image.Point, error) {
	if f.err != nil {
		return image.Point{}, f.err
	}
	return f.click, nil
}

func (f *fakePointer) ClientArea(uintptr) (image.Rectangle, error) { return f.client, nil }

// harness wires a Service over fakes, a real store, and a temp directory.
type harness struct {
	svc     *Service
	cfg     *config.Config
	windows *fakeWindows
	reader  *fakeReader
	capt    *fakeCapturer
	ocr     *fakeOCR
	model   *fakeModel
	desktop *fakeDesktop
	store   *store.Store
	dir     string
	now     time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.BaseDir = dir
	cfg.Storage.SQLitePath = filepath.Join(dir, "wingman.db")
	cfg.Storage.PeopleDir = filepath.Join(dir, "people")
	cfg.Logging.Dir = filepath.Join(dir, "logs")
	cfg.Behavior.ThrottleSecondsPerChat = 30
	require.NoError(t, cfg.SaveTo(filepath.Join(dir, "config.yaml")))

	st, err := store.Open(cfg.Storage.SQLitePath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	h := &harness{
		cfg:     cfg,
		windows: &fakeWindows{win: phoneWindow},
		reader:  &fakeReader{},
		capt:    &fakeCapturer{},
		ocr:     &fakeOCR{},
		model:   &fakeModel{},
		desktop: &fakeDesktop{},
		store:   st,
		dir:     dir,
		now:     time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC),
	}
	h.svc = h.build(nil)
	return h
}

// build creates a fresh Service over the harness, as a new CLI process
// would. macro may be nil.
func (h *harness) build(macro MacroSender) *Service {
	logger := logging.Discard()
	noSleep := func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	inj := input.NewInjector(h.desktop, h.desktop, h.cfg.Input, logger).WithSleep(noSleep)
	throttle := input.NewThrottle(time.Duration(h.cfg.Behavior.ThrottleSecondsPerChat) * time.Second).
		WithClock(func() time.Time { return h.now })
	return New(Deps{
		Config:    h.cfg,
		Windows:   h.windows,
		Reader:    h.reader,
		Capturer:  h.capt,
		OCR:       h.ocr,
		Model:     h.model,
		Injector:  inj,
		Tools:     input.NewDesktopTools(inj, h.windows, h.cfg.Tools.DefaultTitleRegex, logger),
		Macro:     macro,
		Throttle:  throttle,
		Store:     h.store,
		Artifacts: store.NewArtifacts(h.cfg.Storage.PeopleDir),
		Logger:    logger,
	})
}
