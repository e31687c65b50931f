package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"strings"

	"github.com/mj1618/wingman/internal/config"
	werrors "github.com/mj1618/wingman/internal/errors"
	"github.com/mj1618/wingman/internal/input"
	"github.com/mj1618/wingman/internal/llm"
	"github.com/mj1618/wingman/internal/model"
)

// OperatorSystemPrompt tells the model how to use the desktop tools.
const OperatorSystemPrompt = `You are a desktop operator. You have tools:
- focus_window(title_regex?)
- type_text(text, per_char_delay?)
- press_enter(times?)

When asked to send a message:
1) Call focus_window first (use the provided title_regex if any).
2) Then call type_text with the exact text.
3) If asked to "send", call press_enter once after typing.
Keep replies minimal; prefer tool calls over plain text.
`

// macroTitle is the macro target when no window handle is known.
const macroTitle = "Phone Link"

// Delivery methods.
const (
	MethodMacro  = "macro"
	MethodNative = "native"
	MethodTools  = "tools"
	MethodDirect = "direct"
)

// PasteRequest is the input to Paste.
type PasteRequest struct {
	Text string
	// Mode is focus_phone_link or paste_at_cursor; empty uses the config.
	Mode string
	// Send presses Enter after typing. It forces native delivery.
	Send bool
}

// DeliveryResult reports how a reply was delivered.
type DeliveryResult struct {
	Method   string       `yaml:"method"             json:"method"`
	Window   string       `yaml:"window,omitempty"   json:"window,omitempty"`
	Clicked  *image.Point `yaml:"clicked,omitempty"  json:"clicked,omitempty"`
	Sent     bool         `yaml:"sent"               json:"sent"`
	Tools    *llm.ToolRun `yaml:"tools,omitempty"    json:"tools,omitempty"`
	Warnings []string     `yaml:"warnings,omitempty" json:"warnings,omitempty"`
}

// checkThrottle restores the last send time from the session, since each
// CLI invocation starts with a fresh throttle.
func (s *Service) checkThrottle(sess *Session) error {
	if sess.LastPaste.After(s.Throttle.Last()) {
		s.Throttle.Restore(sess.LastPaste)
	}
	return s.Throttle.Check()
}

func (s *Service) markSent(sess *Session) {
	s.Throttle.Mark()
	latest := s.loadSession()
	latest.LastPaste = s.Throttle.Last()
	*sess = *latest
	s.saveSession(latest)
}

// Paste delivers text to the target window, through the macro delegate when
// one is configured and otherwise with native input.
func (s *Service) Paste(ctx context.Context, req PasteRequest) (*DeliveryResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, werrors.NewInvalidRequest("nothing to paste")
	}
	sess := s.loadSession()
	if err := s.checkThrottle(sess); err != nil {
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = s.Config.Target.PasteMode
	}
	focus := mode != config.PasteAtCursor

	w, err := s.Windows.Resolve()
	if err != nil {
		if focus {
			return nil, err
		}
		w = model.Window{}
	}
	res := &DeliveryResult{Window: w.Title}

	delivered := false
	if s.Macro != nil && !req.Send {
		if err := s.Macro.Send(w, macroTitle, req.Text, focus); err != nil {
			s.logger.Warn("macro delegate failed, typing natively", "error", err)
			res.Warnings = append(res.Warnings, err.Error())
		} else {
			res.Method, delivered = MethodMacro, true
		}
	}

	if !delivered {
		opts := input.DeliverOptions{Focus: focus}
		if req.Send {
			opts.Commit = 1
		}
		if focus {
			opts.Click = s.clickPoint(ctx, w)
			res.Clicked = opts.Click
		}
		if err := s.Injector.Deliver(ctx, w, req.Text, opts); err != nil {
			return nil, err
		}
		res.Method, res.Sent = MethodNative, req.Send
	}

	s.markSent(sess)
	s.recordChosen(ctx, sess, req.Text, res)
	s.logger.Info("reply delivered", "method", res.Method, "chars", len([]rune(req.Text)))
	return res, nil
}

// clickPoint picks where to click before typing: the vision locator's
// point when enabled, else the calibrated focus point, else nowhere.
func (s *Service) clickPoint(ctx context.Context, w model.Window) *image.Point {
	if s.Locator != nil && s.Locator.Enabled() {
		if pt, ok := s.Locator.Locate(ctx, w); ok {
			return &pt
		}
	}
	if s.Config.Input.FocusClick == nil || s.Pointer == nil {
		return nil
	}
	client, err := s.Pointer.ClientArea(w.Handle)
	if err != nil {
		s.logger.Debug("client area unavailable", "error", err)
		return nil
	}
	if pt, ok := input.FocusPoint(client, s.Config.Input.FocusClick); ok {
		return &pt
	}
	return nil
}

func (s *Service) recordChosen(ctx context.Context, sess *Session, text string, res *DeliveryResult) {
	if s.Store == nil || sess.BatchID == "" {
		return
	}
	for _, sug := range sess.Suggestions {
		if sug == text {
			if err := s.Store.MarkChosen(ctx, sess.BatchID, text); err != nil {
				s.logger.Warn("recording chosen suggestion failed", "error", err)
				res.Warnings = append(res.Warnings, err.Error())
			}
			return
		}
	}
}

// AITypeRequest is the input to AIType.
type AITypeRequest struct {
	Text       string
	SendAfter  bool
	TitleRegex string
}

// AIType lets the model drive the desktop tools to deliver text. When the
// model does not call any tool, the same steps run directly.
func (s *Service) AIType(ctx context.Context, req AITypeRequest) (*DeliveryResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, werrors.NewInvalidRequest("nothing to type")
	}
	sess := s.loadSession()
	if err := s.checkThrottle(sess); err != nil {
		return nil, err
	}
	titleRegex := req.TitleRegex
	if titleRegex == "" {
		titleRegex = s.Config.Tools.DefaultTitleRegex
	}
	perChar := float64(s.Config.Input.TypePerCharDelayMs) / 1000.0

	res := &DeliveryResult{}
	if s.Config.Model.UseTools {
		ask, _ := json.Marshal(map[string]any{
			"action":         "send_message",
			"title_regex":    titleRegex,
			"text":           req.Text,
			"send_after":     req.SendAfter,
			"per_char_delay": perChar,
		})
		run, err := s.Model.RunTools(ctx, OperatorSystemPrompt, "Use your tools to deliver this exactly:\n"+string(ask), s.Tools)
		if run != nil && run.DidTools {
			// Tools already touched the window; typing again would duplicate.
			if err != nil {
				return nil, werrors.NewInjectionFailed(fmt.Errorf("tool run stopped: %w", err))
			}
			res.Method, res.Tools = MethodTools, run
			res.Sent = run.Called(input.ToolPressEnter)
			if req.SendAfter && !res.Sent {
				if err := s.Injector.Commit(ctx, 1); err != nil {
					return nil, werrors.NewInjectionFailed(fmt.Errorf("press_enter failed: %w", err))
				}
				res.Sent = true
			}
			s.markSent(sess)
			return res, nil
		}
		if err != nil {
			s.logger.Warn("tool run failed, typing directly", "error", err)
			res.Warnings = append(res.Warnings, err.Error())
		}
	}

	if err := s.Tools.FocusWindow(ctx, titleRegex); err != nil {
		return nil, werrors.NewInjectionFailed(fmt.Errorf("focus_window failed: %w", err))
	}
	if err := s.Tools.TypeText(ctx, req.Text, perChar); err != nil {
		return nil, werrors.NewInjectionFailed(fmt.Errorf("type_text failed: %w", err))
	}
	if req.SendAfter {
		if err := s.Injector.Commit(ctx, 1); err != nil {
			return nil, werrors.NewInjectionFailed(fmt.Errorf("press_enter failed: %w", err))
		}
		res.Sent = true
	}
	res.Method = MethodDirect
	s.markSent(sess)
	return res, nil
}
