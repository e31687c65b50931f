package input

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/mj1618/wingman/internal/llm"
	"github.com/mj1618/wingman/internal/model"
)

// Tool names offered to the model.
const (
	ToolFocusWindow = "focus_window"
	ToolTypeText    = "type_text"
	ToolPressEnter  = "press_enter"
)

// WindowFinder finds a window by title pattern.
type WindowFinder interface {
	FindByTitlePattern(re *regexp.Regexp) (model.Window, error)
}

// ToolResult is what every desktop tool returns to the model.
type ToolResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// DesktopTools exposes focus, typing and Enter to the model.
type DesktopTools struct {
	inj          *Injector
	finder       WindowFinder
	defaultRegex string
	logger       *slog.Logger
}

// NewDesktopTools creates the tool executor. defaultRegex is used when the
// model calls focus_window without a pattern.
func NewDesktopTools(inj *Injector, finder WindowFinder, defaultRegex string, logger *slog.Logger) *DesktopTools {
	return &DesktopTools{
		inj:          inj,
		finder:       finder,
		defaultRegex: defaultRegex,
		logger:       logger.With("component", "tools"),
	}
}

var _ llm.ToolExecutor = (*DesktopTools)(nil)

// Definitions returns the OpenAI tool definitions.
func (d *DesktopTools) Definitions() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{Type: "function", Function: llm.FunctionDef{
			Name:        ToolFocusWindow,
			Description: "Focus the messaging window before typing",
			Parameters:  json.RawMessage(`{"type":"object","properties":{"title_regex":{"type":"string"}},"required":[]}`),
		}},
		{Type: "function", Function: llm.FunctionDef{
			Name:        ToolTypeText,
			Description: "Type text at the current caret",
			Parameters:  json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"},"per_char_delay":{"type":"number","description":"seconds delay per char, e.g. 0.002"}},"required":["text"]}`),
		}},
		{Type: "function", Function: llm.FunctionDef{
			Name:        ToolPressEnter,
			Description: "Press Enter n times",
			Parameters:  json.RawMessage(`{"type":"object","properties":{"times":{"type":"integer","minimum":1}},"required":[]}`),
		}},
	}
}

// Execute runs one tool call. Failures are reported in the result.
func (d *DesktopTools) Execute(ctx context.Context, name string, args json.RawMessage) any {
	var err error
	switch name {
	case ToolFocusWindow:
		var a struct {
			TitleRegex string `json:"title_regex"`
		}
		if err = decodeArgs(args, &a); err == nil {
			err = d.FocusWindow(ctx, a.TitleRegex)
		}
	case ToolTypeText:
		var a struct {
			Text         string  `json:"text"`
			PerCharDelay float64 `json:"per_char_delay"`
		}
		if err = decodeArgs(args, &a); err == nil {
			err = d.TypeText(ctx, a.Text, a.PerCharDelay)
		}
	case ToolPressEnter:
		var a struct {
			Times int `json:"times"`
		}
		if err = decodeArgs(args, &a); err == nil {
			err = d.inj.Commit(ctx, max(a.Times, 1))
		}
	default:
		err = fmt.Errorf("unknown tool %s", name)
	}
	if err != nil {
		d.logger.Warn("tool failed", "tool", name, "error", err)
		return ToolResult{OK: false, Error: err.Error()}
	}
	return ToolResult{OK: true}
}

// FocusWindow focuses the first usable window whose title matches pattern,
// or the default pattern when empty.
func (d *DesktopTools) FocusWindow(ctx context.Context, pattern string) error {
	if pattern == "" {
		pattern = d.defaultRegex
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("bad title_regex: %w", err)
	}
	w, err := d.finder.FindByTitlePattern(re)
	if err != nil {
		return err
	}
	return d.inj.Focus(ctx, w)
}

// TypeText types text; delaySec overrides the configured per-rune delay
// when positive.
func (d *DesktopTools) TypeText(ctx context.Context, text string, delaySec float64) error {
	if delaySec > 0 {
		return d.inj.TypeTextDelay(ctx, text, time.Duration(delaySec*float64(time.Second)))
	}
	return d.inj.TypeText(ctx, text)
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("bad arguments: %w", err)
	}
	return nil
}
