// Package config loads and saves the wingman configuration file.
package config

import (
	"github.com/mj1618/wingman/internal/model"
)

// Config is the full configuration. The file is read and written wholesale;
// values missing from the file keep their defaults.
type Config struct {
	Target   TargetConfig   `yaml:"target"`
	Targets  TargetsConfig  `yaml:"targets"`
	Scraping ScrapingConfig `yaml:"scraping"`
	Model    ModelConfig    `yaml:"model"`
	Vision   VisionConfig   `yaml:"vision"`
	Input    InputConfig    `yaml:"input"`
	AHK      AHKConfig      `yaml:"ahk"`
	Behavior BehaviorConfig `yaml:"behavior"`
	Tools    ToolsConfig    `yaml:"tools"`
	UI       UIConfig       `yaml:"ui"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
	Serve    ServeConfig    `yaml:"serve"`

	path        string
	tokenSource string
}

// Paste modes.
const (
	PasteFocusPhoneLink = "focus_phone_link"
	PasteAtCursor       = "paste_at_cursor"
)

// TargetConfig selects which window is driven and how replies are delivered.
type TargetConfig struct {
	Default   string `yaml:"default"`    // phone_link, browser_edge, browser_chrome, auto
	PasteMode string `yaml:"paste_mode"` // focus_phone_link or paste_at_cursor
}

// TargetsConfig holds per-target settings.
type TargetsConfig struct {
	PhoneLink     PhoneLinkTarget `yaml:"phone_link"`
	BrowserEdge   BrowserTarget   `yaml:"browser_edge"`
	BrowserChrome BrowserTarget   `yaml:"browser_chrome"`
}

// PhoneLinkTarget describes the phone-mirroring window.
type PhoneLinkTarget struct {
	ProcessNames []string    `yaml:"process_names"`
	ChatCrop     *model.Crop `yaml:"chat_crop,omitempty"`
	ProfileCrop  *model.Crop `yaml:"profile_crop,omitempty"`
}

// BrowserTarget names a browser process shown by the window picker.
type BrowserTarget struct {
	ProcessName string `yaml:"process_name"`
}

// ScrapingConfig controls text extraction.
type ScrapingConfig struct {
	SelectedHWND    uint64              `yaml:"selected_hwnd,omitempty"`
	OCRFallback     bool                `yaml:"ocr_fallback"`
	OCRLang         string              `yaml:"ocr_lang"`
	TesseractPath   string              `yaml:"tesseract_path,omitempty"`
	OCRTimeoutSec   int                 `yaml:"ocr_timeout_seconds"`
	MinChatLines    int                 `yaml:"min_chat_lines"`
	MinProfileChars int                 `yaml:"min_profile_chars"`
	Capture         CaptureConfig       `yaml:"capture"`
	Accessibility   AccessibilityConfig `yaml:"accessibility"`
	Monitors        []model.Monitor     `yaml:"monitors,omitempty"`
	ActiveMonitor   *int                `yaml:"active_monitor,omitempty"`
}

// CaptureConfig tunes the output-capture fast path.
type CaptureConfig struct {
	ForceFullWindow        bool    `yaml:"force_full_window"`
	OutputIndexOverride    *int    `yaml:"output_index_override,omitempty"`
	TryAllOutputs          bool    `yaml:"try_all_outputs"`
	LastWorkingOutputIndex *int    `yaml:"last_working_output_index,omitempty"`
	BlackThreshold         float64 `yaml:"black_threshold"`
}

// AccessibilityConfig holds the accessibility scoring thresholds.
type AccessibilityConfig struct {
	ChatMaxDepth     int `yaml:"chat_max_depth"`
	ChatTextDepth    int `yaml:"chat_text_depth"`
	ChatMinLines     int `yaml:"chat_min_lines"`
	ProfileMaxDepth  int `yaml:"profile_max_depth"`
	ProfileTextDepth int `yaml:"profile_text_depth"`
	ProfileMinLines  int `yaml:"profile_min_lines"`
	ProfileMaxLines  int `yaml:"profile_max_lines"`
	ProfileMaxChars  int `yaml:"profile_max_chars"`
}

// ModelConfig points at the chat model endpoint.
type ModelConfig struct {
	BaseURL           string  `yaml:"base_url"`
	ModelName         string  `yaml:"model_name"`
	BearerToken       string  `yaml:"bearer_token,omitempty"`
	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
	UseTools          bool    `yaml:"use_tools"`
	RequestTimeoutSec int     `yaml:"request_timeout_seconds"`
	RetryBackoffSec   []int   `yaml:"retry_backoff_seconds"`
	MaxToolIterations int     `yaml:"max_tool_iterations"`
}

// VisionConfig configures the optional vision locator.
type VisionConfig struct {
	Enabled           bool   `yaml:"enabled"`
	BaseURL           string `yaml:"base_url"`
	ModelName         string `yaml:"model_name"`
	RequestTimeoutSec int    `yaml:"request_timeout_seconds"`
	Prompt            string `yaml:"prompt,omitempty"`
}

// InputConfig tunes synthetic input.
type InputConfig struct {
	TypePerCharDelayMs int         `yaml:"type_per_char_delay_ms"`
	FocusSettleMs      int         `yaml:"focus_settle_ms"`
	FocusClick         *FocusClick `yaml:"focus_click,omitempty"`
}

// FocusClick is a calibrated click point inside the reply box, stored as a
// fraction of the window's client area.
type FocusClick struct {
	RelativeTo string  `yaml:"relative_to"`
	XPct       float64 `yaml:"x_pct"`
	YPct       float64 `yaml:"y_pct"`
	XOffsetPx  int     `yaml:"x_offset_px"`
	YOffsetPx  int     `yaml:"y_offset_px"`
}

// AHKConfig configures the AutoHotkey macro delegate.
type AHKConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ExePath       string `yaml:"exe_path,omitempty"`
	PasteStrategy string `yaml:"paste_strategy"` // type, paste, auto
	ScriptDir     string `yaml:"script_dir,omitempty"`
}

// BehaviorConfig holds send pacing.
type BehaviorConfig struct {
	ThrottleSecondsPerChat int `yaml:"throttle_seconds_per_chat"`
}

// ToolsConfig configures the model-driven typing tools.
type ToolsConfig struct {
	DefaultTitleRegex string `yaml:"default_title_regex"`
}

// UIConfig holds generation preferences that the GUI used to expose.
type UIConfig struct {
	Tone               string `yaml:"tone"`
	AskQuestionDefault string `yaml:"ask_question_default"`
	MaxReplyChars      int    `yaml:"max_reply_chars"`
}

// StorageConfig locates persistent data.
type StorageConfig struct {
	BaseDir    string `yaml:"base_dir"`
	SQLitePath string `yaml:"sqlite_path"`
	PeopleDir  string `yaml:"people_dir"`
}

// LoggingConfig controls the log sink.
type LoggingConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

// ServeConfig holds defaults for the MCP server.
type ServeConfig struct {
	Transport       string `yaml:"transport"`
	Port            int    `yaml:"port"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	WarmSchedule    string `yaml:"warm_schedule,omitempty"`
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string { return c.path }

// TokenSource reports where the bearer token came from: "file", "env",
// "keyring", or "" when there is none.
func (c *Config) TokenSource() string { return c.tokenSource }

// ChatCrop returns the configured chat crop, or nil for the whole window.
func (c *Config) ChatCrop() *model.Crop { return c.Targets.PhoneLink.ChatCrop }

// ProfileCrop returns the configured profile crop, or nil for the whole window.
func (c *Config) ProfileCrop() *model.Crop { return c.Targets.PhoneLink.ProfileCrop }
