package input

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"

	"github.com/mj1618/wingman/internal/config"
	werrors "github.com/mj1618/wingman/internal/errors"
	"github.com/mj1618/wingman/internal/model"
)

// Paste strategies understood by the macro script.
const (
	StrategyType  = "type"
	StrategyPaste = "paste"
	StrategyAuto  = "auto"
)

// ScriptName is the file the macro script is written to.
const ScriptName = "wingman_paste.ahk"

// ahkScript is an AutoHotkey v2 script taking: mode (focus|nofocus),
// target ("hwnd:N" or a title), the path of a UTF-8 text file, and a
// strategy (type|paste|auto).
const ahkScript = `#Requires AutoHotkey v2.0
SetTitleMatchMode("RegEx")
mode      := A_Args.Length >= 1 ? A_Args[1] : "focus"
target    := A_Args.Length >= 2 ? A_Args[2] : ""
replyPath := A_Args.Length >= 3 ? A_Args[3] : ""
strategy  := A_Args.Length >= 4 ? A_Args[4] : "type"

text := FileExist(replyPath) ? FileRead(replyPath, "UTF-8") : ""
try FileDelete(replyPath)

if (mode = "focus" && target != "") {
    win := target
    if (SubStr(target, 1, 5) = "hwnd:")
        win := "ahk_id " . Format("0x{:X}", Integer(SubStr(target, 6)))
    WinActivate(win)
    WinWaitActive(win,, 2)
}

SendSleep(5)
if (strategy = "type") {
    SendText(text)
} else {
    saved := ClipboardAll()
    try {
        A_Clipboard := ""
        A_Clipboard := text
        ClipWait(strategy = "paste" ? 2 : 1)
        Send("^v")
        Sleep(150)
    } finally {
        Sleep(100)
        A_Clipboard := saved
    }
}
`

// ahkCandidates are the standard AutoHotkey v2 install locations.
var ahkCandidates = []string{
	`C:\Program Files\AutoHotkey\v2\AutoHotkey64.exe`,
	`C:\Program Files\AutoHotkey\v2\AutoHotkey.exe`,
	`C:\Program Files\AutoHotkey\AutoHotkey64.exe`,
	`C:\Program Files\AutoHotkey\AutoHotkey.exe`,
}

// StartFunc launches a process without waiting for it.
type StartFunc func(name string, args ...string) error

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// MacroDelegate hands a send off to an AutoHotkey script.
type MacroDelegate struct {
	exe       string
	scriptDir string
	tempDir   string
	strategy  string
	start     StartFunc
	logger    *slog.Logger
}

// NewMacroDelegate locates the AutoHotkey executable. It returns nil when
// the delegate is disabled or no executable is found.
func NewMacroDelegate(cfg config.AHKConfig, baseDir string, logger *slog.Logger) *MacroDelegate {
	if !cfg.Enabled {
		return nil
	}
	exe := FindAHK(cfg.ExePath)
	if exe == "" {
		logger.Debug("AutoHotkey not found, macro delegate off", "component", "input")
		return nil
	}
	return newMacroDelegate(exe, cfg, baseDir, startDetached, logger)
}

func newMacroDelegate(exe string, cfg config.AHKConfig, baseDir string, start StartFunc, logger *slog.Logger) *MacroDelegate {
	scriptDir := cfg.ScriptDir
	if scriptDir == "" {
		scriptDir = filepath.Join(baseDir, "ahk")
	}
	strategy := cfg.PasteStrategy
	switch strategy {
	case StrategyType, StrategyPaste, StrategyAuto:
	default:
		strategy = StrategyType
	}
	return &MacroDelegate{
		exe:       exe,
		scriptDir: scriptDir,
		tempDir:   filepath.Join(scriptDir, "tmp"),
		strategy:  strategy,
		start:     start,
		logger:    logger.With("component", "macro"),
	}
}

// FindAHK returns the AutoHotkey executable: the configured path, a
// standard install location, or one on PATH. Empty when none exists.
func FindAHK(configured string) string {
	if configured != "" && isFile(configured) {
		return configured
	}
	if runtime.GOOS == "windows" {
		for _, c := range ahkCandidates {
			if isFile(c) {
				return c
			}
		}
	}
	for _, name := range []string{"AutoHotkey.exe", "AutoHotkey64.exe"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

func isFile(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.Mode().IsRegular()
}

// Exe returns the executable in use.
func (m *MacroDelegate) Exe() string { return m.exe }

// Send launches the script for text. focus selects focus mode; w may be
// zero, in which case title is used as the target. The process is not
// waited for.
func (m *MacroDelegate) Send(w model.Window, title, text string, focus bool) error {
	script, err := m.ensureScript()
	if err != nil {
		return err
	}
	replyPath, err := m.writeReply(text)
	if err != nil {
		return err
	}

	target := title
	if w.Handle != 0 {
		target = fmt.Sprintf("hwnd:%d", w.Handle)
	}
	mode := "nofocus"
	if focus {
		mode = "focus"
	}
	if err := m.start(m.exe, script, mode, target, replyPath, m.strategy); err != nil {
		_ = os.Remove(replyPath)
		return werrors.NewInjectionFailed(fmt.Errorf("launching AutoHotkey: %w", err))
	}
	m.logger.Info("macro launched", "mode", mode, "target", target, "strategy", m.strategy)
	return nil
}

func (m *MacroDelegate) ensureScript() (string, error) {
	path := filepath.Join(m.scriptDir, ScriptName)
	if isFile(path) {
		return path, nil
	}
	if err := os.MkdirAll(m.scriptDir, 0o755); err != nil {
		return "", fmt.Errorf("creating script dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(ahkScript), 0o644); err != nil {
		return "", fmt.Errorf("writing macro script: %w", err)
	}
	return path, nil
}

func (m *MacroDelegate) writeReply(text string) (string, error) {
	if err := os.MkdirAll(m.tempDir, 0o700); err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	path := filepath.Join(m.tempDir, "reply_"+uuid.NewString()+".txt")
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		return "", fmt.Errorf("writing reply file: %w", err)
	}
	return path, nil
}
