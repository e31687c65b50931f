// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the log file written under the configured log directory.
const FileName = "wingman.log"

// Options controls where and how much is logged.
type Options struct {
	Dir     string // log directory; empty disables the file sink
	Level   string // debug, info, warn, error
	Verbose bool   // forces debug
	Format  string // text (default) or json
	Stderr  io.Writer
}

// New returns a logger writing to stderr and <Dir>/wingman.log, plus a close
// func for the file. The file sink is skipped with a warning when it cannot
// be opened.
func New(opts Options) (*slog.Logger, func() error, error) {
	level := ParseLevel(opts.Level)
	if opts.Verbose {
		level = slog.LevelDebug
	}

	var stderr io.Writer = os.Stderr
	if opts.Stderr != nil {
		stderr = opts.Stderr
	}

	w := stderr
	closeFn := func() error { return nil }
	var fileErr error
	if opts.Dir != "" {
		f, err := openLogFile(opts.Dir)
		if err != nil {
			fileErr = err
		} else {
			w = io.MultiWriter(stderr, f)
			closeFn = f.Close
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if opts.Format == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	logger := slog.New(handler)
	if fileErr != nil {
		logger.Warn("log file disabled", "error", fileErr)
	}
	return logger, closeFn, nil
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything. Used by tests and by
// commands that print machine-readable output only.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openLogFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}
