package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	werrors "github.com/mj1618/wingman/internal/errors"
)

// RunFunc runs an external command with stdin and returns its output.
type RunFunc func(ctx context.Context, name string, args []string, stdin []byte) (stdout, stderr []byte, err error)

// windowsInstallPaths are checked when tesseract is not on PATH.
var windowsInstallPaths = []string{
	`C:\Program Files\Tesseract-OCR\tesseract.exe`,
	`C:\Program Files (x86)\Tesseract-OCR\tesseract.exe`,
}

// Tesseract runs the tesseract CLI with the image on stdin.
type Tesseract struct {
	path    string
	timeout time.Duration
	run     RunFunc
	logger  *slog.Logger
}

// NewTesseract creates the engine. configured overrides the binary location;
// when empty or missing, PATH and the standard install paths are searched.
func NewTesseract(configured string, timeout time.Duration, logger *slog.Logger) *Tesseract {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Tesseract{
		path:    findTesseract(configured),
		timeout: timeout,
		run:     execRun,
		logger:  logger.With("component", "ocr"),
	}
}

// WithRunner replaces the command runner. Used by tests.
func (t *Tesseract) WithRunner(path string, run RunFunc) *Tesseract {
	t.path = path
	t.run = run
	return t
}

func (t *Tesseract) Name() string { return "tesseract" }

// Available reports whether a tesseract binary was found.
func (t *Tesseract) Available() bool { return t.path != "" }

// Path returns the resolved binary.
func (t *Tesseract) Path() string { return t.path }

// Recognize returns the text in img. Failures are OCR_FAILED.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, lang string) (string, error) {
	if !t.Available() {
		return "", werrors.NewOCRFailed(errors.New("tesseract not found; install it or set scraping.tesseract_path"))
	}
	if lang == "" {
		lang = "eng"
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, Prepare(img)); err != nil {
		return "", werrors.NewOCRFailed(fmt.Errorf("encoding png: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	stdout, stderr, err := t.run(ctx, t.path, []string{"stdin", "stdout", "-l", lang}, buf.Bytes())
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", werrors.NewOCRFailed(fmt.Errorf("tesseract timed out after %s", t.timeout))
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return "", werrors.NewOCRFailed(fmt.Errorf("tesseract exited %d: %s", ee.ExitCode(), strings.TrimSpace(string(stderr))))
		}
		return "", werrors.NewOCRFailed(err)
	}
	text := Clean(string(stdout))
	t.logger.Debug("recognized", "chars", len(text), "elapsed", time.Since(start))
	return text, nil
}

func execRun(ctx context.Context, name string, args []string, stdin []byte) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func findTesseract(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
	}
	if p, err := exec.LookPath("tesseract"); err == nil {
		return p
	}
	if runtime.GOOS == "windows" {
		for _, p := range windowsInstallPaths {
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}
