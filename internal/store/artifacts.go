package store

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// Artifact file names inside a person folder.
const (
	ProfileText  = "profile.txt"
	ProfileJSON  = "profile.json"
	ProfileImage = "profile.png"
)

// Slugify keeps letters, digits, '-', '_' and spaces, trims, replaces
// spaces with '_' and lower-cases. An empty result becomes "unknown".
func Slugify(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == ' ' {
			b.WriteRune(r)
		}
	}
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_"))
	if slug == "" {
		return "unknown"
	}
	return slug
}

// Artifacts writes per-person files under a base directory.
type Artifacts struct {
	baseDir string
	now     func() time.Time
}

// NewArtifacts creates an artifact writer rooted at baseDir.
func NewArtifacts(baseDir string) *Artifacts {
	return &Artifacts{baseDir: baseDir, now: time.Now}
}

// WithClock replaces the clock used for chat file names.
func (a *Artifacts) WithClock(now func() time.Time) *Artifacts {
	a.now = now
	return a
}

// EnsurePersonFolder creates and returns the folder for name.
func (a *Artifacts) EnsurePersonFolder(name string) (string, error) {
	folder := filepath.Join(a.baseDir, Slugify(name))
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("creating person folder: %w", err)
	}
	return folder, nil
}

// SaveProfile writes profile.txt (when bio is non-empty), profile.json
// (when traits is non-nil) and profile.png (when img is non-nil). It
// returns the screenshot path, or "" when none was written.
func (a *Artifacts) SaveProfile(folder, bio string, traits any, img image.Image) (string, error) {
	if bio != "" {
		if err := os.WriteFile(filepath.Join(folder, ProfileText), []byte(bio), 0o644); err != nil {
			return "", fmt.Errorf("writing %s: %w", ProfileText, err)
		}
	}
	if traits != nil {
		data, err := json.MarshalIndent(traits, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding traits: %w", err)
		}
		if err := os.WriteFile(filepath.Join(folder, ProfileJSON), data, 0o644); err != nil {
			return "", fmt.Errorf("writing %s: %w", ProfileJSON, err)
		}
	}
	if img == nil {
		return "", nil
	}
	path := filepath.Join(folder, ProfileImage)
	if err := WritePNG(path, img); err != nil {
		return "", err
	}
	return path, nil
}

// SaveChatHistory writes text to chat_YYYYMMDD-HHMMSS.md and returns the path.
func (a *Artifacts) SaveChatHistory(folder, text string) (string, error) {
	name := fmt.Sprintf("chat_%s.md", a.now().Format("20060102-150405"))
	path := filepath.Join(folder, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("writing chat history: %w", err)
	}
	return path, nil
}

// WritePNG encodes img to path, creating parent directories.
func WritePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding png: %w", err)
	}
	return f.Close()
}
