// Package scrape extracts chat and profile text from an accessibility tree.
package scrape

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mj1618/wingman/internal/config"
	werrors "github.com/mj1618/wingman/internal/errors"
	"github.com/mj1618/wingman/internal/model"
	"github.com/mj1618/wingman/internal/platform"
)

// Thresholds tune the chat and profile heuristics.
type Thresholds struct {
	ChatMaxDepth     int
	ChatTextDepth    int
	ChatMinLines     int
	ProfileMaxDepth  int
	ProfileTextDepth int
	ProfileMinLines  int
	ProfileMaxLines  int
	ProfileMaxChars  int
}

// ThresholdsFrom copies the accessibility settings out of the config.
func ThresholdsFrom(c config.AccessibilityConfig) Thresholds {
	return Thresholds{
		ChatMaxDepth:     c.ChatMaxDepth,
		ChatTextDepth:    c.ChatTextDepth,
		ChatMinLines:     c.ChatMinLines,
		ProfileMaxDepth:  c.ProfileMaxDepth,
		ProfileTextDepth: c.ProfileTextDepth,
		ProfileMinLines:  c.ProfileMinLines,
		ProfileMaxLines:  c.ProfileMaxLines,
		ProfileMaxChars:  c.ProfileMaxChars,
	}
}

// PickChat returns the chat transcript: among list, pane and group
// descendants, the one with the most text lines. The first candidate in
// traversal order wins ties. ok is false when the best has fewer than
// ChatMinLines lines.
func PickChat(root model.Element, th Thresholds) (string, bool) {
	var best []string
	bestScore := -1
	for _, c := range model.Descendants(root, th.ChatMaxDepth) {
		switch c.Role {
		case model.RoleList, model.RolePane, model.RoleGroup:
		default:
			continue
		}
		lines := model.TextLines(c, th.ChatTextDepth)
		if len(lines) > bestScore {
			bestScore = len(lines)
			best = lines
		}
	}
	if bestScore < th.ChatMinLines || len(best) == 0 {
		return "", false
	}
	return strings.Join(best, "\n"), true
}

// PickProfile returns the bio block: among pane and group descendants whose
// line count is within [ProfileMinLines, ProfileMaxLines] and whose text is
// shorter than ProfileMaxChars characters, the one with the fewest lines. The first in
// traversal order wins ties.
func PickProfile(root model.Element, th Thresholds) (string, bool) {
	best := ""
	bestLines := -1
	for _, c := range model.Descendants(root, th.ProfileMaxDepth) {
		if c.Role != model.RolePane && c.Role != model.RoleGroup {
			continue
		}
		lines := model.TextLines(c, th.ProfileTextDepth)
		if len(lines) < th.ProfileMinLines || len(lines) > th.ProfileMaxLines {
			continue
		}
		text := strings.Join(lines, "\n")
		if utf8.RuneCountInString(text) >= th.ProfileMaxChars {
			continue
		}
		if bestLines < 0 || len(lines) < bestLines {
			bestLines = len(lines)
			best = text
		}
	}
	return best, bestLines >= 0
}

// Reader reads the live tree of a window and applies the heuristics.
type Reader struct {
	tree   platform.TreeReader
	th     Thresholds
	logger *slog.Logger
}

// NewReader creates a Reader. tree may be nil on platforms without an
// accessibility API, in which case every read reports ErrUnsupported.
func NewReader(tree platform.TreeReader, th Thresholds, logger *slog.Logger) *Reader {
	return &Reader{tree: tree, th: th, logger: logger.With("component", "scrape")}
}

// Available reports whether an accessibility backend is present.
func (r *Reader) Available() bool { return r.tree != nil }

// ReadChat returns the chat transcript of the window.
func (r *Reader) ReadChat(handle uintptr) (string, error) {
	root, err := r.read(handle)
	if err != nil {
		return "", err
	}
	text, ok := PickChat(root, r.th)
	if !ok {
		return "", werrors.NewNoText("chat")
	}
	r.logger.Debug("chat read", "lines", strings.Count(text, "\n")+1)
	return text, nil
}

// ReadProfile returns the profile bio of the window.
func (r *Reader) ReadProfile(handle uintptr) (string, error) {
	root, err := r.read(handle)
	if err != nil {
		return "", err
	}
	text, ok := PickProfile(root, r.th)
	if !ok {
		return "", werrors.NewNoText("profile")
	}
	r.logger.Debug("profile read", "chars", utf8.RuneCountInString(text))
	return text, nil
}

// Tree returns the window's accessibility tree, flattened, as deep as the
// heuristics read it.
func (r *Reader) Tree(handle uintptr) ([]model.FlatElement, error) {
	root, err := r.read(handle)
	if err != nil {
		return nil, err
	}
	return model.Flatten(root), nil
}

// Depth is the number of tree levels the heuristics can look at, counting
// the window itself as the first. A candidate sits up to MaxDepth+1 levels
// below the window and its text up to TextDepth+1 levels below that.
func (r *Reader) Depth() int {
	chat := r.th.ChatMaxDepth + r.th.ChatTextDepth + 3
	profile := r.th.ProfileMaxDepth + r.th.ProfileTextDepth + 3
	return max(chat, profile)
}

func (r *Reader) read(handle uintptr) (model.Element, error) {
	if r.tree == nil {
		return model.Element{}, werrors.NewUnsupported("accessibility reading")
	}
	root, err := r.tree.ReadTree(handle, r.Depth())
	if err != nil {
		return model.Element{}, fmt.Errorf("reading accessibility tree: %w", err)
	}
	return root, nil
}
