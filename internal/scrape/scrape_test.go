package scrape

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mj1618/wingman/internal/config"
	werrors "github.com/mj1618/wingman/internal/errors"
	"github.com/mj1618/wingman/internal/logging"
	"github.com/mj1618/wingman/internal/model"
)

var defaults = ThresholdsFrom(config.Default().Scraping.Accessibility)

func texts(prefix string, n int) []model.Element {
	out := make([]model.Element, n)
	for i := range out {
		out[i] = model.Element{Role: model.RoleText, Title: fmt.Sprintf("%s %d", prefix, i)}
	}
	return out
}

func node(role string, children ...model.Element) model.Element {
	return model.Element{Role: role, Children: children}
}

// nested wraps leaf in n panes under a window.
func nested(n int, leaf model.Element) model.Element {
	for i := 0; i < n; i++ {
		leaf = node(model.RolePane, leaf)
	}
	return node(model.RoleWindow, leaf)
}

func TestPickChat(t *testing.T) {
	tests := []struct {
		name   string
		root   model.Element
		want   string
		wantOK bool
	}{
		{
			name: "largest list wins",
			root: node(model.RoleWindow,
				node(model.RolePane, texts("side", 3)...),
				node(model.RoleList, texts("msg", 9)...),
			),
			want:   "msg 0",
			wantOK: true,
		},
		{
			name: "below minimum",
			root: node(model.RoleWindow,
				node(model.RoleList, texts("msg", 7)...),
			),
		},
		{
			name: "tie goes to first in traversal",
			root: node(model.RoleWindow,
				node(model.RoleGroup, texts("first", 8)...),
				node(model.RoleList, texts("second", 8)...),
			),
			want:   "first 0",
			wantOK: true,
		},
		{
			name: "buttons are not candidates",
			root: node(model.RoleWindow,
				node(model.RoleButton, texts("btn", 12)...),
			),
		},
		{
			name: "candidate deeper than max depth is ignored",
			root: nested(8, node(model.RoleList, texts("deep", 10)...)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PickChat(tt.root, defaults)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !strings.HasPrefix(got, tt.want) {
				t.Errorf("PickChat() = %q, want prefix %q", got, tt.want)
			}
		})
	}
}

func TestPickChat_JoinsLines(t *testing.T) {
	root := node(model.RoleWindow, node(model.RoleList, texts("m", 8)...))
	got, ok := PickChat(root, defaults)
	if !ok {
		t.Fatal("expected chat")
	}
	if n := strings.Count(got, "\n"); n != 7 {
		t.Errorf("expected 7 newlines, got %d", n)
	}
}

func TestPickProfile(t *testing.T) {
	long := make([]model.Element, 6)
	for i := range long {
		long[i] = model.Element{Role: model.RoleText, Title: strings.Repeat("x", 600)}
	}
	accented := make([]model.Element, 6)
	for i := range accented {
		accented[i] = model.Element{Role: model.RoleText, Title: strings.Repeat("é", 400)}
	}

	tests := []struct {
		name   string
		root   model.Element
		want   string
		wantOK bool
	}{
		{
			name: "smallest qualifying block wins",
			root: node(model.RoleWindow,
				node(model.RolePane, texts("chat", 40)...),
				node(model.RoleGroup, texts("bio", 6)...),
			),
			want:   "bio 0",
			wantOK: true,
		},
		{
			name: "too few lines",
			root: node(model.RoleWindow, node(model.RoleGroup, texts("bio", 4)...)),
		},
		{
			name: "too many characters",
			root: node(model.RoleWindow, node(model.RoleGroup, long...)),
		},
		{
			name:   "limit counts characters not bytes",
			root:   node(model.RoleWindow, node(model.RoleGroup, accented...)),
			want:   "é",
			wantOK: true,
		},
		{
			name: "lists are not profile blocks",
			root: node(model.RoleWindow, node(model.RoleList, texts("bio", 6)...)),
		},
		{
			name: "tie goes to first",
			root: node(model.RoleWindow,
				node(model.RolePane, texts("a", 5)...),
				node(model.RoleGroup, texts("b", 5)...),
			),
			want:   "a 0",
			wantOK: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PickProfile(tt.root, defaults)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v (got %q)", ok, tt.wantOK, got)
			}
			if ok && !strings.HasPrefix(got, tt.want) {
				t.Errorf("PickProfile() = %q, want prefix %q", got, tt.want)
			}
		})
	}
}

type fakeTree struct {
	root  model.Element
	err   error
	depth int
}

func (f *fakeTree) ReadTree(h uintptr, depth int) (model.Element, error) {
	f.depth = depth
	return f.root, f.err
}

// limitTree returns its root cut off below depth levels, the root being
// level 1, the way the UI Automation walker stops.
type limitTree struct {
	root model.Element
}

func (l *limitTree) ReadTree(h uintptr, depth int) (model.Element, error) {
	var cut func(el model.Element, level int) model.Element
	cut = func(el model.Element, level int) model.Element {
		out := el
		out.Children = nil
		if depth > 0 && level >= depth {
			return out
		}
		for _, c := range el.Children {
			out.Children = append(out.Children, cut(c, level+1))
		}
		return out
	}
	return cut(l.root, 1), nil
}

func TestReader_DeepestCandidateSurvivesDepthLimit(t *testing.T) {
	// Innermost group holds the lines at the deepest text level of a list
	// at the deepest candidate level.
	inner := node(model.RoleGroup, texts("m", 9)...)
	for i := 1; i < defaults.ChatTextDepth; i++ {
		inner = node(model.RoleGroup, inner)
	}
	root := nested(defaults.ChatMaxDepth, node(model.RoleList, inner))

	if _, ok := PickChat(root, defaults); !ok {
		t.Fatal("expected the full tree to yield a chat")
	}

	r := NewReader(&limitTree{root: root}, defaults, logging.Discard())
	got, err := r.ReadChat(1)
	if err != nil {
		t.Fatalf("ReadChat() error = %v", err)
	}
	if n := strings.Count(got, "\n") + 1; n != 9 {
		t.Errorf("ReadChat() returned %d lines, want 9", n)
	}
}

func TestReader(t *testing.T) {
	tree := &fakeTree{root: node(model.RoleWindow, node(model.RoleList, texts("m", 3)...))}
	r := NewReader(tree, defaults, logging.Discard())

	_, err := r.ReadChat(1)
	if !werrors.Is(err, werrors.ErrNoText) {
		t.Errorf("expected NO_TEXT, got %v", err)
	}
	if tree.depth != r.Depth() {
		t.Errorf("tree read with depth %d, want %d", tree.depth, r.Depth())
	}

	tree.err = errors.New("com failure")
	if _, err := r.ReadProfile(1); err == nil || werrors.Is(err, werrors.ErrNoText) {
		t.Errorf("expected OS error to propagate, got %v", err)
	}

	none := NewReader(nil, defaults, logging.Discard())
	if none.Available() {
		t.Error("reader without tree should be unavailable")
	}
	if _, err := none.ReadChat(1); !werrors.Is(err, werrors.ErrUnsupported) {
		t.Errorf("expected UNSUPPORTED, got %v", err)
	}
}

func TestReader_Tree(t *testing.T) {
	root := node(model.RoleWindow, node(model.RoleList, texts("m", 2)...))
	model.Renumber(&root)
	r := NewReader(&fakeTree{root: root}, defaults, logging.Discard())

	flat, err := r.Tree(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(flat) != 4 {
		t.Fatalf("expected 4 elements, got %d", len(flat))
	}
	if flat[3].Title != "m 1" || flat[3].Path != "window > list > txt" {
		t.Errorf("last element = %+v", flat[3])
	}

	if _, err := NewReader(nil, defaults, logging.Discard()).Tree(1); !werrors.Is(err, werrors.ErrUnsupported) {
		t.Errorf("expected UNSUPPORTED, got %v", err)
	}
}
