package window

import (
	"path/filepath"
	"regexp"
	"testing"

	"github.com/mj1618/wingman/internal/config"
	werrors "github.com/mj1618/wingman/internal/errors"
	"github.com/mj1618/wingman/internal/logging"
	"github.com/mj1618/wingman/internal/model"
)

type fakeWindows struct {
	wins []model.Window
}

func (f *fakeWindows) ListWindows() ([]model.Window, error) { return f.wins, nil }

func (f *fakeWindows) Window(h uintptr) (model.Window, bool) {
	for _, w := range f.wins {
		if w.Handle == h {
			return w, true
		}
	}
	return model.Window{}, false
}

func (f *fakeWindows) FindByTitle(title string) (model.Window, bool) {
	for _, w := range f.wins {
		if w.Title == title {
			return w, true
		}
	}
	return model.Window{}, false
}

func win(h uintptr, proc, title string) model.Window {
	return model.Window{Handle: h, Process: proc, Title: title, Visible: true, Bounds: [4]int{0, 0, 400, 800}}
}

func newResolver(t *testing.T, wins ...model.Window) (*Resolver, *config.Config) {
	t.Helper()
	cfg := config.Default()
	if err := cfg.SaveTo(filepath.Join(t.TempDir(), "config.yaml")); err != nil {
		t.Fatal(err)
	}
	return NewResolver(&fakeWindows{wins: wins}, cfg, logging.Discard()), cfg
}

func TestResolve(t *testing.T) {
	hidden := win(9, "PhoneExperienceHost.exe", "Tinder")
	hidden.Visible = false

	tests := []struct {
		name  string
		saved uint64
		wins  []model.Window
		want  uintptr
	}{
		{
			name:  "saved handle wins",
			saved: 3,
			wins:  []model.Window{win(1, "PhoneExperienceHost.exe", "Tinder"), win(3, "notepad.exe", "notes")},
			want:  3,
		},
		{
			name:  "stale saved handle falls through",
			saved: 77,
			wins:  []model.Window{win(1, "PhoneExperienceHost.exe", "Tinder")},
			want:  1,
		},
		{
			name: "prefers non-settings title",
			wins: []model.Window{
				win(1, "PhoneExperienceHost.exe", "Phone Link Settings"),
				win(2, "PhoneExperienceHost.exe", "Tinder"),
			},
			want: 2,
		},
		{
			name: "process match is case-insensitive",
			wins: []model.Window{win(4, "phoneexperiencehost.EXE", "Hinge")},
			want: 4,
		},
		{
			name: "only settings windows returns first",
			wins: []model.Window{win(5, "YourPhone.exe", "Settings")},
			want: 5,
		},
		{
			name: "skips unusable windows",
			wins: []model.Window{hidden, win(6, "PhoneExperienceHost.exe", "Bumble")},
			want: 6,
		},
		{
			name: "title fallback",
			wins: []model.Window{win(8, "ApplicationFrameHost.exe", "Phone Link")},
			want: 8,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, cfg := newResolver(t, tt.wins...)
			cfg.Scraping.SelectedHWND = tt.saved
			got, err := r.Resolve()
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if got.Handle != tt.want {
				t.Errorf("Resolve() = %d, want %d", got.Handle, tt.want)
			}
		})
	}
}

func TestResolve_NotFound(t *testing.T) {
	r, _ := newResolver(t, win(1, "notepad.exe", "Untitled"))
	_, err := r.Resolve()
	if !werrors.Is(err, werrors.ErrWindowNotFound) {
		t.Fatalf("expected WINDOW_NOT_FOUND, got %v", err)
	}
}

func TestSortWindows(t *testing.T) {
	wins := []model.Window{
		win(1, "A.exe", "x"),
		win(2, "B.exe", "short"),
		win(3, "B.exe", "much longer title"),
	}
	SortWindows(wins)
	got := []uintptr{wins[0].Handle, wins[1].Handle, wins[2].Handle}
	want := []uintptr{3, 2, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestList(t *testing.T) {
	r, _ := newResolver(t,
		win(1, "PhoneExperienceHost.exe", "Tinder"),
		win(2, "msedge.exe", "Bumble - Edge"),
		win(3, "notepad.exe", "notes"),
	)

	filtered, err := r.List(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 2 {
		t.Errorf("List(false) returned %d windows, want 2", len(filtered))
	}

	all, err := r.List(true)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("List(true) returned %d windows, want 3", len(all))
	}
}

func TestFindByTitlePattern(t *testing.T) {
	r, _ := newResolver(t, win(1, "x.exe", "Inbox"), win(2, "y.exe", "Tinder | Chat"))
	w, err := r.FindByTitlePattern(regexp.MustCompile("Tinder|Phone Link"))
	if err != nil {
		t.Fatal(err)
	}
	if w.Handle != 2 {
		t.Errorf("handle = %d, want 2", w.Handle)
	}
	if _, err := r.FindByTitlePattern(regexp.MustCompile("^nope$")); !werrors.Is(err, werrors.ErrWindowNotFound) {
		t.Errorf("expected WINDOW_NOT_FOUND, got %v", err)
	}
}

func TestSaveAndClear(t *testing.T) {
	r, cfg := newResolver(t, win(1, "PhoneExperienceHost.exe", "Tinder"))
	if err := r.Save(42); err != nil {
		t.Fatal(err)
	}
	reloaded, err := config.Load(cfg.Path())
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Scraping.SelectedHWND != 42 {
		t.Errorf("saved handle = %d, want 42", reloaded.Scraping.SelectedHWND)
	}
	if err := r.Clear(); err != nil {
		t.Fatal(err)
	}
	if cfg.Scraping.SelectedHWND != 0 {
		t.Error("Clear should reset the handle")
	}
}
