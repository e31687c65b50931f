// Package window finds the phone-mirroring window to read from and type into.
package window

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/mj1618/wingman/internal/config"
	werrors "github.com/mj1618/wingman/internal/errors"
	"github.com/mj1618/wingman/internal/model"
	"github.com/mj1618/wingman/internal/platform"
)

// FallbackTitles are looked up by exact title when no allowlisted process
// owns a usable window.
var FallbackTitles = []string{"Phone Link", "Link to Windows", "Your Phone", "iPhone Mirroring"}

// Resolver picks the target window.
type Resolver struct {
	windows platform.WindowLister
	cfg     *config.Config
	logger  *slog.Logger
}

// NewResolver creates a Resolver over the given window lister.
func NewResolver(windows platform.WindowLister, cfg *config.Config, logger *slog.Logger) *Resolver {
	return &Resolver{
		windows: windows,
		cfg:     cfg,
		logger:  logger.With("component", "window"),
	}
}

// Resolve returns the effective target window:
//  1. the saved handle, if it still refers to a usable window;
//  2. a usable window owned by an allowlisted process, preferring titles
//     that do not mention "settings";
//  3. an exact-title match from FallbackTitles.
func (r *Resolver) Resolve() (model.Window, error) {
	if saved := r.cfg.Scraping.SelectedHWND; saved != 0 {
		if w, ok := r.windows.Window(uintptr(saved)); ok && w.Usable() {
			r.logger.Debug("using saved window", "handle", saved, "title", w.Title)
			return w, nil
		}
		r.logger.Debug("saved window is gone or unusable", "handle", saved)
	}

	all, err := r.windows.ListWindows()
	if err != nil {
		r.logger.Warn("window enumeration failed", "error", err)
	}
	wins := FilterByProcess(usable(all), r.cfg.Targets.PhoneLink.ProcessNames)
	SortWindows(wins)
	if len(wins) > 0 {
		for _, w := range wins {
			t := strings.ToLower(w.Title)
			if t != "" && !strings.Contains(t, "settings") {
				return w, nil
			}
		}
		return wins[0], nil
	}

	for _, title := range FallbackTitles {
		if w, ok := r.windows.FindByTitle(title); ok && w.Usable() {
			return w, nil
		}
	}
	return model.Window{}, werrors.NewWindowNotFound(strings.Join(r.cfg.Targets.PhoneLink.ProcessNames, ", "))
}

// Window looks up a single usable window by handle.
func (r *Resolver) Window(handle uintptr) (model.Window, error) {
	w, ok := r.windows.Window(handle)
	if !ok || !w.Usable() {
		return model.Window{}, werrors.NewWindowNotFound(fmt.Sprintf("handle %d", handle))
	}
	return w, nil
}

// List returns usable windows for the window picker: the phone processes
// plus the configured browsers, or every usable window when all is set.
func (r *Resolver) List(all bool) ([]model.Window, error) {
	wins, err := r.windows.ListWindows()
	if err != nil {
		return nil, fmt.Errorf("listing windows: %w", err)
	}
	wins = usable(wins)
	if !all {
		names := append([]string(nil), r.cfg.Targets.PhoneLink.ProcessNames...)
		names = append(names, r.cfg.Targets.BrowserEdge.ProcessName, r.cfg.Targets.BrowserChrome.ProcessName)
		wins = FilterByProcess(wins, names)
	}
	SortWindows(wins)
	return wins, nil
}

// FindByTitlePattern returns the first usable window whose title matches re.
func (r *Resolver) FindByTitlePattern(re *regexp.Regexp) (model.Window, error) {
	wins, err := r.windows.ListWindows()
	if err != nil {
		return model.Window{}, fmt.Errorf("listing windows: %w", err)
	}
	for _, w := range usable(wins) {
		if re.MatchString(w.Title) {
			return w, nil
		}
	}
	return model.Window{}, werrors.NewWindowNotFound(re.String())
}

// Save stores handle as the selected window and writes the config.
func (r *Resolver) Save(handle uintptr) error {
	r.cfg.Scraping.SelectedHWND = uint64(handle)
	if err := r.cfg.Save(); err != nil {
		return fmt.Errorf("saving selected window: %w", err)
	}
	r.logger.Info("saved selected window", "handle", handle)
	return nil
}

// Clear forgets the selected window and writes the config.
func (r *Resolver) Clear() error {
	r.cfg.Scraping.SelectedHWND = 0
	if err := r.cfg.Save(); err != nil {
		return fmt.Errorf("clearing selected window: %w", err)
	}
	return nil
}

// FilterByProcess keeps windows whose process name is in names
// (case-insensitive). An empty names list keeps nothing.
func FilterByProcess(wins []model.Window, names []string) []model.Window {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if n != "" {
			set[strings.ToLower(n)] = true
		}
	}
	var out []model.Window
	for _, w := range wins {
		if set[strings.ToLower(w.Process)] {
			out = append(out, w)
		}
	}
	return out
}

// SortWindows orders windows by process name, then title length, both
// descending. The sort is stable so equal keys keep enumeration order.
func SortWindows(wins []model.Window) {
	sort.SliceStable(wins, func(i, j int) bool {
		pi, pj := strings.ToLower(wins[i].Process), strings.ToLower(wins[j].Process)
		if pi != pj {
			return pi > pj
		}
		return len(wins[i].Title) > len(wins[j].Title)
	})
}

func usable(wins []model.Window) []model.Window {
	var out []model.Window
	for _, w := range wins {
		if w.Usable() {
			out = append(out, w)
		}
	}
	return out
}
