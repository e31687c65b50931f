package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	werrors "github.com/mj1618/wingman/internal/errors"
	"github.com/mj1618/wingman/internal/model"
)

// interactive reports whether prompts can be shown.
func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

func windowLabel(w model.Window) string {
	title := w.Title
	if title == "" {
		title = "(untitled)"
	}
	return fmt.Sprintf("%s  [%s, 0x%x]", title, w.Process, w.Handle)
}

// pickWindow asks the user to choose one of wins.
func pickWindow(wins []model.Window) (model.Window, error) {
	if len(wins) == 0 {
		return model.Window{}, werrors.NewWindowNotFound("no candidate windows")
	}
	opts := make([]huh.Option[int], len(wins))
	for i, w := range wins {
		opts[i] = huh.NewOption(windowLabel(w), i)
	}
	var idx int
	err := huh.NewSelect[int]().
		Title("Which window shows the chat?").
		Options(opts...).
		Value(&idx).
		Run()
	if err != nil {
		return model.Window{}, fmt.Errorf("window picker: %w", err)
	}
	return wins[idx], nil
}

// pickSuggestion asks the user to choose a reply. ok is false when the user
// chose to send nothing.
func pickSuggestion(suggestions []string) (string, bool, error) {
	opts := make([]huh.Option[int], 0, len(suggestions)+1)
	for i, s := range suggestions {
		opts = append(opts, huh.NewOption(s, i))
	}
	opts = append(opts, huh.NewOption("(none)", -1))
	idx := -1
	err := huh.NewSelect[int]().
		Title("Paste which reply?").
		Options(opts...).
		Value(&idx).
		Run()
	if err != nil {
		return "", false, fmt.Errorf("suggestion picker: %w", err)
	}
	if idx < 0 {
		return "", false, nil
	}
	return suggestions[idx], true, nil
}

func handleString(h uintptr) string {
	return fmt.Sprintf("0x%x", h)
}

// textArg returns the reply text from the arguments, or from stdin when the
// only argument is "-" or none is given on a pipe.
func textArg(args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" || len(args) == 0 && !term.IsTerminal(int(os.Stdin.Fd())) {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return strings.TrimRight(string(b), "\r\n"), nil
	}
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		return "", werrors.NewInvalidRequest("no text given")
	}
	return text, nil
}
