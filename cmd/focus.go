package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/wingman/internal/output"
)

// FocusResult is the output of a successful focus.
type FocusResult struct {
	OK     bool   `yaml:"ok"               json:"ok"`
	Window string `yaml:"window,omitempty" json:"window,omitempty"`
	Handle string `yaml:"handle,omitempty" json:"handle,omitempty"`
}

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Bring the target window to the foreground",
	Long:  "Restore the target window if minimized and bring it to the foreground.",
	RunE:  runFocus,
}

func init() {
	rootCmd.AddCommand(focusCmd)
}

func runFocus(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	w, err := a.resolver.Resolve()
	if err != nil {
		return err
	}
	if err := a.svc.Injector.Focus(cmd.Context(), w); err != nil {
		return err
	}
	return output.Print(FocusResult{
		OK:     true,
		Window: w.Title,
		Handle: handleString(w.Handle),
	})
}
