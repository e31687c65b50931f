package cmd

import (
	"github.com/spf13/cobra"

	werrors "github.com/mj1618/wingman/internal/errors"
	"github.com/mj1618/wingman/internal/model"
	"github.com/mj1618/wingman/internal/output"
	"github.com/mj1618/wingman/internal/platform"
)

// WindowsResult is the output of the windows command.
type WindowsResult struct {
	Target  *model.Window  `yaml:"target,omitempty" json:"target,omitempty"`
	Windows []model.Window `yaml:"windows"          json:"windows"`
}

// ChooseWindowResult is the output of choose-window.
type ChooseWindowResult struct {
	OK      bool          `yaml:"ok"                json:"ok"`
	Cleared bool          `yaml:"cleared,omitempty" json:"cleared,omitempty"`
	Window  *model.Window `yaml:"window,omitempty"  json:"window,omitempty"`
}

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List candidate phone-mirroring windows and the current target",
	RunE:  runWindows,
}

var chooseWindowCmd = &cobra.Command{
	Use:   "choose-window",
	Short: "Pick the window wingman reads from and types into",
	Long: `Pick the target window and save its handle in the config.

Without --handle an interactive picker lists the phone-mirroring and browser
windows (or every window with --all).

Examples:
  wingman choose-window
  wingman choose-window --handle 0x1a2b3c
  wingman choose-window --clear`,
	RunE: runChooseWindow,
}

func init() {
	rootCmd.AddCommand(windowsCmd)
	windowsCmd.Flags().Bool("all", false, "List every usable top-level window")

	rootCmd.AddCommand(chooseWindowCmd)
	chooseWindowCmd.Flags().String("handle", "", "Window handle (decimal or 0x hex) to save without prompting")
	chooseWindowCmd.Flags().Bool("all", false, "Offer every usable top-level window")
	chooseWindowCmd.Flags().Bool("clear", false, "Forget the saved window and go back to automatic resolution")
}

func runWindows(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	all, _ := cmd.Flags().GetBool("all")
	wins, err := a.resolver.List(all)
	if err != nil {
		return err
	}
	res := WindowsResult{Windows: wins}
	if w, err := a.resolver.Resolve(); err == nil {
		res.Target = &w
	}
	return output.Print(res)
}

func runChooseWindow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if clear, _ := cmd.Flags().GetBool("clear"); clear {
		if err := a.resolver.Clear(); err != nil {
			return err
		}
		return output.Print(ChooseWindowResult{OK: true, Cleared: true})
	}

	var w model.Window
	if h, _ := cmd.Flags().GetString("handle"); h != "" {
		handle, err := platform.ParseHandle(h)
		if err != nil {
			return werrors.NewInvalidRequest(err.Error())
		}
		if w, err = a.resolver.Window(handle); err != nil {
			return err
		}
	} else {
		if !interactive() {
			return werrors.NewInvalidRequest("no terminal for the picker; pass --handle")
		}
		all, _ := cmd.Flags().GetBool("all")
		wins, err := a.resolver.List(all)
		if err != nil {
			return err
		}
		if w, err = pickWindow(wins); err != nil {
			return err
		}
	}

	if err := a.resolver.Save(w.Handle); err != nil {
		return err
	}
	return output.Print(ChooseWindowResult{OK: true, Window: &w})
}
