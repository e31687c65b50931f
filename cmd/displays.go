package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/wingman/internal/output"
)

var detectDisplaysCmd = &cobra.Command{
	Use:   "detect-displays",
	Short: "Record the attached monitors and the one showing the target window",
	Long: `List the monitors with their DPI and scale, store them in the config, and
note which one shows the target window. On a monitor scaled above 150% the
chat crop is narrowed to keep the sidebar out of OCR.`,
	RunE: runDetectDisplays,
}

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Load the model with a tiny request and report how long it took",
	RunE:  runWarm,
}

// WarmResult is the output of warm.
type WarmResult struct {
	Warm      bool   `yaml:"warm"       json:"warm"`
	Model     string `yaml:"model"      json:"model"`
	ElapsedMs int64  `yaml:"elapsed_ms" json:"elapsed_ms"`
}

func init() {
	rootCmd.AddCommand(detectDisplaysCmd)
	rootCmd.AddCommand(warmCmd)
}

func runDetectDisplays(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	rep, err := a.svc.DetectDisplays(cmd.Context())
	if err != nil {
		return err
	}
	return output.Print(rep)
}

func runWarm(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := a.svc.Warm(cmd.Context())
	if err != nil {
		return err
	}
	return output.Print(WarmResult{Warm: true, Model: a.cfg.Model.ModelName, ElapsedMs: d.Milliseconds()})
}
