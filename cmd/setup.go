package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/wingman/internal/config"
	werrors "github.com/mj1618/wingman/internal/errors"
	"github.com/mj1618/wingman/internal/model"
	"github.com/mj1618/wingman/internal/orchestrator"
	"github.com/mj1618/wingman/internal/output"
	"github.com/mj1618/wingman/internal/platform"
)

var ocrPreviewCmd = &cobra.Command{
	Use:   "ocr-preview",
	Short: "Capture the chat and profile crops, save them as PNGs and OCR them",
	RunE:  runOCRPreview,
}

var setFocusCmd = &cobra.Command{
	Use:   "set-focus",
	Short: "Calibrate where to click before typing",
	Long: `Wait for a click inside the reply box of the target window and store it
as a fraction of the window's client area. --at stores a known screen point
instead of waiting.

Examples:
  wingman set-focus
  wingman set-focus --timeout 30s
  wingman set-focus --at 812,1340`,
	RunE: runSetFocus,
}

var tuneCropCmd = &cobra.Command{
	Use:   "tune-crop <chat|profile>",
	Short: "Preview a crop of the target window and optionally save it",
	Long: `Capture a crop of the target window and write a thumbnail to the log
directory. Start from the configured crop or a preset and adjust single edges
with --left, --top, --right, --bottom (fractions of the window).

Examples:
  wingman tune-crop chat
  wingman tune-crop chat --preset full
  wingman tune-crop profile --left 0.55 --save`,
	Args: cobra.ExactArgs(1),
	RunE: runTuneCrop,
}

var locateInputCmd = &cobra.Command{
	Use:   "locate-input",
	Short: "Ask the vision model where the reply box is",
	RunE:  runLocateInput,
}

func init() {
	rootCmd.AddCommand(ocrPreviewCmd)

	rootCmd.AddCommand(setFocusCmd)
	setFocusCmd.Flags().Duration("timeout", orchestrator.DefaultCalibrateTimeout, "How long to wait for the click")
	setFocusCmd.Flags().String("at", "", "Screen point x,y to store instead of waiting for a click")

	rootCmd.AddCommand(tuneCropCmd)
	tuneCropCmd.Flags().String("preset", "", "Start from a preset: chat, profile, full")
	tuneCropCmd.Flags().Float64("left", -1, "Left edge (0-1)")
	tuneCropCmd.Flags().Float64("top", -1, "Top edge (0-1)")
	tuneCropCmd.Flags().Float64("right", -1, "Right edge (0-1)")
	tuneCropCmd.Flags().Float64("bottom", -1, "Bottom edge (0-1)")
	tuneCropCmd.Flags().Bool("save", false, "Save the crop to the config")

	rootCmd.AddCommand(locateInputCmd)
	locateInputCmd.Flags().String("annotate", "", "Write a screenshot with the located point marked to this PNG path")
}

func runOCRPreview(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	previews, err := a.svc.SaveOCRPreviews(cmd.Context())
	if err != nil {
		return err
	}
	return output.Print(previews)
}

func runSetFocus(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	at, _ := cmd.Flags().GetString("at")

	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	var fc *config.FocusClick
	if at != "" {
		pt, err := platform.ParsePoint(at)
		if err != nil {
			return werrors.NewInvalidRequest(err.Error())
		}
		fc, err = a.svc.SetFocusPoint(cmd.Context(), pt)
		if err != nil {
			return err
		}
	} else {
		a.logger.Info("click inside the reply box of the target window", "timeout", timeout)
		fc, err = a.svc.CalibrateFocus(cmd.Context(), timeout)
		if err != nil {
			return err
		}
	}
	return output.Print(fc)
}

func runTuneCrop(cmd *cobra.Command, args []string) error {
	target := args[0]
	if target != "chat" && target != "profile" {
		return werrors.NewInvalidRequest("target must be chat or profile")
	}

	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	crop, err := startingCrop(cmd, a, target)
	if err != nil {
		return err
	}
	edges := []struct {
		flag string
		dst  *float64
	}{
		{"left", &crop.Left},
		{"top", &crop.Top},
		{"right", &crop.Right},
		{"bottom", &crop.Bottom},
	}
	for _, e := range edges {
		if v, _ := cmd.Flags().GetFloat64(e.flag); v >= 0 {
			*e.dst = v
		}
	}
	save, _ := cmd.Flags().GetBool("save")

	res, err := a.svc.TuneCrop(cmd.Context(), target, crop, save)
	if err != nil {
		return err
	}
	return output.Print(res)
}

// startingCrop is the preset named by --preset, else the configured crop
// for target, else the target's preset.
func startingCrop(cmd *cobra.Command, a *app, target string) (model.Crop, error) {
	if name, _ := cmd.Flags().GetString("preset"); name != "" {
		c, ok := model.CropPresets[name]
		if !ok {
			return model.Crop{}, werrors.NewInvalidRequest(fmt.Sprintf("unknown preset %q (use chat, profile or full)", name))
		}
		return c, nil
	}
	current := a.cfg.ChatCrop()
	if target == "profile" {
		current = a.cfg.ProfileCrop()
	}
	if current != nil {
		return *current, nil
	}
	return model.CropPresets[target], nil
}

func runLocateInput(cmd *cobra.Command, args []string) error {
	annotate, _ := cmd.Flags().GetString("annotate")

	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.svc.LocateInput(cmd.Context(), annotate)
	if err != nil {
		return err
	}
	return output.Print(res)
}
