package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mj1618/wingman/internal/output"
	"github.com/mj1618/wingman/internal/platform"
	"github.com/mj1618/wingman/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "wingman",
	Short: "Read a mirrored dating chat and suggest replies with a local model",
	Long: `wingman reads the profile and chat shown in a phone-mirroring window
(accessibility first, OCR as a fallback), asks a local OpenAI-compatible
model for reply suggestions, records them, and types the chosen reply back.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Structured errors are printed in the
// current output format; anything else goes to stderr.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !output.PrintError(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("config", "", "Config file (default config.yaml)")
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Indent JSON output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Debug logging")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if platform.RequestPermissionsFunc != nil {
			platform.RequestPermissionsFunc()
		}

		format, _ := rootCmd.PersistentFlags().GetString("format")
		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		output.OutputFormat = f
		output.PrettyOutput, _ = rootCmd.PersistentFlags().GetBool("pretty")
		return nil
	}
}
