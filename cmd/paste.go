package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/wingman/internal/config"
	werrors "github.com/mj1618/wingman/internal/errors"
	"github.com/mj1618/wingman/internal/orchestrator"
	"github.com/mj1618/wingman/internal/output"
)

var pasteCmd = &cobra.Command{
	Use:   "paste [text...]",
	Short: "Type a reply into the target window",
	Long: `Type a reply into the phone-mirroring window. The AutoHotkey delegate is
used when configured; otherwise the window is focused, the reply box clicked
(vision locator or calibrated point) and the text typed natively.

Sends are throttled per chat (behavior.throttle_seconds_per_chat).

Examples:
  wingman paste "Haha same, what are you up to this weekend?"
  wingman paste --send "See you there!"
  echo "hey" | wingman paste --mode paste_at_cursor`,
	RunE: runPaste,
}

var aiTypeCmd = &cobra.Command{
	Use:   "ai-type [text...]",
	Short: "Let the local model drive focus, typing and Enter to deliver a reply",
	Long: `Ask the model to deliver a reply through the focus_window, type_text and
press_enter tools. If the model calls no tool, the same steps run directly.

Examples:
  wingman ai-type "Sounds fun!"
  wingman ai-type --send-after --title-regex "Phone Link" "On my way"`,
	RunE: runAIType,
}

func init() {
	rootCmd.AddCommand(pasteCmd)
	pasteCmd.Flags().String("mode", "", "Delivery mode: focus_phone_link, paste_at_cursor (default from config)")
	pasteCmd.Flags().Bool("send", false, "Press Enter after typing")

	rootCmd.AddCommand(aiTypeCmd)
	aiTypeCmd.Flags().Bool("send-after", false, "Press Enter after typing")
	aiTypeCmd.Flags().String("title-regex", "", "Window title pattern to focus (default tools.default_title_regex)")
}

func runPaste(cmd *cobra.Command, args []string) error {
	text, err := textArg(args)
	if err != nil {
		return err
	}
	mode, _ := cmd.Flags().GetString("mode")
	switch mode {
	case "", config.PasteFocusPhoneLink, config.PasteAtCursor:
	default:
		return werrors.NewInvalidRequest(fmt.Sprintf("unknown paste mode %q (use focus_phone_link or paste_at_cursor)", mode))
	}
	send, _ := cmd.Flags().GetBool("send")

	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.svc.Paste(cmd.Context(), orchestrator.PasteRequest{Text: text, Mode: mode, Send: send})
	if err != nil {
		return err
	}
	return output.Print(res)
}

func runAIType(cmd *cobra.Command, args []string) error {
	text, err := textArg(args)
	if err != nil {
		return err
	}
	sendAfter, _ := cmd.Flags().GetBool("send-after")
	titleRegex, _ := cmd.Flags().GetString("title-regex")

	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.svc.AIType(cmd.Context(), orchestrator.AITypeRequest{
		Text:       text,
		SendAfter:  sendAfter,
		TitleRegex: titleRegex,
	})
	if err != nil {
		return err
	}
	return output.Print(res)
}
