package cmd

import (
	"github.com/spf13/cobra"

	werrors "github.com/mj1618/wingman/internal/errors"
	"github.com/mj1618/wingman/internal/orchestrator"
	"github.com/mj1618/wingman/internal/output"
)

// SuggestOutput is the output of suggest; Delivery is set when --pick sent
// one of the replies.
type SuggestOutput struct {
	*orchestrator.SuggestResult `yaml:",inline"`
	Picked                      string                       `yaml:"picked,omitempty"   json:"picked,omitempty"`
	Delivery                    *orchestrator.DeliveryResult `yaml:"delivery,omitempty" json:"delivery,omitempty"`
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Generate reply suggestions for the current conversation",
	Long: `Read the profile and chat (or reuse the last read), ask the model for up
to five replies, and record them in the database and the match's folder.

Examples:
  wingman suggest
  wingman suggest --read --name "Jane"
  wingman suggest --custom "ask about her dog" --tone warm
  wingman suggest --pick --send`,
	RunE: runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)
	suggestCmd.Flags().String("name", "", "Match name, used for the person folder")
	suggestCmd.Flags().String("tone", "", "Tone override (default ui.tone)")
	suggestCmd.Flags().String("custom", "", "Extra instruction for this batch; regenerates from the last read")
	suggestCmd.Flags().Bool("read", false, "Re-read the window instead of reusing the last read")
	suggestCmd.Flags().Bool("pick", false, "Choose a reply interactively and paste it")
	suggestCmd.Flags().Bool("send", false, "With --pick, press Enter after typing")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	tone, _ := cmd.Flags().GetString("tone")
	custom, _ := cmd.Flags().GetString("custom")
	read, _ := cmd.Flags().GetBool("read")
	pick, _ := cmd.Flags().GetBool("pick")
	send, _ := cmd.Flags().GetBool("send")
	if pick && !interactive() {
		return werrors.NewInvalidRequest("--pick needs a terminal")
	}

	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.svc.Suggest(cmd.Context(), orchestrator.SuggestRequest{
		Name:          name,
		Tone:          tone,
		CustomRequest: custom,
		Read:          read,
	})
	if err != nil {
		return err
	}
	out := SuggestOutput{SuggestResult: res}
	if pick && len(res.Suggestions) > 0 {
		text, ok, err := pickSuggestion(res.Suggestions)
		if err != nil {
			return err
		}
		if ok {
			out.Picked = text
			if out.Delivery, err = a.svc.Paste(cmd.Context(), orchestrator.PasteRequest{Text: text, Send: send}); err != nil {
				return err
			}
		}
	}
	return output.Print(out)
}
