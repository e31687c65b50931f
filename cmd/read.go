package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mj1618/wingman/internal/model"
	"github.com/mj1618/wingman/internal/orchestrator"
	"github.com/mj1618/wingman/internal/output"
	"github.com/mj1618/wingman/internal/store"
)

// TreeResult is the flattened accessibility tree printed by --tree.
type TreeResult struct {
	Window   string              `yaml:"window"   json:"window"`
	Handle   string              `yaml:"handle"   json:"handle"`
	Elements []model.FlatElement `yaml:"elements" json:"elements"`
}

var readProfileCmd = &cobra.Command{
	Use:   "read-profile",
	Short: "Read the match's profile bio from the target window",
	Long: `Read the profile bio through the accessibility tree, falling back to OCR
of the profile crop when the tree yields too little text.

Examples:
  wingman read-profile
  wingman read-profile --screenshot profile.png
  wingman read-profile --tree`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRead(cmd, (*orchestrator.Service).ReadProfile)
	},
}

var readChatCmd = &cobra.Command{
	Use:   "read-chat",
	Short: "Read the visible chat transcript from the target window",
	Long: `Read the chat through the accessibility tree, falling back to OCR of the
chat crop when fewer than scraping.min_chat_lines lines come back.

Examples:
  wingman read-chat
  wingman read-chat --format json
  wingman read-chat --tree`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRead(cmd, (*orchestrator.Service).ReadChat)
	},
}

func init() {
	for _, c := range []*cobra.Command{readProfileCmd, readChatCmd} {
		rootCmd.AddCommand(c)
		c.Flags().String("screenshot", "", "Also write the OCR capture (if one was taken) to this PNG path")
		c.Flags().Bool("tree", false, "Print the flattened accessibility tree the heuristics see instead of reading")
	}
}

func runRead(cmd *cobra.Command, read func(*orchestrator.Service, context.Context) (*orchestrator.ReadResult, error)) error {
	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if tree, _ := cmd.Flags().GetBool("tree"); tree {
		return printTree(a)
	}

	res, err := read(a.svc, cmd.Context())
	if err != nil {
		return err
	}
	if path, _ := cmd.Flags().GetString("screenshot"); path != "" && res.Screenshot != nil {
		if err := store.WritePNG(path, res.Screenshot); err != nil {
			return err
		}
	}
	return output.Print(res)
}

func printTree(a *app) error {
	w, err := a.resolver.Resolve()
	if err != nil {
		return err
	}
	elements, err := a.reader.Tree(w.Handle)
	if err != nil {
		return err
	}
	return output.Print(TreeResult{
		Window:   w.Title,
		Handle:   handleString(w.Handle),
		Elements: elements,
	})
}
