package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/wingman/internal/output"
	"github.com/mj1618/wingman/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded matches and suggestion batches",
	Long: `Show suggestion batches from the database, newest first, with the reply
that was sent from each. --matches lists the matches instead.

Examples:
  wingman history
  wingman history --match 3 --limit 5
  wingman history --matches`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Int64("match", 0, "Only batches for this match id")
	historyCmd.Flags().Int("limit", 20, "Maximum number of batches")
	historyCmd.Flags().Bool("matches", false, "List matches instead of suggestion batches")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer st.Close()

	if matches, _ := cmd.Flags().GetBool("matches"); matches {
		list, err := st.ListMatches(cmd.Context())
		if err != nil {
			return err
		}
		return output.Print(list)
	}

	matchID, _ := cmd.Flags().GetInt64("match")
	limit, _ := cmd.Flags().GetInt("limit")
	batches, err := st.RecentSuggestions(cmd.Context(), matchID, limit)
	if err != nil {
		return err
	}
	return output.Print(batches)
}
