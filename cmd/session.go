package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mj1618/wingman/internal/orchestrator"
	"github.com/mj1618/wingman/internal/output"
)

// SessionView is the output of session show.
type SessionView struct {
	Path    string                `yaml:"path"    json:"path"`
	Session *orchestrator.Session `yaml:"session" json:"session"`
}

// SessionResetResult is the output of session reset.
type SessionResetResult struct {
	OK   bool   `yaml:"ok"   json:"ok"`
	Path string `yaml:"path" json:"path"`
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or clear the state carried between commands",
	Long: `The session file keeps the last bio, chat and suggestions read, so that
paste and suggest can reuse them, and the time of the last send for the
throttle.

Examples:
  wingman session show
  wingman session reset`,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := sessionStore(cmd)
		if err != nil {
			return err
		}
		sess, err := sessions.Load()
		if err != nil {
			return err
		}
		return output.Print(SessionView{Path: sessions.Path(), Session: sess})
	},
}

var sessionResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the cached match, texts and throttle timestamp",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := sessionStore(cmd)
		if err != nil {
			return err
		}
		if err := sessions.Reset(); err != nil {
			return err
		}
		return output.Print(SessionResetResult{OK: true, Path: sessions.Path()})
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionShowCmd, sessionResetCmd)
}

func sessionStore(cmd *cobra.Command) (*orchestrator.SessionStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return orchestrator.NewSessionStore(filepath.Join(cfg.Storage.BaseDir, orchestrator.SessionFile)), nil
}
