package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mj1618/wingman/internal/config"
	werrors "github.com/mj1618/wingman/internal/errors"
	"github.com/mj1618/wingman/internal/output"
)

// ConfigView is the output of config show. The bearer token is masked.
type ConfigView struct {
	Path        string         `yaml:"path"                   json:"path"`
	TokenSource string         `yaml:"token_source,omitempty" json:"token_source,omitempty"`
	Config      *config.Config `yaml:"config"                 json:"config"`
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the wingman configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(output.Out, cfg.Path())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the configuration file with every default filled in",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(output.Out, cfg.Path())
		return nil
	},
}

var configSetTokenCmd = &cobra.Command{
	Use:   "set-token",
	Short: "Store the model bearer token in the OS keyring",
	Long: `Store the bearer token sent to the model endpoint in the OS keyring, so it
never has to be written to config.yaml. The token is read without echo from
the terminal, or from stdin when piped.

Examples:
  wingman config set-token
  echo "$TOKEN" | wingman config set-token
  wingman config set-token --delete`,
	RunE: runConfigSetToken,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd, configSetTokenCmd)
	configSetTokenCmd.Flags().Bool("delete", false, "Remove the stored token")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	shown := *cfg
	if shown.Model.BearerToken != "" {
		shown.Model.BearerToken = "********"
	}
	return output.Print(ConfigView{Path: cfg.Path(), TokenSource: cfg.TokenSource(), Config: &shown})
}

func runConfigSetToken(cmd *cobra.Command, args []string) error {
	if del, _ := cmd.Flags().GetBool("delete"); del {
		if err := config.DeleteToken(); err != nil {
			return fmt.Errorf("deleting token: %w", err)
		}
		fmt.Fprintln(output.Out, "token removed")
		return nil
	}

	token, err := readToken()
	if err != nil {
		return err
	}
	if token == "" {
		return werrors.NewInvalidRequest("empty token")
	}
	if err := config.StoreToken(token); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	fmt.Fprintln(output.Out, "token stored in the OS keyring")
	return nil
}

func readToken() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Bearer token: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return strings.TrimSpace(line), nil
}
