package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mj1618/wingman/internal/config"
	"github.com/mj1618/wingman/internal/model"
	"github.com/mj1618/wingman/internal/orchestrator"
	"github.com/mj1618/wingman/internal/output"
	"github.com/mj1618/wingman/internal/store"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	prev := output.Out
	output.Out = &buf
	t.Cleanup(func() { output.Out = prev })

	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// writeConfig writes a config file under a temp dir and returns its path.
func writeConfig(t *testing.T, body string) (string, string) {
	t.Helper()
	t.Setenv(config.TokenEnvVar, "env-token")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return dir, path
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	expected := []string{
		"detect-displays", "windows", "choose-window", "focus", "warm",
		"read-profile", "read-chat", "suggest", "ocr-preview", "set-focus",
		"tune-crop", "locate-input", "paste", "ai-type", "history", "session", "config", "serve",
	}
	commands := rootCmd.Commands()

	found := make(map[string]bool)
	for _, c := range commands {
		found[c.Name()] = true
	}

	for _, name := range expected {
		if !found[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	if rootCmd.Version == "" {
		t.Error("root command version should be set")
	}
}

func TestRootCommand_RejectsUnknownFormat(t *testing.T) {
	_, path := writeConfig(t, "")
	if _, err := execute(t, "config", "path", "--config", path, "--format", "xml"); err == nil {
		t.Error("expected an error for --format xml")
	}
}

func TestConfigShow_MasksToken(t *testing.T) {
	_, path := writeConfig(t, "model:\n  bearer_token: s3cret\n  model_name: qwen2.5:7b\n")

	out, err := execute(t, "config", "show", "--config", path, "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "s3cret") {
		t.Errorf("token leaked: %s", out)
	}
	for _, want := range []string{`"token_source":"file"`, "********", "qwen2.5:7b"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestConfigPath(t *testing.T) {
	_, path := writeConfig(t, "")
	out, err := execute(t, "config", "path", "--config", path, "--format", "yaml")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != path {
		t.Errorf("config path = %q, want %q", out, path)
	}
}

func TestHistory(t *testing.T) {
	dir, _ := writeConfig(t, "")
	dbPath := filepath.Join(dir, "wingman.db")
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(fmt.Sprintf("storage:\n  sqlite_path: %q\n", dbPath)), 0o600); err != nil {
		t.Fatal(err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	id, err := st.UpsertMatch(ctx, "Jane", "phone_link", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.SaveSuggestions(ctx, id, "prompt", []string{"Hi!", "How was the hike?"}); err != nil {
		t.Fatal(err)
	}
	st.Close()

	out, err := execute(t, "history", "--config", path, "--format", "yaml")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "How was the hike?") || !strings.Contains(out, "match_name: Jane") {
		t.Errorf("history output = %s", out)
	}

	out, err = execute(t, "history", "--matches", "--config", path, "--format", "yaml")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "name: Jane") {
		t.Errorf("matches output = %s", out)
	}
	historyCmd.Flags().Set("matches", "false")
}

func TestSession_ShowAndReset(t *testing.T) {
	dir, _ := writeConfig(t, "")
	base := filepath.Join(dir, "data")
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(fmt.Sprintf("storage:\n  base_dir: %q\n", base)), 0o600); err != nil {
		t.Fatal(err)
	}
	sessions := orchestrator.NewSessionStore(filepath.Join(base, orchestrator.SessionFile))
	if err := sessions.Save(&orchestrator.Session{Name: "Jane", Chat: "hey"}); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "session", "show", "--config", path, "--format", "yaml")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "name: Jane") || !strings.Contains(out, "chat: hey") {
		t.Errorf("session show = %s", out)
	}

	if _, err := execute(t, "session", "reset", "--config", path, "--format", "yaml"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(sessions.Path()); !os.IsNotExist(err) {
		t.Errorf("session file still present: %v", err)
	}
}

func TestTextArg(t *testing.T) {
	got, err := textArg([]string{"see", "you", "there"})
	if err != nil || got != "see you there" {
		t.Errorf("textArg = %q, %v", got, err)
	}
	if _, err := textArg([]string{"  "}); err == nil {
		t.Error("expected blank text to be rejected")
	}
}

func TestServeSettings(t *testing.T) {
	base := config.Default().Serve
	t.Cleanup(func() {
		serveCmd.Flags().Set("port", "0")
		serveCmd.Flags().Set("cache-ttl", "-1")
	})

	sc := serveSettings(serveCmd, base)
	if sc != base {
		t.Errorf("no flags: got %+v, want %+v", sc, base)
	}

	serveCmd.Flags().Set("port", "9090")
	serveCmd.Flags().Set("cache-ttl", "0")
	sc = serveSettings(serveCmd, base)
	if sc.Port != 9090 || sc.CacheTTLSeconds != 0 || sc.Transport != base.Transport {
		t.Errorf("with flags: got %+v", sc)
	}
}

func TestStartingCrop(t *testing.T) {
	cfg := config.Default()
	custom := model.Crop{Left: 0.3, Top: 0.2, Right: 0.9, Bottom: 0.8}
	cfg.Targets.PhoneLink.ChatCrop = &custom
	cfg.Targets.PhoneLink.ProfileCrop = nil
	a := &app{cfg: cfg}
	t.Cleanup(func() { tuneCropCmd.Flags().Set("preset", "") })

	tests := []struct {
		name   string
		preset string
		target string
		want   model.Crop
	}{
		{"configured chat crop", "", "chat", custom},
		{"unset profile falls back to preset", "", "profile", model.CropProfile},
		{"preset wins", "full", "chat", model.CropFull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tuneCropCmd.Flags().Set("preset", tt.preset)
			got, err := startingCrop(tuneCropCmd, a, tt.target)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("startingCrop = %+v, want %+v", got, tt.want)
			}
		})
	}

	tuneCropCmd.Flags().Set("preset", "tiny")
	if _, err := startingCrop(tuneCropCmd, a, "chat"); err == nil {
		t.Error("expected unknown preset to fail")
	}
}
