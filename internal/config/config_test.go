package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func stubKeyring(t *testing.T, token string) {
	t.Helper()
	origGet, origSet, origDel := keyringGet, keyringSet, keyringDelete
	t.Cleanup(func() { keyringGet, keyringSet, keyringDelete = origGet, origSet, origDel })

	keyringGet = func(service, user string) (string, error) {
		if token == "" {
			return "", errors.New("not found")
		}
		return token, nil
	}
	keyringSet = func(service, user, password string) error {
		token = password
		return nil
	}
	keyringDelete = func(service, user string) error {
		token = ""
		return nil
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	stubKeyring(t, "")
	t.Setenv(TokenEnvVar, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, path, cfg.Path())
	require.True(t, cfg.Scraping.OCRFallback)
	require.Equal(t, 10, cfg.Scraping.MinChatLines)
	require.Equal(t, 8, cfg.Scraping.Accessibility.ChatMinLines)
	require.Equal(t, []int{2, 4, 8}, cfg.Model.RetryBackoffSec)
	require.Equal(t, PasteFocusPhoneLink, cfg.Target.PasteMode)
	require.Equal(t, "", cfg.TokenSource())
}

func TestLoad_OverlaysFileOnDefaults(t *testing.T) {
	stubKeyring(t, "")
	t.Setenv(TokenEnvVar, "")
	t.Setenv("WINGMAN_TEST_MODEL", "qwen2.5:7b")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
model:
  model_name: ${WINGMAN_TEST_MODEL}
scraping:
  ocr_fallback: false
  capture:
    output_index_override: 1
behavior:
  throttle_seconds_per_chat: 20
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "qwen2.5:7b", cfg.Model.ModelName)
	require.False(t, cfg.Scraping.OCRFallback)
	require.NotNil(t, cfg.Scraping.Capture.OutputIndexOverride)
	require.Equal(t, 1, *cfg.Scraping.Capture.OutputIndexOverride)
	require.Equal(t, 20, cfg.Behavior.ThrottleSecondsPerChat)
	// untouched values keep their defaults
	require.Equal(t, "http://localhost:11434", cfg.Model.BaseURL)
	require.Equal(t, 6.0, cfg.Scraping.Capture.BlackThreshold)
}

func TestLoad_InvalidYAML(t *testing.T) {
	stubKeyring(t, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_TokenResolution(t *testing.T) {
	dir := t.TempDir()

	t.Run("keyring", func(t *testing.T) {
		stubKeyring(t, "from-keyring")
		t.Setenv(TokenEnvVar, "")
		cfg, err := Load(filepath.Join(dir, "none.yaml"))
		require.NoError(t, err)
		require.Equal(t, "from-keyring", cfg.Model.BearerToken)
		require.Equal(t, "keyring", cfg.TokenSource())
	})

	t.Run("env beats keyring", func(t *testing.T) {
		stubKeyring(t, "from-keyring")
		t.Setenv(TokenEnvVar, "from-env")
		cfg, err := Load(filepath.Join(dir, "none.yaml"))
		require.NoError(t, err)
		require.Equal(t, "from-env", cfg.Model.BearerToken)
		require.Equal(t, "env", cfg.TokenSource())
	})

	t.Run("file beats env", func(t *testing.T) {
		stubKeyring(t, "from-keyring")
		t.Setenv(TokenEnvVar, "from-env")
		path := filepath.Join(dir, "file.yaml")
		require.NoError(t, os.WriteFile(path, []byte("model:\n  bearer_token: literal\n"), 0o600))
		cfg, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, "literal", cfg.Model.BearerToken)
		require.Equal(t, "file", cfg.TokenSource())
	})
}

func TestSave_DoesNotLeakKeyringToken(t *testing.T) {
	stubKeyring(t, "secret")
	t.Setenv(TokenEnvVar, "")

	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.Scraping.SelectedHWND = 0x1234
	require.NoError(t, cfg.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "secret")

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1234), reloaded.Scraping.SelectedHWND)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file should be renamed away")
}

func TestStoreToken(t *testing.T) {
	stubKeyring(t, "")
	require.NoError(t, StoreToken("abc"))
	require.Equal(t, "abc", GetToken())
	require.NoError(t, DeleteToken())
	require.Equal(t, "", GetToken())
}
