package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when --config is not given.
const DefaultPath = "config.yaml"

// TokenEnvVar overrides the bearer token from the environment.
const TokenEnvVar = "WINGMAN_BEARER_TOKEN"

// envVarPattern matches ${VAR_NAME} in config values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads the config at path on top of the defaults. A missing file is not
// an error; the defaults are returned and a later Save creates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	loadEnvFiles()

	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := Parse([]byte(expandEnvVars(string(data))), cfg); err != nil {
			return nil, err
		}
	}

	resolveToken(cfg)
	return cfg, nil
}

// Parse overlays YAML bytes onto cfg.
func Parse(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config YAML: %w", err)
	}
	return nil
}

// Save writes the config back to the file it was loaded from.
func (c *Config) Save() error {
	return c.SaveTo(c.path)
}

// SaveTo writes the config as YAML to path via a temp file and rename, so
// readers never observe a partial file. A token that came from the
// environment or keyring is not written out.
func (c *Config) SaveTo(path string) error {
	if path == "" {
		path = DefaultPath
	}
	out := *c
	if c.tokenSource != "file" {
		out.Model.BearerToken = ""
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp config: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod temp config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing config file: %w", err)
	}
	c.path = path
	return nil
}

// loadEnvFiles loads .env files from the working directory.
func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		// godotenv.Load does NOT overwrite existing env vars.
		_ = godotenv.Load(f)
	}
}

// expandEnvVars replaces ${VAR} references with their environment values.
// Unset variables are left in place.
func expandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-1])
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

func resolveToken(cfg *Config) {
	if cfg.Model.BearerToken != "" && !envVarPattern.MatchString(cfg.Model.BearerToken) {
		cfg.tokenSource = "file"
		return
	}
	cfg.Model.BearerToken = ""
	if v := os.Getenv(TokenEnvVar); v != "" {
		cfg.Model.BearerToken = v
		cfg.tokenSource = "env"
		return
	}
	if v := GetToken(); v != "" {
		cfg.Model.BearerToken = v
		cfg.tokenSource = "keyring"
	}
}
