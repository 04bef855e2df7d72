// Package config loads the tool configuration from .plens/config.yaml,
// falling back to defaults when the file is absent.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file name inside the store root.
const FileName = "config.yaml"

// Config is the tool configuration. Secrets stay out of the file: only the
// name of the environment variable carrying the API key is configured.
type Config struct {
	Generation Generation `yaml:"generation"`
	Diff       Diff       `yaml:"diff"`
}

type Generation struct {
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"`
	APIKeyEnv      string `yaml:"api_key_env"`
	Responder      string `yaml:"responder"`
	UserName       string `yaml:"user_name"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type Diff struct {
	// Mode selects the text-diff algorithm: "positional" (default) or
	// "edit-distance".
	Mode string `yaml:"mode"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Generation: Generation{
			APIKeyEnv:      "OPENAI_API_KEY",
			UserName:       "You",
			TimeoutSeconds: 120,
		},
		Diff: Diff{Mode: "positional"},
	}
}

// Load reads the configuration from the store root. A missing file yields
// the defaults; a malformed file is an error.
func Load(storeRoot string) (Config, error) {
	cfg := Default()

	path := filepath.Join(storeRoot, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}

	if cfg.Generation.APIKeyEnv == "" {
		cfg.Generation.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Generation.UserName == "" {
		cfg.Generation.UserName = "You"
	}
	return cfg, nil
}
