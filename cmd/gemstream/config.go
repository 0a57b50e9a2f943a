package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the configuration file (~/.config/gemstream/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	ModelPath string `yaml:"model_path"`
	MaxLength *int64 `yaml:"max_length"`

	// Streaming
	TimeoutSeconds *int64 `yaml:"timeout_seconds"`

	// Server
	ServerAddress string `yaml:"server_address"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "gemstream", "config.yaml")
}

// LoadConfig reads the config file. Returns a zero Config when the file does
// not exist.
func LoadConfig() Config {
	var cfg Config
	path := configPath()
	if path == "" {
		return cfg
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	_ = yaml.Unmarshal(raw, &cfg)
	return cfg
}

// applyModelConfig fills model flags from the config file when the
// corresponding CLI flag was not explicitly set.
func applyModelConfig(c *cli.Command, cfg Config, modelPath *string, maxLen *int64) {
	if cfg.ModelPath != "" && !c.IsSet("model") {
		*modelPath = cfg.ModelPath
	}
	if cfg.MaxLength != nil && maxLen != nil && !c.IsSet("max-length") {
		*maxLen = *cfg.MaxLength
	}
}

func applyStreamConfig(c *cli.Command, cfg Config, timeoutSeconds *int64) {
	if cfg.TimeoutSeconds != nil && !c.IsSet("timeout") {
		*timeoutSeconds = *cfg.TimeoutSeconds
	}
}

func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}
