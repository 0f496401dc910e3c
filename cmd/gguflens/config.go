package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the gguflens configuration file (~/.config/gguflens/config.yaml).
// Scalar fields are pointers so we can distinguish "not set" from zero values.
type Config struct {
	ModelsDir   string `yaml:"models_dir"`
	CatalogPath string `yaml:"catalog_path"`

	// Decoding
	MaxDepth      *int  `yaml:"max_depth"`
	AllowBadMagic *bool `yaml:"allow_bad_magic"`

	// Scanning
	Workers *int `yaml:"workers"`

	// Server
	ServerAddress  string `yaml:"server_address"`
	MaxUploadBytes *int64 `yaml:"max_upload_bytes"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "gguflens", "config.yaml")
}

// loadConfig reads path. A missing file yields a zero Config; a malformed
// one is an error.
func loadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyScanConfig applies config file defaults to scan command variables
// when the corresponding CLI flag was not explicitly set.
func applyScanConfig(c *cli.Command, cfg Config, workers *int64) {
	if cfg.CatalogPath != "" && !c.IsSet("catalog") {
		catalogPath = cfg.CatalogPath
	}
	if cfg.Workers != nil && !c.IsSet("workers") {
		*workers = int64(*cfg.Workers)
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string, maxUpload *int64) {
	if cfg.CatalogPath != "" && !c.IsSet("catalog") {
		catalogPath = cfg.CatalogPath
	}
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.MaxUploadBytes != nil && !c.IsSet("max-upload") {
		*maxUpload = *cfg.MaxUploadBytes
	}
}
