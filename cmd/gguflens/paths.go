package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	envConfigPath  = "GGUFLENS_CONFIG"
	envCatalogPath = "GGUFLENS_CATALOG"
	envModelsDir   = "GGUFLENS_MODELS_DIR"
)

// resolveCatalogPath returns the catalog location: the flag or config value
// when set, otherwise catalog.db under the user cache directory. The parent
// directory is created.
func resolveCatalogPath(flagValue string) (string, error) {
	p := strings.TrimSpace(flagValue)
	if p == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("no catalog path and no cache directory: %w", err)
		}
		p = filepath.Join(dir, "gguflens", "catalog.db")
	}
	p = filepath.Clean(p)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	return p, nil
}

// resolveScanRoots picks the directories to scan: explicit arguments, then
// the config models_dir, then $GGUFLENS_MODELS_DIR.
func resolveScanRoots(args []string, cfg Config) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if dir := strings.TrimSpace(cfg.ModelsDir); dir != "" {
		return []string{expandHome(dir)}, nil
	}
	if dir := strings.TrimSpace(os.Getenv(envModelsDir)); dir != "" {
		return []string{expandHome(dir)}, nil
	}
	return nil, errors.New("no directories given and neither models_dir nor " + envModelsDir + " is set")
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
