// Package config persists the B2 session and bucket cache as a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the on-disk state: application key, the session values from the
// last authorization, and the bucket name->ID cache. It is loaded at
// process start and written back at process exit.
type Config struct {
	KeyID string `toml:"key_id"`
	Key   string `toml:"key"`

	APIURL      string `toml:"api_url"`
	DownloadURL string `toml:"download_url"`
	AuthToken   string `toml:"auth_token"`
	AccountID   string `toml:"account_id"`

	RecommendedPartSize     int64 `toml:"recommended_part_size"`
	AbsoluteMinimumPartSize int64 `toml:"absolute_minimum_part_size"`

	Buckets map[string]string `toml:"buckets"`
}

// Default returns an empty config ready for first use.
func Default() *Config {
	return &Config{Buckets: make(map[string]string)}
}

// Load reads a TOML config file. A missing file is not an error: it returns
// the default config for the zero-config first-run experience.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if cfg.Buckets == nil {
		cfg.Buckets = make(map[string]string)
	}

	return cfg, nil
}

// Save writes the config atomically (temp file + rename). The file holds
// credentials, so it is created owner-only.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, configDirPermissions); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("creating temp config file: %w", err)
	}

	tmpName := tmp.Name()

	if encErr := toml.NewEncoder(tmp).Encode(cfg); encErr != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("encoding config: %w", encErr)
	}

	if closeErr := tmp.Close(); closeErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp config file: %w", closeErr)
	}

	if chmodErr := os.Chmod(tmpName, configFilePermissions); chmodErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting config file permissions: %w", chmodErr)
	}

	if renameErr := os.Rename(tmpName, path); renameErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing config file %s: %w", path, renameErr)
	}

	return nil
}
