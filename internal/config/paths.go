package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Application directory name used across all platforms.
const appName = "b2go"

// Config file name.
const configFileName = "config.toml"

// configFilePermissions keeps the config owner-only: it contains the
// application key and the current bearer token.
const configFilePermissions = 0o600

// configDirPermissions is the permission mode for the config directory.
const configDirPermissions = 0o755

// DefaultPath returns the platform-standard config file location.
func DefaultPath() string {
	dir := defaultConfigDir()
	if dir == "" {
		return ""
	}

	return filepath.Join(dir, configFileName)
}

// defaultConfigDir resolves the per-platform config directory.
// On Linux, respects XDG_CONFIG_HOME (defaults to ~/.config/b2go).
// On macOS, uses ~/Library/Application Support/b2go per Apple guidelines.
// Other platforms fall back to ~/.config/b2go.
func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName)
		}

		return filepath.Join(home, ".config", appName)
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName)
	default:
		return filepath.Join(home, ".config", appName)
	}
}
