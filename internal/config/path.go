// Package config loads spicewatch settings from viper and resolves file locations.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

const appName = "spicewatch"

// ExpandPath expands a leading ~ and $VAR references in a path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}

// ConfigDir is where config.yaml is searched: $XDG_CONFIG_HOME/spicewatch,
// or ~/.config/spicewatch.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir holds the default database: $XDG_DATA_HOME/spicewatch, or
// ~/.local/share/spicewatch.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, fallback string) string {
	if base := os.Getenv(env); base != "" && filepath.IsAbs(base) {
		return filepath.Join(base, appName)
	}
	return ExpandPath(filepath.Join("~", fallback, appName))
}
