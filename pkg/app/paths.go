package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/cronbot/cronbot.yaml → ~/.config/cronbot/cronbot.yaml → ./cronbot.yaml
func ResolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "cronbot", "cronbot.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "cronbot", "cronbot.yaml"))
	}

	candidates = append(candidates, "cronbot.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}

// DefaultDataDir returns the default persistent data directory.
// Uses $XDG_DATA_HOME/cronbot if set, otherwise ~/.local/share/cronbot per the XDG spec.
func DefaultDataDir() string {
	if dir, ok := os.LookupEnv("XDG_DATA_HOME"); ok && dir != "" {
		return filepath.Join(dir, "cronbot")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "cronbot")
}
