package infra

import (
	"os"
	"path/filepath"
	"strings"
)

const EnvHome = "REDISBOT_HOME"

// ResolveHomeDir returns the directory holding redisbot's config: REDISBOT_HOME
// when set, else ~/.redisbot.
func ResolveHomeDir() string {
	if envHome := ExpandHome(strings.TrimSpace(os.Getenv(EnvHome))); envHome != "" {
		return envHome
	}
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return filepath.Join(os.TempDir(), ".redisbot")
	}
	return filepath.Join(home, ".redisbot")
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
