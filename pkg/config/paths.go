package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sipeed/redisbot/internal/infra"
)

const (
	EnvRedisBotConfig = "REDISBOT_CONFIG"
	EnvRedisBotHome   = infra.EnvHome
)

// ResolveConfigPath picks the config file: REDISBOT_CONFIG, then
// REDISBOT_HOME/config.json, then ~/.redisbot/config.json.
func ResolveConfigPath() string {
	if configPath := infra.ExpandHome(strings.TrimSpace(os.Getenv(EnvRedisBotConfig))); configPath != "" {
		return configPath
	}
	return filepath.Join(infra.ResolveHomeDir(), "config.json")
}
