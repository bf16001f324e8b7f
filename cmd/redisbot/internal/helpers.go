package internal

import (
	"fmt"
	"runtime"

	"github.com/sipeed/redisbot/pkg/commands"
	"github.com/sipeed/redisbot/pkg/config"
	"github.com/sipeed/redisbot/pkg/logger"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string

	configPath string
)

// SetConfigPath overrides the config file location for this process.
func SetConfigPath(path string) {
	configPath = path
}

func GetConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.ResolveConfigPath()
}

func LoadConfig() (*config.Config, error) {
	return config.LoadConfig(GetConfigPath())
}

// SetupLogging applies the log section of cfg. debug forces DEBUG.
func SetupLogging(cfg *config.Config, debug bool) error {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	if debug {
		level = logger.DEBUG
	}
	logger.SetLevel(level)

	if cfg.Log.File != "" {
		if err := logger.EnableFileLogging(cfg.Log.File); err != nil {
			return fmt.Errorf("log file: %w", err)
		}
	}
	return nil
}

// NewRegistry returns a registry holding the builtin commands.
func NewRegistry() *commands.Registry {
	reg := commands.NewRegistry()
	for _, def := range commands.BuiltinDefinitions(reg) {
		reg.Add(def)
	}
	return reg
}

func NewDispatcher(cfg *config.Config) *commands.Dispatcher {
	return commands.NewDispatcher(NewRegistry(), cfg.DispatcherOptions()...)
}

// FormatVersion returns the version string with optional git commit
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// FormatBuildInfo returns build time and go version info
func FormatBuildInfo() (string, string) {
	build := buildTime
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return build, goVer
}
