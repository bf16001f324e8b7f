package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/sipeed/redisbot/pkg/bus"
	"github.com/sipeed/redisbot/pkg/commands"
	"github.com/sipeed/redisbot/pkg/logger"
	"github.com/sipeed/redisbot/pkg/transport"
)

type RedisConfig struct {
	Host     string `json:"host" toml:"host" env:"REDISBOT_REDIS_HOST"`
	Port     int    `json:"port" toml:"port" env:"REDISBOT_REDIS_PORT"`
	Password string `json:"password" toml:"password" env:"REDISBOT_REDIS_PASSWORD"`
	DB       int    `json:"db" toml:"db" env:"REDISBOT_REDIS_DB"`
}

func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type ChannelsConfig struct {
	From    string `json:"from" toml:"from" env:"REDISBOT_CHANNEL_FROM"`
	To      string `json:"to" toml:"to" env:"REDISBOT_CHANNEL_TO"`
	Control string `json:"control" toml:"control" env:"REDISBOT_CHANNEL_CONTROL"`
}

type FuzzyConfig struct {
	Threshold int `json:"threshold" toml:"threshold" env:"REDISBOT_FUZZY_THRESHOLD"`
	// Mode is "below" (names scoring under the threshold are candidates)
	// or "at_least".
	Mode string `json:"mode" toml:"mode" env:"REDISBOT_FUZZY_MODE"`
}

type RouterConfig struct {
	QueueSize int `json:"queue_size" toml:"queue_size" env:"REDISBOT_QUEUE_SIZE"`
}

type LogConfig struct {
	Level string `json:"level" toml:"level" env:"REDISBOT_LOG_LEVEL"`
	File  string `json:"file" toml:"file" env:"REDISBOT_LOG_FILE"`
}

type Config struct {
	Redis    RedisConfig    `json:"redis" toml:"redis"`
	Channels ChannelsConfig `json:"channels" toml:"channels"`
	Fuzzy    FuzzyConfig    `json:"fuzzy" toml:"fuzzy"`
	Router   RouterConfig   `json:"router" toml:"router"`
	Log      LogConfig      `json:"log" toml:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		Channels: ChannelsConfig{
			From:    transport.DefaultChannelFrom,
			To:      transport.DefaultChannelTo,
			Control: transport.DefaultChannelControl,
		},
		Fuzzy: FuzzyConfig{
			Threshold: commands.DefaultThreshold,
			Mode:      commands.ClosenessBelow.String(),
		},
		Router: RouterConfig{
			QueueSize: bus.DefaultQueueSize,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig layers the file at path (JSON, or TOML for *.toml) and then the
// environment over DefaultConfig. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decodeFile(path, data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err := toml.Decode(string(data), cfg)
		return err
	}
	return json.Unmarshal(data, cfg)
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Redis.Host) == "" {
		errs = append(errs, errors.New("redis.host is empty"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("redis.port %d out of range", c.Redis.Port))
	}

	seen := map[string]string{}
	for _, ch := range []struct{ key, name string }{
		{"channels.from", c.Channels.From},
		{"channels.to", c.Channels.To},
		{"channels.control", c.Channels.Control},
	} {
		key, name := ch.key, ch.name
		if name == "" {
			errs = append(errs, fmt.Errorf("%s is empty", key))
			continue
		}
		if other, dup := seen[name]; dup {
			errs = append(errs, fmt.Errorf("%s and %s share channel %q", other, key, name))
		}
		seen[name] = key
	}

	if c.Fuzzy.Threshold < 0 || c.Fuzzy.Threshold > 100 {
		errs = append(errs, fmt.Errorf("fuzzy.threshold %d outside 0..100", c.Fuzzy.Threshold))
	}
	if _, ok := commands.ParseCloseness(c.Fuzzy.Mode); !ok {
		errs = append(errs, fmt.Errorf("fuzzy.mode %q is not one of below, at_least", c.Fuzzy.Mode))
	}
	if c.Router.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("router.queue_size %d is negative", c.Router.QueueSize))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// TransportOptions maps the broker settings onto transport.Options.
func (c *Config) TransportOptions() transport.Options {
	return transport.Options{
		Addr:     c.Redis.Addr(),
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		Channels: transport.Channels{
			From:    c.Channels.From,
			To:      c.Channels.To,
			Control: c.Channels.Control,
		},
	}
}

// DispatcherOptions maps the fuzzy settings onto dispatcher options.
func (c *Config) DispatcherOptions() []commands.Option {
	mode, _ := commands.ParseCloseness(c.Fuzzy.Mode)
	return []commands.Option{
		commands.WithThreshold(c.Fuzzy.Threshold),
		commands.WithCloseness(mode),
	}
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}
