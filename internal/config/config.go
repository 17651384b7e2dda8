package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Log       LogConfig       `yaml:"log"`
	Index     IndexConfig     `yaml:"index"`
	Sources   []SourceConfig  `yaml:"sources"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // "stdio" or "http"
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type IndexConfig struct {
	// Watch enables debounced rebuilds on transcript changes.
	Watch bool `yaml:"watch"`
	// DebounceMS is the quiescence window after the last change notification.
	DebounceMS int `yaml:"debounce_ms"`
}

// SourceConfig is one (format, root directory) transcript source.
type SourceConfig struct {
	Name   string `yaml:"name"`
	Format string `yaml:"format"`
	Root   string `yaml:"root"`
}

// Debounce returns the rebuild quiescence window.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.Index.DebounceMS) * time.Millisecond
}

// Load reads configuration from an optional YAML file and environment
// variables. With no sources configured, a single Claude Code source under
// the home directory is assumed.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8391,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		Log: LogConfig{
			Level: "info",
		},
		Index: IndexConfig{
			Watch:      true,
			DebounceMS: 500,
		},
	}

	if path := os.Getenv("CONVSEARCH_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("CONVSEARCH_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("CONVSEARCH_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CONVSEARCH_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if mode := os.Getenv("CONVSEARCH_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if level := os.Getenv("CONVSEARCH_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if ms := os.Getenv("CONVSEARCH_DEBOUNCE_MS"); ms != "" {
		debounce, err := strconv.Atoi(ms)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CONVSEARCH_DEBOUNCE_MS: %w", err)
		}
		cfg.Index.DebounceMS = debounce
	}
	if watch := os.Getenv("CONVSEARCH_WATCH"); watch != "" {
		enabled, err := strconv.ParseBool(watch)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CONVSEARCH_WATCH: %w", err)
		}
		cfg.Index.Watch = enabled
	}
	if root := os.Getenv("CONVSEARCH_CLAUDE_ROOT"); root != "" {
		cfg.Sources = append(cfg.Sources, SourceConfig{Format: "claude", Root: root})
	}

	if len(cfg.Sources) == 0 {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Sources = []SourceConfig{{
				Format: "claude",
				Root:   filepath.Join(home, ".claude", "projects"),
			}}
		}
	}

	for i, src := range cfg.Sources {
		if src.Format == "" || src.Root == "" {
			return Config{}, fmt.Errorf("source %d: format and root are required", i)
		}
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
