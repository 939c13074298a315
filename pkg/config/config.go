// Package config loads storymap settings from defaults, an optional YAML or
// TOML file and STORYMAP_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/dd0wney/cluso-storymap/pkg/logging"
	"github.com/dd0wney/cluso-storymap/pkg/validation"
	"github.com/dd0wney/cluso-storymap/pkg/visualization"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the loader reads
const EnvPrefix = "STORYMAP_"

// ErrUnsupportedFormat is returned for config files that are neither YAML
// nor TOML
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Config is the full application configuration
type Config struct {
	Layout visualization.LayoutConfig `yaml:"layout" toml:"layout" envPrefix:"LAYOUT_"`
	Server ServerConfig               `yaml:"server" toml:"server" envPrefix:"SERVER_"`
	Log    LogConfig                  `yaml:"log" toml:"log" envPrefix:"LOG_"`
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Addr          string        `yaml:"addr" toml:"addr" env:"ADDR" validate:"required"`
	ReadTimeout   time.Duration `yaml:"read_timeout" toml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" toml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout   time.Duration `yaml:"idle_timeout" toml:"idle_timeout" env:"IDLE_TIMEOUT"`
	FrameInterval time.Duration `yaml:"frame_interval" toml:"frame_interval" env:"FRAME_INTERVAL"`
	Workers       int           `yaml:"workers" toml:"workers" env:"WORKERS" validate:"gte=1,lte=256"`
	MaxNodes      int           `yaml:"max_nodes" toml:"max_nodes" env:"MAX_NODES" validate:"gte=1"`
	CORSOrigins   []string      `yaml:"cors_origins" toml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
}

// LogConfig configures the default logger
type LogConfig struct {
	Level string `yaml:"level" toml:"level" env:"LEVEL" validate:"oneof=debug info warn warning error"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Layout: visualization.DefaultLayoutConfig(),
		Server: ServerConfig{
			Addr:          ":8080",
			ReadTimeout:   15 * time.Second,
			WriteTimeout:  60 * time.Second,
			IdleTimeout:   60 * time.Second,
			FrameInterval: visualization.DefaultFrameInterval,
			Workers:       4,
			MaxNodes:      validation.MaxNodes,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds a Config from defaults, the file at path (skipped when path
// is empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.DecodeFile(path, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}

var validate = validator.New()

// Validate checks field ranges and cross-field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return validation.NewConfigValidator("server").
		RangeDuration("read_timeout", c.Server.ReadTimeout, time.Second, 10*time.Minute).
		RangeDuration("write_timeout", c.Server.WriteTimeout, time.Second, 10*time.Minute).
		MinDuration("idle_timeout", c.Server.IdleTimeout, 0).
		RangeDuration("frame_interval", c.Server.FrameInterval, time.Millisecond, time.Second).
		MaxInt("max_nodes", c.Server.MaxNodes, validation.MaxNodes).
		Validate()
}

// LogLevel returns the configured level for the logging package
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Log.Level)
}
