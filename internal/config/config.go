// Package config loads server settings from a YAML file and the environment.
//
// Every key has a default, so the server runs with no file at all.
// Environment variables use the ANNOTATE_MCP_ prefix with dots replaced by
// underscores: ANNOTATE_MCP_LOG_LEVEL overrides log.level.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "ANNOTATE_MCP"

// Config is the complete server configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Editor EditorConfig `mapstructure:"editor"`
	Redis  RedisConfig  `mapstructure:"redis"`
}

// ServerConfig selects the transport.
type ServerConfig struct {
	// Transport is "stdio" (MCP over stdin/stdout) or "http".
	Transport string `mapstructure:"transport"`
	Port      string `mapstructure:"port"`
	// Mode is "debug" or "release"; it selects the log encoder and gin mode.
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// EditorConfig holds brush and commit settings.
type EditorConfig struct {
	PaintRadius   int     `mapstructure:"paint_radius"`
	EraserRadius  int     `mapstructure:"eraser_radius"`
	AreaThreshold float64 `mapstructure:"area_threshold"`
	FillOpacity   float64 `mapstructure:"fill_opacity"`
	Interpolate   bool    `mapstructure:"interpolate"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Load reads configPath (if not empty) on top of the defaults and applies
// environment overrides.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("server.transport must be stdio or http, got %q", c.Server.Transport)
	}
	if c.Editor.PaintRadius < 1 || c.Editor.EraserRadius < 1 {
		return fmt.Errorf("editor radii must be at least 1, got %d and %d",
			c.Editor.PaintRadius, c.Editor.EraserRadius)
	}
	if c.Editor.AreaThreshold < 0 {
		return fmt.Errorf("editor.area_threshold must not be negative, got %g", c.Editor.AreaThreshold)
	}
	if c.Editor.FillOpacity < 0 || c.Editor.FillOpacity > 1 {
		return fmt.Errorf("editor.fill_opacity must be within [0,1], got %g", c.Editor.FillOpacity)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("log.level", "info")

	v.SetDefault("editor.paint_radius", 10)
	v.SetDefault("editor.eraser_radius", 10)
	v.SetDefault("editor.area_threshold", 10.0)
	v.SetDefault("editor.fill_opacity", 0.3)
	v.SetDefault("editor.interpolate", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", time.Duration(0))
}
