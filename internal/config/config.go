package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a configuration document is well formed
// but carries values the CLI cannot honour.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the lattice CLI configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	MCP       MCPConfig       `mapstructure:"mcp"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Redact    []string        `mapstructure:"redact"`
	Actions   []ActionDecl    `mapstructure:"actions"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Addr         string `mapstructure:"addr"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"`
	Metrics      bool   `mapstructure:"metrics"`
}

type MCPConfig struct {
	Transport string `mapstructure:"transport"`
	Port      int    `mapstructure:"port"`
}

// RateLimitConfig enables the rate limit middleware on every served action.
// A zero Limit disables it.
type RateLimitConfig struct {
	Backend string        `mapstructure:"backend"`
	Limit   int           `mapstructure:"limit"`
	Window  time.Duration `mapstructure:"window"`
	KeyMeta string        `mapstructure:"key_meta"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ActionDecl declares an echo action from configuration: its binds and input
// are validated against the given schemas and returned as the output.
type ActionDecl struct {
	Name  string         `mapstructure:"name"`
	Meta  map[string]any `mapstructure:"meta"`
	Binds []string       `mapstructure:"binds"`
	Input map[string]any `mapstructure:"input"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log:    LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{Addr: ":8080", MaxBodyBytes: 1 << 20, Metrics: true},
		MCP:    MCPConfig{Transport: "stdio", Port: 8081},
		RateLimit: RateLimitConfig{
			Backend: "memory",
			Window:  time.Minute,
			KeyMeta: "client",
		},
		Redis: RedisConfig{Addr: "localhost:6379", Prefix: "lattice:"},
	}
}

// Load reads a YAML configuration file over the defaults. An empty path
// yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML configuration document over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if raw == nil {
		return cfg, cfg.Validate()
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalidConfig, c.Log.Format)
	}
	switch c.MCP.Transport {
	case "stdio", "sse":
	default:
		return fmt.Errorf("%w: mcp.transport %q", ErrInvalidConfig, c.MCP.Transport)
	}
	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("%w: rate_limit.backend %q", ErrInvalidConfig, c.RateLimit.Backend)
	}
	if c.RateLimit.Limit < 0 {
		return fmt.Errorf("%w: rate_limit.limit must not be negative", ErrInvalidConfig)
	}
	if c.RateLimit.Limit > 0 && c.RateLimit.Window <= 0 {
		return fmt.Errorf("%w: rate_limit.window must be positive", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.Actions))
	for i, a := range c.Actions {
		if a.Name == "" {
			return fmt.Errorf("%w: actions[%d] has no name", ErrInvalidConfig, i)
		}
		if seen[a.Name] {
			return fmt.Errorf("%w: duplicate action %q", ErrInvalidConfig, a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}
