// Package config loads cyrkana settings from TOML, YAML or JSON files with
// CYRKANA_* environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/aretw0/cyrkana"
	"github.com/aretw0/cyrkana/internal/logging"
	"github.com/aretw0/cyrkana/pkg/registry"
	"gopkg.in/yaml.v3"
)

// DefaultPath is looked up when no --config flag is given.
const DefaultPath = "cyrkana.toml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CYRKANA_"

// Config is the full application configuration.
type Config struct {
	// Source is a pack source URI or a plain directory.
	Source         string `toml:"source" json:"source" yaml:"source"`
	DefaultProfile string `toml:"default_profile" json:"default_profile" yaml:"default_profile"`
	Listen         string `toml:"listen" json:"listen" yaml:"listen"`
	LogLevel       string `toml:"log_level" json:"log_level" yaml:"log_level"`
	// Preload activates every profile at startup instead of on first use.
	Preload bool `toml:"preload" json:"preload" yaml:"preload"`
	Watch   bool `toml:"watch" json:"watch" yaml:"watch"`
	Metrics bool `toml:"metrics" json:"metrics" yaml:"metrics"`

	Redis RedisConfig `toml:"redis" json:"redis" yaml:"redis"`
	MCP   MCPConfig   `toml:"mcp" json:"mcp" yaml:"mcp"`
}

// RedisConfig is the publish target of `pack push --to redis`.
type RedisConfig struct {
	Addr     string `toml:"addr" json:"addr" yaml:"addr"`
	Password string `toml:"password" json:"password" yaml:"password"`
	DB       int    `toml:"db" json:"db" yaml:"db"`
	Prefix   string `toml:"prefix" json:"prefix" yaml:"prefix"`
}

// MCPConfig configures the MCP server.
type MCPConfig struct {
	Transport string `toml:"transport" json:"transport" yaml:"transport"`
	Port      int    `toml:"port" json:"port" yaml:"port"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Source:         "examples/pack",
		DefaultProfile: cyrkana.DefaultProfileID,
		Listen:         ":8080",
		LogLevel:       "info",
		Metrics:        true,
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "cyrkana:pack:",
		},
		MCP: MCPConfig{
			Transport: "stdio",
			Port:      8081,
		},
	}
}

// Load reads path, applies environment overrides and validates the result.
// A missing file yields the defaults; path "" means DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from CYRKANA_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		return lookup(EnvPrefix + name)
	}

	if v, ok := get("SOURCE"); ok {
		c.Source = v
	}
	if v, ok := get("DEFAULT_PROFILE"); ok {
		c.DefaultProfile = v
	}
	if v, ok := get("LISTEN"); ok {
		c.Listen = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := get("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := get("REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}
	if v, ok := get("REDIS_PREFIX"); ok {
		c.Redis.Prefix = v
	}
	if v, ok := get("MCP_TRANSPORT"); ok {
		c.MCP.Transport = v
	}

	var errs []error
	parseBool := func(name string, dst *bool) {
		if v, ok := get(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	parseInt := func(name string, dst *int) {
		if v, ok := get(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	parseBool("PRELOAD", &c.Preload)
	parseBool("WATCH", &c.Watch)
	parseBool("METRICS", &c.Metrics)
	parseInt("REDIS_DB", &c.Redis.DB)
	parseInt("MCP_PORT", &c.MCP.Port)

	return errors.Join(errs...)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Source == "" {
		errs = append(errs, errors.New("source is required"))
	} else if _, err := registry.Parse(c.Source); err != nil {
		errs = append(errs, fmt.Errorf("source: %w", err))
	}
	if c.DefaultProfile == "" {
		errs = append(errs, errors.New("default_profile is required"))
	}
	if c.Listen == "" {
		errs = append(errs, errors.New("listen is required"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.Redis.DB < 0 {
		errs = append(errs, fmt.Errorf("redis.db must be >= 0, got %d", c.Redis.DB))
	}
	switch c.MCP.Transport {
	case "stdio", "sse":
	default:
		errs = append(errs, fmt.Errorf("mcp.transport must be stdio or sse, got %q", c.MCP.Transport))
	}
	if c.MCP.Port < 1 || c.MCP.Port > 65535 {
		errs = append(errs, fmt.Errorf("mcp.port out of range: %d", c.MCP.Port))
	}
	return errors.Join(errs...)
}

// RedisURI renders the redis section as a source URI.
func (c *Config) RedisURI() string {
	u := url.URL{
		Scheme: "redis",
		Host:   c.Redis.Addr,
		Path:   "/" + strconv.Itoa(c.Redis.DB),
	}
	if c.Redis.Password != "" {
		u.User = url.UserPassword("", c.Redis.Password)
	}
	if c.Redis.Prefix != "" {
		u.RawQuery = url.Values{"prefix": {c.Redis.Prefix}}.Encode()
	}
	return u.String()
}
