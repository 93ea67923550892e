package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Config is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `json:"server"`
	MCP      MCPConfig      `json:"mcp"`
	Dataset  DatasetConfig  `json:"dataset"`
	Database DatabaseConfig `json:"database"`
	Bus      BusConfig      `json:"bus"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`
}

type MCPConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Dataset sources.
const (
	SourceBuiltin  = "builtin"
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

type DatasetConfig struct {
	Source        string `json:"source"`
	Path          string `json:"path"`
	MigrationsDir string `json:"migrations_dir"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `json:"postgres"`
	Redis    RedisConfig    `json:"redis"`
}

type PostgresConfig struct {
	DSN string `json:"dsn"`
}

type RedisConfig struct {
	URL string `json:"url"`
}

type BusConfig struct {
	Enabled bool   `json:"enabled"`
	Stream  string `json:"stream"`
	Group   string `json:"group"`
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads a JSON config file, substitutes environment variable references,
// applies defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse is Load for an in-memory document.
func Parse(data []byte) (*Config, error) {
	// Substitute ${VAR} and ${VAR:default} with environment values.
	resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		name := parts[1]
		defaultVal := parts[2]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return defaultVal
	})

	cfg := Default()
	if err := json.Unmarshal([]byte(resolved), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{MCP: MCPConfig{Enabled: true}}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.MCP.Path == "" {
		c.MCP.Path = "/mcp"
	}
	if c.MCP.Name == "" {
		c.MCP.Name = "Sales Forecasting Facts"
	}
	if c.MCP.Version == "" {
		c.MCP.Version = "1.0.0"
	}
	if c.Dataset.Source == "" {
		c.Dataset.Source = SourceBuiltin
	}
	if c.Dataset.MigrationsDir == "" {
		c.Dataset.MigrationsDir = "migrations"
	}
	if c.Bus.Stream == "" {
		c.Bus.Stream = "forecast:requests"
	}
	if c.Bus.Group == "" {
		c.Bus.Group = "forecast-facts"
	}
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	switch c.Dataset.Source {
	case SourceBuiltin:
	case SourceFile:
		if c.Dataset.Path == "" {
			return fmt.Errorf("dataset.path is required for source %q", SourceFile)
		}
	case SourcePostgres:
		if c.Database.Postgres.DSN == "" {
			return fmt.Errorf("database.postgres.dsn is required for source %q", SourcePostgres)
		}
	default:
		return fmt.Errorf("dataset.source %q must be one of builtin, file, postgres", c.Dataset.Source)
	}
	if c.Bus.Enabled && c.Database.Redis.URL == "" {
		return fmt.Errorf("database.redis.url is required when bus is enabled")
	}
	if !strings.HasPrefix(c.MCP.Path, "/") {
		return fmt.Errorf("mcp.path %q must start with /", c.MCP.Path)
	}
	return nil
}
