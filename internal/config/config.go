// Package config assembles neron's settings from defaults, an optional YAML
// file, the environment (including a .env file) and command-line flags, in
// that order of increasing precedence.
package config

import (
	"strings"
	"time"

	"neron/internal/theme"
)

// Dataset sources.
const (
	SourceFile   = "file"
	SourceDemo   = "demo"
	SourceNeo4j  = "neo4j"
	SourceDuckDB = "duckdb"
)

// Config contains every tunable of the neron binaries.
// Use DefaultConfig() to get sensible defaults, then override as needed.
type Config struct {
	// Data source
	Source      string     `yaml:"source"`  // file, demo, neo4j or duckdb (default: file)
	DatasetPath string     `yaml:"dataset"` // JSON dataset; empty means the bundled graph
	Theme       theme.Name `yaml:"theme"`   // Initial theme (default: matrix)

	// Watch reloads the dataset at this interval while the TUI runs (0 = off)
	Watch time.Duration `yaml:"watch"`

	// Renderer
	RendererPath     string        `yaml:"renderer"`          // Renderer executable (default: "neron-renderer")
	RendererAddr     string        `yaml:"renderer_addr"`     // Viewer listen address (default: "127.0.0.1:0")
	AssetTimeout     time.Duration `yaml:"asset_timeout"`     // Limit for locating the renderer (default: 10s)
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"` // Limit for the renderer handshake (default: 20s)

	// Logging
	LogFile        string `yaml:"log_file"`         // Log destination while the TUI runs (default: "neron.log")
	Debug          bool   `yaml:"debug"`            // Debug level logging (default: false)
	MaxConsoleLogs int    `yaml:"max_console_logs"` // Lines kept for the console page (default: 100)

	// Stores
	Neo4jURI      string `yaml:"neo4j_uri"`      // default: "neo4j://localhost:7687"
	Neo4jUser     string `yaml:"neo4j_user"`     // default: "neo4j"
	Neo4jPassword string `yaml:"neo4j_password"` // no default
	Neo4jDatabase string `yaml:"neo4j_database"` // default: "neo4j"
	DuckDBPath    string `yaml:"duckdb_path"`    // default: "neron.duckdb"

	// SeedTarget is the store written by the seed command: neo4j or duckdb
	SeedTarget string `yaml:"seed_target"`

	// Gemini
	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"` // flash, pro, flash-8b or experimental (default: flash)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Source: SourceFile,
		Theme:  theme.Default,

		RendererPath:     "neron-renderer",
		RendererAddr:     "127.0.0.1:0",
		AssetTimeout:     10 * time.Second,
		HandshakeTimeout: 20 * time.Second,

		LogFile:        "neron.log",
		MaxConsoleLogs: 100,

		Neo4jURI:      "neo4j://localhost:7687",
		Neo4jUser:     "neo4j",
		Neo4jDatabase: "neo4j",
		DuckDBPath:    "neron.duckdb",

		GeminiModel: "flash",
	}
}

// WithSource returns a copy of the config reading from the given source.
func (c Config) WithSource(source string) Config {
	c.Source = source
	return c
}

// WithDataset returns a copy of the config loading a JSON dataset from path.
func (c Config) WithDataset(path string) Config {
	c.Source = SourceFile
	c.DatasetPath = path
	return c
}

// WithTheme returns a copy of the config with a different initial theme.
func (c Config) WithTheme(name theme.Name) Config {
	c.Theme = name
	return c
}

// WithRenderer returns a copy of the config with a different renderer executable.
func (c Config) WithRenderer(path string) Config {
	c.RendererPath = path
	return c
}

// WithHandshakeTimeout returns a copy of the config with a modified handshake timeout.
func (c Config) WithHandshakeTimeout(d time.Duration) Config {
	c.HandshakeTimeout = d
	return c
}

// WithDebug returns a copy of the config with debug logging enabled/disabled.
func (c Config) WithDebug(enabled bool) Config {
	c.Debug = enabled
	return c
}

// Validate checks if the configuration is valid and returns an error if not.
func (c Config) Validate() error {
	switch c.Source {
	case SourceFile, SourceDemo, SourceNeo4j, SourceDuckDB:
	default:
		return &ConfigError{Field: "Source", Message: "must be one of file, demo, neo4j, duckdb"}
	}
	if _, ok := theme.Get(c.Theme); !ok {
		return &ConfigError{Field: "Theme", Message: "must be matrix or regular"}
	}
	if strings.TrimSpace(c.RendererPath) == "" {
		return &ConfigError{Field: "RendererPath", Message: "must not be empty"}
	}
	if c.AssetTimeout <= 0 {
		return &ConfigError{Field: "AssetTimeout", Message: "must be positive"}
	}
	if c.HandshakeTimeout <= 0 {
		return &ConfigError{Field: "HandshakeTimeout", Message: "must be positive"}
	}
	if c.Watch < 0 {
		return &ConfigError{Field: "Watch", Message: "must not be negative"}
	}
	if c.MaxConsoleLogs <= 0 {
		return &ConfigError{Field: "MaxConsoleLogs", Message: "must be positive"}
	}
	if c.Source == SourceNeo4j && c.Neo4jURI == "" {
		return &ConfigError{Field: "Neo4jURI", Message: "must not be empty for the neo4j source"}
	}
	switch c.SeedTarget {
	case "", SourceNeo4j, SourceDuckDB:
	default:
		return &ConfigError{Field: "SeedTarget", Message: "must be neo4j or duckdb"}
	}
	if c.Source == SourceDuckDB && c.DuckDBPath == "" {
		return &ConfigError{Field: "DuckDBPath", Message: "must not be empty for the duckdb source"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Field + " " + e.Message
}
