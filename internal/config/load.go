package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"neron/internal/theme"
)

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

// Load builds the configuration for a command from its arguments and the
// process environment. It returns the positional arguments left after flag
// parsing. pflag.ErrHelp is returned as is when -h was requested.
func Load(name string, args []string) (Config, []string, error) {
	return load(name, args, os.LookupEnv)
}

type flagValues struct {
	configPath string
	envFile    string

	source, dataset, themeName string
	demo                       bool
	renderer, rendererAddr     string
	handshake, watch           time.Duration
	logFile                    string
	debug                      bool
	neo4jURI, neo4jUser        string
	duckdb, seedTarget         string
	geminiModel                string
}

func newFlagSet(name string, v *flagValues) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	d := DefaultConfig()

	flags.StringVarP(&v.configPath, "config", "c", "", "YAML config file")
	flags.StringVar(&v.envFile, "env-file", ".env", "dotenv file with NERON_*, NEO4J_*, DUCKDB_PATH and GEMINI_* settings")
	flags.StringVarP(&v.source, "source", "s", d.Source, "dataset source: file, demo, neo4j or duckdb")
	flags.StringVarP(&v.dataset, "dataset", "f", "", "JSON dataset file (default: bundled graph)")
	flags.BoolVar(&v.demo, "demo", false, "use the built-in demo graph")
	flags.StringVarP(&v.themeName, "theme", "t", string(d.Theme), "initial theme: matrix or regular")
	flags.StringVar(&v.renderer, "renderer", d.RendererPath, "renderer executable")
	flags.StringVar(&v.rendererAddr, "renderer-addr", d.RendererAddr, "viewer listen address")
	flags.DurationVar(&v.handshake, "handshake-timeout", d.HandshakeTimeout, "how long to wait for the renderer to initialize")
	flags.DurationVarP(&v.watch, "watch", "w", 0, "reload the dataset at this interval (0 disables)")
	flags.StringVar(&v.logFile, "log-file", d.LogFile, "log file used while the TUI runs")
	flags.BoolVarP(&v.debug, "debug", "d", false, "debug logging")
	flags.StringVar(&v.neo4jURI, "neo4j-uri", d.Neo4jURI, "Neo4j bolt URI")
	flags.StringVar(&v.neo4jUser, "neo4j-user", d.Neo4jUser, "Neo4j user")
	flags.StringVar(&v.duckdb, "duckdb", d.DuckDBPath, "DuckDB database file")
	flags.StringVar(&v.seedTarget, "to", "", "store written by seed: neo4j or duckdb")
	flags.StringVar(&v.geminiModel, "gemini-model", d.GeminiModel, "Gemini model: flash, pro, flash-8b or experimental")
	return flags
}

func load(name string, args []string, lookup LookupFunc) (Config, []string, error) {
	var v flagValues
	flags := newFlagSet(name, &v)
	if err := flags.Parse(args); err != nil {
		return Config{}, nil, err
	}

	cfg := DefaultConfig()

	configPath := v.configPath
	if configPath == "" {
		configPath, _ = lookup("NERON_CONFIG")
	}
	if configPath != "" {
		if err := readYAML(configPath, &cfg); err != nil {
			return Config{}, nil, err
		}
	}

	dotenv, err := godotenv.Read(v.envFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || flags.Changed("env-file") {
			return Config{}, nil, fmt.Errorf("read env file %s: %w", v.envFile, err)
		}
		dotenv = nil
	}
	if err := applyEnv(&cfg, withFallback(lookup, dotenv)); err != nil {
		return Config{}, nil, err
	}

	if err := applyFlags(&cfg, flags, v); err != nil {
		return Config{}, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, nil, err
	}
	return cfg, flags.Args(), nil
}

func readYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// withFallback prefers the real environment over values from the .env file.
func withFallback(lookup LookupFunc, dotenv map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
}

func applyEnv(cfg *Config, lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("NERON_SOURCE", &cfg.Source)
	str("NERON_DATASET", &cfg.DatasetPath)
	str("NERON_RENDERER", &cfg.RendererPath)
	str("NERON_RENDERER_ADDR", &cfg.RendererAddr)
	str("NERON_LOG_FILE", &cfg.LogFile)
	str("NEO4J_URI", &cfg.Neo4jURI)
	str("NEO4J_USER", &cfg.Neo4jUser)
	str("NEO4J_PASSWORD", &cfg.Neo4jPassword)
	str("NEO4J_DATABASE", &cfg.Neo4jDatabase)
	str("DUCKDB_PATH", &cfg.DuckDBPath)
	str("GEMINI_API_KEY", &cfg.GeminiAPIKey)
	str("GEMINI_MODEL", &cfg.GeminiModel)

	if v, ok := lookup("NERON_THEME"); ok && v != "" {
		name, err := theme.Parse(v)
		if err != nil {
			return &ConfigError{Field: "Theme", Message: err.Error()}
		}
		cfg.Theme = name
	}
	if v, ok := lookup("NERON_DEBUG"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &ConfigError{Field: "Debug", Message: "NERON_DEBUG must be a boolean"}
		}
		cfg.Debug = b
	}
	if v, ok := lookup("NERON_WATCH"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &ConfigError{Field: "Watch", Message: "NERON_WATCH must be a duration"}
		}
		cfg.Watch = d
	}
	if v, ok := lookup("NERON_HANDSHAKE_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &ConfigError{Field: "HandshakeTimeout", Message: "NERON_HANDSHAKE_TIMEOUT must be a duration"}
		}
		cfg.HandshakeTimeout = d
	}
	return nil
}

// applyFlags copies only the flags that were set on the command line.
func applyFlags(cfg *Config, flags *pflag.FlagSet, v flagValues) error {
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}

	set("source", func() { cfg.Source = v.source })
	set("dataset", func() {
		cfg.DatasetPath = v.dataset
		if !flags.Changed("source") {
			cfg.Source = SourceFile
		}
	})
	set("demo", func() {
		if v.demo {
			cfg.Source = SourceDemo
		}
	})
	set("renderer", func() { cfg.RendererPath = v.renderer })
	set("renderer-addr", func() { cfg.RendererAddr = v.rendererAddr })
	set("handshake-timeout", func() { cfg.HandshakeTimeout = v.handshake })
	set("watch", func() { cfg.Watch = v.watch })
	set("log-file", func() { cfg.LogFile = v.logFile })
	set("debug", func() { cfg.Debug = v.debug })
	set("neo4j-uri", func() { cfg.Neo4jURI = v.neo4jURI })
	set("neo4j-user", func() { cfg.Neo4jUser = v.neo4jUser })
	set("duckdb", func() { cfg.DuckDBPath = v.duckdb })
	set("to", func() { cfg.SeedTarget = v.seedTarget })
	set("gemini-model", func() { cfg.GeminiModel = v.geminiModel })

	if flags.Changed("theme") {
		name, err := theme.Parse(v.themeName)
		if err != nil {
			return &ConfigError{Field: "Theme", Message: err.Error()}
		}
		cfg.Theme = name
	}
	return nil
}
