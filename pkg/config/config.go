package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/panbanda/cppsmell/pkg/models"
)

// Formats lists the supported output formats.
var Formats = []string{"text", "json", "markdown", "yaml", "toon"}

// Config holds all configuration options for cppsmell.
type Config struct {
	// Analysis settings
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`

	// Severity thresholds per rule. Loaded field by field so partial
	// overrides keep the remaining defaults.
	Thresholds models.Thresholds `koanf:"-" toml:"thresholds"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`

	// Run history
	History HistoryConfig `koanf:"history" toml:"history"`

	// Logging
	Log LogConfig `koanf:"log" toml:"log"`
}

// AnalysisConfig controls the engine.
type AnalysisConfig struct {
	Workers     int   `koanf:"workers" toml:"workers"` // 0 = 2x NumCPU
	StrictParse bool  `koanf:"strict_parse" toml:"strict_parse"`
	MaxFileSize int64 `koanf:"max_file_size" toml:"max_file_size"` // bytes, 0 = unlimited
	TopFiles    int   `koanf:"top_files" toml:"top_files"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format"`
	Color  bool   `koanf:"color" toml:"color"`
}

// HistoryConfig controls the run history store.
type HistoryConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Path    string `koanf:"path" toml:"path"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string `koanf:"level" toml:"level"` // debug, info, warn, error
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Workers:     0,
			StrictParse: false,
			MaxFileSize: 5 * 1024 * 1024,
			TopFiles:    5,
		},
		Thresholds: models.DefaultThresholds(),
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.pb.h",
				"*.pb.cc",
				"*_generated.h",
			},
			Dirs: []string{
				"vendor",
				"third_party",
				"external",
				".git",
				".cppsmell",
				"build",
				"cmake-build-debug",
				"cmake-build-release",
			},
			Gitignore: true,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    ".cppsmell/history.db",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadResult is a loaded configuration and where it came from.
type LoadResult struct {
	Config *Config
	Source string // empty when defaults were used
}

type loadOptions struct {
	path string
	dirs []string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads a specific file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithSearchDirs replaces the directories searched for a config file.
func WithSearchDirs(dirs ...string) LoadOption {
	return func(o *loadOptions) {
		o.dirs = dirs
	}
}

// configNames are the file names searched for, in order.
var configNames = []string{
	"cppsmell.toml",
	"cppsmell.yaml",
	"cppsmell.yml",
	"cppsmell.json",
	".cppsmell.toml",
	".cppsmell.yaml",
	".cppsmell.yml",
	".cppsmell.json",
}

// LoadConfig loads and validates the configuration. Without WithPath it
// searches the current directory and .cppsmell/ and falls back to the
// defaults when nothing is found.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{dirs: []string{".", ".cppsmell"}}
	for _, opt := range opts {
		opt(&o)
	}

	path := o.path
	if path == "" {
		path = find(o.dirs)
	}
	if path == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &LoadResult{Config: cfg, Source: path}, nil
}

func find(dirs []string) string {
	for _, dir := range dirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// Load loads configuration from a file on top of the defaults. It does not
// validate.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	th, err := loadThresholds(k, cfg.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Thresholds = th

	return cfg, nil
}

// loadThresholds applies the thresholds.<rule>.<field> keys present in k
// on top of base.
func loadThresholds(k *koanf.Koanf, base models.Thresholds) (models.Thresholds, error) {
	out := base.Merge(nil)
	for _, name := range k.MapKeys("thresholds") {
		rule := models.Rule(name)
		t := out[rule]
		prefix := "thresholds." + name + "."

		if k.Exists(prefix + "trigger") {
			t.Trigger = k.Int(prefix + "trigger")
		}
		if k.Exists(prefix + "medium") {
			t.Medium = k.Int(prefix + "medium")
		}
		if k.Exists(prefix + "high") {
			t.High = k.Int(prefix + "high")
		}
		if k.Exists(prefix + "base") {
			sev, err := models.ParseSeverity(k.String(prefix + "base"))
			if err != nil {
				return nil, fmt.Errorf("thresholds.%s.base: %w", name, err)
			}
			t.Base = sev
		}
		out[rule] = t
	}
	return out, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	res, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return res.Config
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Thresholds.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Analysis.Workers < 0 {
		errs = append(errs, fmt.Errorf("analysis.workers must not be negative, got %d", c.Analysis.Workers))
	}
	if c.Analysis.MaxFileSize < 0 {
		errs = append(errs, fmt.Errorf("analysis.max_file_size must not be negative, got %d", c.Analysis.MaxFileSize))
	}
	if c.Analysis.TopFiles < 0 {
		errs = append(errs, fmt.Errorf("analysis.top_files must not be negative, got %d", c.Analysis.TopFiles))
	}
	if !slices.Contains(Formats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format %q is not one of %s", c.Output.Format, strings.Join(Formats, ", ")))
	}
	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, errors.New("history.path is required when history is enabled"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	path = filepath.ToSlash(path)

	// Check directory exclusions
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, "/"+dir+"/") || strings.HasPrefix(path, dir+"/") {
			return true
		}
	}

	// Check pattern exclusions
	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
