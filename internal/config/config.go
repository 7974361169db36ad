package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "ftrun.yaml"

// Config represents ftrun.yaml.
type Config struct {
	Paths       []string `yaml:"paths"`
	Tags        []string `yaml:"tags"`
	ExcludeTags []string `yaml:"exclude_tags"`
	FailFast    bool     `yaml:"fail_fast"`
	Color       bool     `yaml:"color"`
	Database    string   `yaml:"database"`
	LogLevel    string   `yaml:"log_level"`
	Steps       []Step   `yaml:"steps"`
}

// Step maps a step pattern to a shell command.
type Step struct {
	Pattern string `yaml:"pattern"`
	Run     string `yaml:"run"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Paths:    []string{"features"},
		Database: "features/ftrun.db",
		LogLevel: "warn",
	}
}

// Load reads and parses a config file.
// Returns the default config if the file doesn't exist.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values that yaml decoding cannot.
func (c Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	for i, s := range c.Steps {
		if s.Pattern == "" {
			return fmt.Errorf("steps[%d]: pattern is required", i)
		}
		if s.Run == "" {
			return fmt.Errorf("steps[%d]: run is required", i)
		}
	}
	return nil
}

// Level converts LogLevel to a slog level.
func (c Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log_level %q", c.LogLevel)
}

// Sample is the config written by ftrun init.
const Sample = `# ftrun configuration
paths:
  - features
# tags: [smoke]
# exclude_tags: [slow]
fail_fast: false
database: features/ftrun.db
log_level: warn
steps:
  - pattern: 'the command "(.+)" succeeds'
    run: 'eval "$1"'
`
