package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/pfind/internal/logger"
	"gopkg.in/yaml.v3"
)

// BuiltinSorter selects the in-process line sorter instead of an external
// command.
const BuiltinSorter = "builtin"

// HistoryConfig represents run history configuration
type HistoryConfig struct {
	// Enabled records every run in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database (empty = $PFIND_HOME/history.db)
	DBPath string `yaml:"db_path"`
}

// Config represents pfind configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// ContinueOnError skips unreadable entries instead of aborting the walk
	ContinueOnError bool `yaml:"continue_on_error"`

	// SortCommand is the line sorter spfind pipes results through
	// ("builtin" sorts in-process)
	SortCommand string `yaml:"sort_command"`

	// History contains run history configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns the default configuration: quiet, fail-fast,
// sorted by the system sort, no history.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:        logger.DefaultLevel,
		ContinueOnError: false,
		SortCommand:     "sort",
		History: HistoryConfig{
			Enabled: false,
			DBPath:  "",
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from file (merging with defaults)
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(fileCfg.LogLevel))
	}
	if fileCfg.ContinueOnError {
		cfg.ContinueOnError = true
	}
	if fileCfg.SortCommand != "" {
		cfg.SortCommand = fileCfg.SortCommand
	}

	// history.enabled may be set false explicitly, so presence is checked
	// on the raw document rather than the zero value
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if section, ok := rawMap["history"].(map[string]interface{}); ok {
			if _, exists := section["enabled"]; exists {
				cfg.History.Enabled = fileCfg.History.Enabled
			}
			if _, exists := section["db_path"]; exists {
				cfg.History.DBPath = fileCfg.History.DBPath
			}
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .pfind/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".pfind", "config.yaml"))
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(logLevel *string, continueOnError *bool, sortCommand *string, record *bool) {
	if logLevel != nil {
		c.LogLevel = strings.ToLower(strings.TrimSpace(*logLevel))
	}
	if continueOnError != nil {
		c.ContinueOnError = *continueOnError
	}
	if sortCommand != nil {
		c.SortCommand = *sortCommand
	}
	if record != nil {
		c.History.Enabled = *record
	}
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if !logger.IsValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: %s", c.LogLevel, strings.Join(logger.ValidLevels, ", "))
	}

	if strings.TrimSpace(c.SortCommand) == "" {
		return fmt.Errorf("sort_command cannot be empty (use %q for the in-process sorter)", BuiltinSorter)
	}

	return nil
}

// HistoryDBPath returns the configured history database, falling back to
// the one under the pfind home directory.
func (c *Config) HistoryDBPath() (string, error) {
	if c.History.DBPath != "" {
		return c.History.DBPath, nil
	}
	return GetHistoryDBPath()
}
