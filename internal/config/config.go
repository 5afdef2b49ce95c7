// Package config provides unified configuration loading for dendsyn.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/nvandessel/dendsyn/internal/constants"
	"gopkg.in/yaml.v3"
)

// Output formats understood by the table writers.
const (
	FormatArrow  = "arrow"
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
)

// DendsynConfig contains all dendsyn configuration settings.
type DendsynConfig struct {
	// Output controls where and how cell tables are written.
	Output OutputConfig `json:"output" yaml:"output"`

	// Extract contains defaults for the extraction run.
	Extract ExtractConfig `json:"extract" yaml:"extract"`

	// Morphology contains settings for morphology loading.
	Morphology MorphologyConfig `json:"morphology" yaml:"morphology"`

	// Logging contains settings for operational and run-event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// OutputConfig configures the cell table output.
type OutputConfig struct {
	// Dir is the directory cell tables are saved to. Defaults to the working directory.
	Dir string `json:"dir" yaml:"dir"`

	// Format is the table file format: "arrow" (default), "csv" or "sqlite".
	Format string `json:"format" yaml:"format"`
}

// ExtractConfig configures extraction defaults.
type ExtractConfig struct {
	// DefaultTarget is used when no target is given on the command line.
	DefaultTarget string `json:"default_target" yaml:"default_target"`

	// Jobs is the default number of parallel jobs. -1 means one per CPU.
	Jobs int `json:"jobs" yaml:"jobs"`

	// ProgressSteps is how many progress lines each split logs.
	ProgressSteps int `json:"progress_steps" yaml:"progress_steps"`
}

// MorphologyConfig configures morphology loading.
type MorphologyConfig struct {
	// MaxFileSize rejects morphology files larger than this, e.g. "64MB".
	MaxFileSize string `json:"max_file_size" yaml:"max_file_size"`

	// CacheSize is the number of parsed morphologies kept in memory. 0 disables caching.
	CacheSize int `json:"cache_size" yaml:"cache_size"`
}

// LoggingConfig configures dendsyn's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables the run-event log in the output directory.
	// "trace" additionally logs every processed cell.
	Level string `json:"level" yaml:"level"`
}

// Default returns a DendsynConfig with sensible defaults.
func Default() *DendsynConfig {
	return &DendsynConfig{
		Output: OutputConfig{
			Dir:    ".",
			Format: FormatArrow,
		},
		Extract: ExtractConfig{
			DefaultTarget: constants.DefaultTarget,
			Jobs:          constants.DefaultJobs,
			ProgressSteps: constants.DefaultProgressSteps,
		},
		Morphology: MorphologyConfig{
			MaxFileSize: constants.DefaultMaxMorphologySize,
			CacheSize:   constants.DefaultMorphologyCacheSize,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.dendsyn/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".dendsyn", "config.yaml"), nil
}

// Load loads configuration from path, or from the default location when path
// is empty, then applies environment variables.
// Order: defaults -> config file -> environment variables
func Load(path string) (*DendsynConfig, error) {
	config := Default()

	if path == "" {
		if p, err := DefaultPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				path = p
			}
		}
	}

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*DendsynConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Output.Dir = expandEnvVars(config.Output.Dir)

	return config, nil
}

// MaxMorphologyBytes returns the morphology size limit in bytes. 0 means no limit.
func (c *DendsynConfig) MaxMorphologyBytes() (uint64, error) {
	if strings.TrimSpace(c.Morphology.MaxFileSize) == "" {
		return 0, nil
	}
	size, err := datasize.ParseString(c.Morphology.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("invalid max_file_size %q: %w", c.Morphology.MaxFileSize, err)
	}
	return size.Bytes(), nil
}

// Validate checks that the configuration is valid.
func (c *DendsynConfig) Validate() error {
	validFormats := map[string]bool{FormatArrow: true, FormatCSV: true, FormatSQLite: true}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output format: %s (valid: arrow, csv, sqlite)", c.Output.Format)
	}

	if c.Extract.Jobs == 0 || c.Extract.Jobs < constants.AllCPUs {
		return fmt.Errorf("jobs must be positive or -1 (all CPUs), got %d", c.Extract.Jobs)
	}

	if c.Extract.ProgressSteps < 0 {
		return fmt.Errorf("progress_steps must be non-negative, got %d", c.Extract.ProgressSteps)
	}

	if c.Morphology.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative, got %d", c.Morphology.CacheSize)
	}

	if _, err := c.MaxMorphologyBytes(); err != nil {
		return err
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *DendsynConfig) {
	if v := os.Getenv("DENDSYN_OUTPUT_DIR"); v != "" {
		config.Output.Dir = v
	}

	if v := os.Getenv("DENDSYN_OUTPUT_FORMAT"); v != "" {
		config.Output.Format = strings.ToLower(v)
	}

	if v := os.Getenv("DENDSYN_DEFAULT_TARGET"); v != "" {
		config.Extract.DefaultTarget = v
	}

	if v := os.Getenv("DENDSYN_JOBS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Extract.Jobs = n
		}
	}

	if v := os.Getenv("DENDSYN_MAX_MORPHOLOGY_SIZE"); v != "" {
		config.Morphology.MaxFileSize = v
	}

	if v := os.Getenv("DENDSYN_MORPHOLOGY_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Morphology.CacheSize = n
		}
	}

	if v := os.Getenv("DENDSYN_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
