package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Output   OutputConfig   `mapstructure:"output"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DataConfig holds input directory configuration
type DataConfig struct {
	Dir         string `mapstructure:"dir"`
	Exclude     string `mapstructure:"exclude"`
	PriceColumn string `mapstructure:"price_column"`
	DateLayout  string `mapstructure:"date_layout"`
}

// AnalysisConfig holds shock analysis configuration
type AnalysisConfig struct {
	Percentile       float64 `mapstructure:"percentile"`
	Scope            string  `mapstructure:"scope"`
	IncludeAll       bool    `mapstructure:"include_all"`
	FillGaps         bool    `mapstructure:"fill_gaps"`
	MaxLookaheadDays int     `mapstructure:"max_lookahead_days"`
	Workers          int     `mapstructure:"workers"`
}

// OutputConfig holds report output configuration
type OutputConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EnvPrefix is the prefix of environment variable overrides, e.g. INDEXSHOCK_ANALYSIS_PERCENTILE.
const EnvPrefix = "INDEXSHOCK"

// New returns a viper instance with defaults and environment overrides applied.
func New() *viper.Viper {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads configuration from file and environment variables.
// An empty path uses defaults and environment variables only.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
	}
	return LoadFromViper(v)
}

// LoadFromViper reads the config file set on v, if any, and unmarshals the result.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Data defaults
	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.exclude", "sources")
	v.SetDefault("data.price_column", "Adj Close")
	v.SetDefault("data.date_layout", "2006-01-02")

	// Analysis defaults
	v.SetDefault("analysis.percentile", 5.0)
	v.SetDefault("analysis.scope", "All")
	v.SetDefault("analysis.include_all", true)
	v.SetDefault("analysis.fill_gaps", true)
	v.SetDefault("analysis.max_lookahead_days", 31)
	v.SetDefault("analysis.workers", 4)

	// Output defaults
	v.SetDefault("output.path", "")
	v.SetDefault("output.format", "table")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Data config
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir is required")
	}
	if c.Data.PriceColumn == "" {
		return fmt.Errorf("data.price_column is required")
	}
	if c.Data.DateLayout == "" {
		return fmt.Errorf("data.date_layout is required")
	}

	// Validate Analysis config
	if c.Analysis.Percentile <= 0 || c.Analysis.Percentile > 100 {
		return fmt.Errorf("analysis.percentile must be in the interval (0, 100]")
	}
	if c.Analysis.Scope == "" {
		return fmt.Errorf("analysis.scope is required (use \"All\" for every index)")
	}
	if c.Analysis.MaxLookaheadDays < 1 {
		return fmt.Errorf("analysis.max_lookahead_days must be at least 1")
	}
	if c.Analysis.Workers < 1 {
		return fmt.Errorf("analysis.workers must be at least 1")
	}

	// Validate Output config
	validOutputFormats := map[string]bool{"csv": true, "xlsx": true, "table": true}
	if !validOutputFormats[c.Output.Format] {
		return fmt.Errorf("output.format must be one of: csv, xlsx, table")
	}
	if c.Output.Format == "xlsx" && c.Output.Path == "" {
		return fmt.Errorf("output.path is required when output.format is xlsx")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
