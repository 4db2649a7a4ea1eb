// Package config loads the analysis configuration from defaults, an optional
// YAML file and environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// envPrefix namespaces the environment variables, e.g. ADPULSE_DATABASE_PATH.
const envPrefix = "ADPULSE"

// defaultConfigFile is consulted when no explicit config file is given.
const defaultConfigFile = "adpulse.yml"

// Config is the complete configuration for one analysis run.
type Config struct {
	Database DatabaseConfig `yaml:"database" envconfig:"DATABASE"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Output   OutputConfig   `yaml:"output" envconfig:"OUTPUT"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// DatabaseConfig locates the advertising data.
type DatabaseConfig struct {
	Path  string `yaml:"path" envconfig:"PATH" validate:"required"`
	Table string `yaml:"table" envconfig:"TABLE" validate:"required"`
}

// AnalysisConfig holds the fixed analysis window, both dates inclusive.
type AnalysisConfig struct {
	StartDate string `yaml:"start_date" envconfig:"START_DATE" validate:"required,datetime=2006-01-02"`
	EndDate   string `yaml:"end_date" envconfig:"END_DATE" validate:"required,datetime=2006-01-02"`
}

// OutputConfig controls where report artifacts are written.
type OutputConfig struct {
	Dir string `yaml:"dir" envconfig:"DIR" validate:"required"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=text json"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Path:  "data/ads.db",
			Table: "advert_stats",
		},
		Analysis: AnalysisConfig{
			StartDate: "2026-01-01",
			EndDate:   "2026-02-01",
		},
		Output:  OutputConfig{Dir: "."},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration: defaults, then YAML file values (when
// configFile is non-empty or ./adpulse.yml exists), then environment
// overrides, then validation. A missing default file is not an error.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	path := configFile
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile overlays YAML file values onto cfg.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the struct-level constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	// YYYY-MM-DD compares correctly as text.
	if c.Analysis.EndDate < c.Analysis.StartDate {
		return fmt.Errorf("end_date %s precedes start_date %s",
			c.Analysis.EndDate, c.Analysis.StartDate)
	}
	return nil
}
