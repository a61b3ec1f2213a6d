// Package config holds the batch driver's configuration: defaults in
// code, overridden by an optional YAML file, overridden in turn by
// GAPFILL_* environment variables, then validated as a whole.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"gapfill/internal/impute"
)

// Config represents the complete driver configuration.
type Config struct {
	Input   InputConfig   `yaml:"input" envconfig:"INPUT"`
	Output  OutputConfig  `yaml:"output" envconfig:"OUTPUT"`
	Filter  FilterConfig  `yaml:"filter" envconfig:"FILTER"`
	Impute  ImputeConfig  `yaml:"impute" envconfig:"IMPUTE"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
}

// InputConfig describes the tabular source to load.
type InputConfig struct {
	Path          string   `yaml:"path" envconfig:"PATH" validate:"required"`
	Sheet         string   `yaml:"sheet" envconfig:"SHEET"`
	Delimiter     string   `yaml:"delimiter" envconfig:"DELIMITER" validate:"max=1"`
	MissingTokens []string `yaml:"missing_tokens" envconfig:"MISSING_TOKENS"`
}

// OutputConfig describes where completed datasets are written.
type OutputConfig struct {
	Path      string `yaml:"path" envconfig:"PATH" validate:"required"`
	BOMPrefix bool   `yaml:"bom_prefix" envconfig:"BOM_PREFIX"`
}

// FilterConfig controls the optional pre-imputation exclusion pass.
type FilterConfig struct {
	// ColumnThreshold drops columns whose missing fraction reaches it.
	// 1 keeps every column.
	ColumnThreshold float64 `yaml:"column_threshold" envconfig:"COLUMN_THRESHOLD" validate:"gte=0,lte=1"`
}

// ImputeConfig mirrors the imputer's configuration surface.
type ImputeConfig struct {
	MaxIterations  int     `yaml:"max_iterations" envconfig:"MAX_ITERATIONS" validate:"min=1"`
	Tolerance      float64 `yaml:"tolerance" envconfig:"TOLERANCE" validate:"gt=0"`
	Replicas       int     `yaml:"replicas" envconfig:"REPLICAS" validate:"min=1"`
	Seed           int64   `yaml:"seed" envconfig:"SEED"`
	Trees          int     `yaml:"trees" envconfig:"TREES" validate:"min=1"`
	MaxDepth       int     `yaml:"max_depth" envconfig:"MAX_DEPTH" validate:"gte=0"`
	MaxConcurrency int     `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" validate:"min=1"`
}

// Core converts the driver section into the imputer's own Config.
func (ic ImputeConfig) Core() impute.Config {
	return impute.Config{
		MaxIterations:  ic.MaxIterations,
		Tolerance:      ic.Tolerance,
		Replicas:       ic.Replicas,
		Seed:           ic.Seed,
		Trees:          ic.Trees,
		MaxDepth:       ic.MaxDepth,
		MaxConcurrency: ic.MaxConcurrency,
	}
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// Default returns the built-in configuration.
func Default() Config {
	core := impute.DefaultConfig()
	return Config{
		Input: InputConfig{
			Delimiter:     ",",
			MissingTokens: []string{"", "NA", "NaN"},
		},
		Filter: FilterConfig{
			ColumnThreshold: 1,
		},
		Impute: ImputeConfig{
			MaxIterations:  core.MaxIterations,
			Tolerance:      core.Tolerance,
			Replicas:       core.Replicas,
			Seed:           core.Seed,
			Trees:          core.Trees,
			MaxDepth:       core.MaxDepth,
			MaxConcurrency: core.MaxConcurrency,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/gapfill.log",
		},
	}
}

// Load assembles the configuration: defaults, then the YAML file at
// configPath when given, then environment variables, then validation.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envconfig.Process("GAPFILL", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}
