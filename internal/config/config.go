// Package config loads the application configuration from built-in defaults,
// an optional YAML file, and environment variables (prefix MISD), in that
// precedence order, and resolves the on-disk cache and export paths.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	HTTP       HTTPConfig       `yaml:"http" envconfig:"HTTP"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Validation ValidationConfig `yaml:"validation" envconfig:"VALIDATION"`
}

// LoggingConfig controls the slog setup.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// HTTPConfig controls workbook retrieval. The agency's server rejects default
// Go user agents, so a browser string is sent.
type HTTPConfig struct {
	BaseURL      string        `yaml:"base_url" envconfig:"BASE_URL" validate:"url"`
	UserAgent    string        `yaml:"user_agent" envconfig:"USER_AGENT" validate:"required"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	MaxRetries   int           `yaml:"max_retries" envconfig:"MAX_RETRIES" validate:"min=0,max=10"`
	RetryBackoff time.Duration `yaml:"retry_backoff" envconfig:"RETRY_BACKOFF"`
	RatePerSec   float64       `yaml:"rate_per_sec" envconfig:"RATE_PER_SEC" validate:"gt=0"`
	RateBurst    int           `yaml:"rate_burst" envconfig:"RATE_BURST" validate:"min=1"`
}

// ValidationConfig carries the caller-tunable consistency tolerances.
type ValidationConfig struct {
	// AbsoluteTolerance bounds subgroup-sum drift from row totals.
	AbsoluteTolerance float64 `yaml:"absolute_tolerance" envconfig:"ABSOLUTE_TOLERANCE" validate:"min=0"`
	// StateSumTolerance is the relative slack between summed district totals
	// and the official state total; entities outside standard district
	// accounting keep the two from agreeing exactly.
	StateSumTolerance float64 `yaml:"state_sum_tolerance" envconfig:"STATE_SUM_TOLERANCE" validate:"min=0,max=1"`
	// RunAfterFetch enables the consistency gate inside the fetch service.
	RunAfterFetch bool `yaml:"run_after_fetch" envconfig:"RUN_AFTER_FETCH"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "stdout",
			FilePath: "logs/mischooldata.log",
		},
		HTTP: HTTPConfig{
			BaseURL:      "https://www.michigan.gov/cepi/-/media/Project/Websites/cepi/historical",
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
			Timeout:      60 * time.Second,
			MaxRetries:   3,
			RetryBackoff: 2 * time.Second,
			RatePerSec:   1,
			RateBurst:    1,
		},
		Paths: defaultPaths(),
		Validation: ValidationConfig{
			AbsoluteTolerance: 1500,
			StateSumTolerance: 0.05,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// MISD_CONFIG_FILE (or ./mischooldata.yml when present), then environment
// overrides. YAML only touches the keys it names; env only the variables set.
func Load() (*Config, error) {
	cfg := Default()

	if path := configFilePath(); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("MISD", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Paths.resolve(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func configFilePath() string {
	if path := os.Getenv("MISD_CONFIG_FILE"); path != "" {
		return path
	}
	if _, err := os.Stat("mischooldata.yml"); err == nil {
		return "mischooldata.yml"
	}
	return ""
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
