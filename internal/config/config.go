package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"

	"proxtest/domain/core"
	"proxtest/domain/stats"
	"proxtest/internal/errors"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	// DefaultIterations is the permutation count when none is configured
	DefaultIterations = 10000
	DefaultAlpha      = 0.05
)

// Config represents the complete application configuration
type Config struct {
	Run      RunConfig      `toml:"run"`
	Paths    PathConfig     `toml:"paths"`
	Report   ReportConfig   `toml:"report"`
	Database DatabaseConfig `toml:"database"`
	LogLevel string         `toml:"log_level"`
}

// RunConfig holds permutation test settings
type RunConfig struct {
	Iterations      int     `toml:"iterations"`
	Seed            *int64  `toml:"seed"` // nil means seed from the clock
	Workers         int     `toml:"workers"`
	MissingPolicy   string  `toml:"missing_policy"`
	AugmentLookup   bool    `toml:"augment_lookup"`
	ExcludeObserved bool    `toml:"exclude_observed"`
	Alpha           float64 `toml:"alpha"` // significance level for verdicts
}

// PathConfig holds input file locations
type PathConfig struct {
	LookupFile   string `toml:"lookup_file"`
	ObservedFile string `toml:"observed_file"`
}

// ReportConfig holds output settings
type ReportConfig struct {
	Dir             string `toml:"dir"` // empty disables file reports
	HTML            bool   `toml:"html"`
	PerIterationCSV bool   `toml:"per_iteration_csv"`
}

// DatabaseConfig holds the optional run-summary sink
type DatabaseConfig struct {
	URL string `toml:"url"` // empty disables persistence
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Run: RunConfig{
			Iterations:    DefaultIterations,
			Workers:       runtime.GOMAXPROCS(0),
			MissingPolicy: string(stats.PolicyStrict),
			AugmentLookup: true,
			Alpha:         DefaultAlpha,
		},
		Report: ReportConfig{
			HTML:            true,
			PerIterationCSV: true,
		},
		LogLevel: "INFO",
	}
}

// Load reads .env (if present) and environment variables over the defaults
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "failed to read .env file")
	}

	config := Default()
	if err := applyEnv(config); err != nil {
		return nil, errors.Wrap(err, "invalid environment")
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// LoadFile overlays a TOML file on cfg. Keys absent from the file keep
// their current values.
func LoadFile(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "failed to decode config file %s", path))
	}
	return cfg.Validate()
}

// Policy returns the parsed missing-pair policy
func (c *Config) Policy() stats.MissingPolicy {
	return stats.MissingPolicy(c.Run.MissingPolicy)
}

// Validate checks field ranges
func (c *Config) Validate() error {
	if c.Run.Iterations < 1 {
		return core.NewConfigError("iterations", "must be at least 1")
	}
	if c.Run.Workers < 1 {
		return core.NewConfigError("workers", "must be at least 1")
	}
	if c.Run.Alpha <= 0 || c.Run.Alpha >= 1 {
		return core.NewConfigError("alpha", "must be between 0 and 1 exclusive")
	}
	if !c.Policy().Valid() {
		return core.NewConfigError("missing_policy", "must be \"strict\" or \"drop\", got \""+c.Run.MissingPolicy+"\"")
	}
	return nil
}

func applyEnv(c *Config) error {
	c.Run.Iterations = getEnvIntOrDefault("PERM_ITERATIONS", c.Run.Iterations)
	c.Run.Workers = getEnvIntOrDefault("PERM_WORKERS", c.Run.Workers)
	c.Run.MissingPolicy = getEnvOrDefault("PERM_MISSING_POLICY", c.Run.MissingPolicy)
	c.Run.AugmentLookup = getEnvBoolOrDefault("PERM_AUGMENT_LOOKUP", c.Run.AugmentLookup)
	c.Run.ExcludeObserved = getEnvBoolOrDefault("PERM_EXCLUDE_OBSERVED", c.Run.ExcludeObserved)
	c.Run.Alpha = getEnvFloatOrDefault("PERM_ALPHA", c.Run.Alpha)
	if value := os.Getenv("PERM_SEED"); value != "" {
		seed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return core.NewConfigError("seed", fmt.Sprintf("PERM_SEED %q is not an integer", value))
		}
		c.Run.Seed = &seed
	}

	c.Paths.LookupFile = getEnvOrDefault("LOOKUP_FILE", c.Paths.LookupFile)
	c.Paths.ObservedFile = getEnvOrDefault("OBSERVED_FILE", c.Paths.ObservedFile)

	c.Report.Dir = getEnvOrDefault("REPORT_DIR", c.Report.Dir)
	c.Report.HTML = getEnvBoolOrDefault("REPORT_HTML", c.Report.HTML)
	c.Report.PerIterationCSV = getEnvBoolOrDefault("REPORT_PER_ITERATION_CSV", c.Report.PerIterationCSV)

	c.Database.URL = getEnvOrDefault("DATABASE_URL", c.Database.URL)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
