// Package config provides configuration management for pipeline execution
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the global configuration for pipeline execution
type Config struct {
	// Parallel Processing Configuration
	ParallelThreshold int `json:"parallel_threshold" yaml:"parallel_threshold"` // Minimum rows to trigger parallel row evaluation
	WorkerCount       int `json:"worker_count" yaml:"worker_count"`             // Number of worker goroutines (0 = auto-detect)

	// Currency Rate Source Configuration
	RateAPIBaseURL string        `json:"rate_api_base_url" yaml:"rate_api_base_url"` // Base URL of the exchange-rate API
	RateAPIKeyEnv  string        `json:"rate_api_key_env" yaml:"rate_api_key_env"`   // Env var holding the API key
	RateCacheTTL   time.Duration `json:"rate_cache_ttl" yaml:"rate_cache_ttl"`       // How long fetched rates stay fresh

	// Output Configuration
	DefaultLocale string `json:"default_locale" yaml:"default_locale"` // BCP 47 tag used for narration number formatting

	// Logging Configuration
	RedactValues   bool `json:"redact_values" yaml:"redact_values"`     // Strip column names and literals from logged plans
	VerboseLogging bool `json:"verbose_logging" yaml:"verbose_logging"` // Enable verbose logging
}

// Global configuration instance
var (
	globalConfig Config
	configMutex  sync.RWMutex
)

// Default configuration values
const (
	DefaultParallelThreshold = 10000
	DefaultRateAPIBaseURL    = "https://v6.exchangerate-api.com/v6"
	DefaultRateAPIKeyEnv     = "EXCHANGE_RATE_API_KEY"
	DefaultRateCacheTTL      = time.Hour
	DefaultLocaleTag         = "en-US"
)

// Initialize global configuration with defaults
func init() {
	globalConfig = NewConfig()
}

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		ParallelThreshold: DefaultParallelThreshold,
		WorkerCount:       0, // Auto-detect
		RateAPIBaseURL:    DefaultRateAPIBaseURL,
		RateAPIKeyEnv:     DefaultRateAPIKeyEnv,
		RateCacheTTL:      DefaultRateCacheTTL,
		DefaultLocale:     DefaultLocaleTag,
		RedactValues:      true,
		VerboseLogging:    false,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.ParallelThreshold <= 0 {
		return fmt.Errorf("ParallelThreshold must be positive, got %d", c.ParallelThreshold)
	}

	if c.WorkerCount < 0 {
		return fmt.Errorf("WorkerCount must be non-negative, got %d", c.WorkerCount)
	}

	if c.RateCacheTTL < 0 {
		return fmt.Errorf("RateCacheTTL must be non-negative, got %s", c.RateCacheTTL)
	}

	if c.DefaultLocale == "" {
		return fmt.Errorf("DefaultLocale must not be empty")
	}

	return nil
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.ParallelThreshold == 0 {
		c.ParallelThreshold = defaults.ParallelThreshold
	}
	if c.RateAPIBaseURL == "" {
		c.RateAPIBaseURL = defaults.RateAPIBaseURL
	}
	if c.RateAPIKeyEnv == "" {
		c.RateAPIKeyEnv = defaults.RateAPIKeyEnv
	}
	if c.RateCacheTTL == 0 {
		c.RateCacheTTL = defaults.RateCacheTTL
	}
	if c.DefaultLocale == "" {
		c.DefaultLocale = defaults.DefaultLocale
	}

	// Boolean fields are intentionally not defaulted here so an explicit
	// false survives. Use NewConfig() directly for boolean defaults.

	return c
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = config
}

// GetGlobalConfig returns the current global configuration
func GetGlobalConfig() Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// LoadFromJSON loads configuration from JSON data
func LoadFromJSON(data []byte) (Config, error) {
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a file (supports JSON and YAML)
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config.WithDefaults(), nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() Config {
	config := NewConfig()

	if val := os.Getenv("ROWPIPE_PARALLEL_THRESHOLD"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.ParallelThreshold = parsed
		}
	}

	if val := os.Getenv("ROWPIPE_WORKER_COUNT"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.WorkerCount = parsed
		}
	}

	if val := os.Getenv("ROWPIPE_RATE_API_BASE_URL"); val != "" {
		config.RateAPIBaseURL = val
	}

	if val := os.Getenv("ROWPIPE_RATE_API_KEY_ENV"); val != "" {
		config.RateAPIKeyEnv = val
	}

	if val := os.Getenv("ROWPIPE_RATE_CACHE_TTL"); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			config.RateCacheTTL = parsed
		}
	}

	if val := os.Getenv("ROWPIPE_DEFAULT_LOCALE"); val != "" {
		config.DefaultLocale = val
	}

	if val := os.Getenv("ROWPIPE_REDACT_VALUES"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.RedactValues = parsed
		}
	}

	if val := os.Getenv("ROWPIPE_VERBOSE_LOGGING"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.VerboseLogging = parsed
		}
	}

	return config
}
