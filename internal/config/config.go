package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding configuration keys,
// e.g. RACEPACE_PROVIDER_TIMEOUT for provider.timeout.
const EnvPrefix = "RACEPACE"

// Config represents the complete application configuration
type Config struct {
	Provider ProviderConfig `mapstructure:"provider"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Output   OutputConfig   `mapstructure:"output"`
	Tracks   TracksConfig   `mapstructure:"tracks"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ProviderConfig holds telemetry provider API configuration
type ProviderConfig struct {
	APIBaseURL string        `mapstructure:"api_base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds the provider fetch cache configuration
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Dir     string        `mapstructure:"dir"`
	TTL     time.Duration `mapstructure:"ttl"` // 0 keeps entries forever
}

// OutputConfig holds season document output configuration
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// TracksConfig holds the track reference table source
type TracksConfig struct {
	File string `mapstructure:"file"` // empty uses the embedded table
}

// PipelineConfig holds season processing configuration
type PipelineConfig struct {
	Workers int `mapstructure:"workers"`
}

// TelegramConfig holds Telegram run summary configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// An empty path skips the file and uses defaults plus environment overrides.
func Load(path string) (*Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith is Load on a caller-supplied viper instance, so command-line flags
// bound to v take precedence over file and environment values.
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Provider defaults
	v.SetDefault("provider.api_base_url", "https://api.openf1.org/v1")
	v.SetDefault("provider.timeout", "60s")

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.dir", "data/cache")
	v.SetDefault("cache.ttl", "0s")

	// Output defaults
	v.SetDefault("output.dir", "data/output")

	v.SetDefault("tracks.file", "")

	v.SetDefault("pipeline.workers", 1)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Provider config
	if c.Provider.APIBaseURL == "" {
		return fmt.Errorf("provider.api_base_url is required")
	}
	if c.Provider.Timeout < 0 {
		return fmt.Errorf("provider.timeout must not be negative")
	}

	// Validate Cache config
	if c.Cache.Enabled && c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir is required when cache is enabled")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}

	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers must be at least 1")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
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
