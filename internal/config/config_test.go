package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadAndValidate(t *testing.T) {
	// Create temp config file
	content := `
provider:
  api_base_url: "http://localhost:9000/v1"
  timeout: 10s

cache:
  enabled: true
  dir: "./tmp/cache"
  ttl: 24h

output:
  dir: "./tmp/output"

pipeline:
  workers: 4

telegram:
  bot_token: "test_token"
  chat_id: "12345"
  enabled: true

logging:
  level: "debug"
  format: "json"
`
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	// Test Load
	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify values
	if cfg.Provider.APIBaseURL != "http://localhost:9000/v1" {
		t.Errorf("Unexpected API URL: %s", cfg.Provider.APIBaseURL)
	}
	if cfg.Provider.Timeout != 10*time.Second {
		t.Errorf("Unexpected timeout: %v", cfg.Provider.Timeout)
	}
	if cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("Unexpected cache ttl: %v", cfg.Cache.TTL)
	}
	if cfg.Pipeline.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", cfg.Pipeline.Workers)
	}
	// Not present in file, default applies
	if cfg.Telegram.MaxRetries != 3 {
		t.Errorf("Expected default max retries 3, got %d", cfg.Telegram.MaxRetries)
	}

	// Test Validate
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Provider.APIBaseURL != "https://api.openf1.org/v1" {
		t.Errorf("Unexpected API URL: %s", cfg.Provider.APIBaseURL)
	}
	if cfg.Cache.Dir != "data/cache" {
		t.Errorf("Unexpected cache dir: %s", cfg.Cache.Dir)
	}
	if cfg.Output.Dir != "data/output" {
		t.Errorf("Unexpected output dir: %s", cfg.Output.Dir)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults must validate: %v", err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RACEPACE_OUTPUT_DIR", "/var/lib/racepace")
	t.Setenv("RACEPACE_PIPELINE_WORKERS", "3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Output.Dir != "/var/lib/racepace" {
		t.Errorf("Expected env override for output dir, got %s", cfg.Output.Dir)
	}
	if cfg.Pipeline.Workers != 3 {
		t.Errorf("Expected env override for workers, got %d", cfg.Pipeline.Workers)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/racepace.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func validConfig() *Config {
	return &Config{
		Provider: ProviderConfig{APIBaseURL: "https://example.com", Timeout: time.Minute},
		Cache:    CacheConfig{Enabled: true, Dir: "data/cache"},
		Output:   OutputConfig{Dir: "data/output"},
		Pipeline: PipelineConfig{Workers: 1},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing api url", mutate: func(c *Config) { c.Provider.APIBaseURL = "" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.Provider.Timeout = -time.Second }, wantErr: true},
		{name: "cache without dir", mutate: func(c *Config) { c.Cache.Dir = "" }, wantErr: true},
		{name: "disabled cache without dir", mutate: func(c *Config) { c.Cache.Enabled = false; c.Cache.Dir = "" }},
		{name: "negative ttl", mutate: func(c *Config) { c.Cache.TTL = -time.Hour }, wantErr: true},
		{name: "missing output dir", mutate: func(c *Config) { c.Output.Dir = "" }, wantErr: true},
		{name: "zero workers", mutate: func(c *Config) { c.Pipeline.Workers = 0 }, wantErr: true},
		{name: "missing telegram token when enabled", mutate: func(c *Config) {
			c.Telegram = TelegramConfig{Enabled: true, ChatID: "1"}
		}, wantErr: true},
		{name: "missing telegram chat when enabled", mutate: func(c *Config) {
			c.Telegram = TelegramConfig{Enabled: true, BotToken: "t"}
		}, wantErr: true},
		{name: "invalid log level", mutate: func(c *Config) { c.Logging.Level = "trace" }, wantErr: true},
		{name: "invalid log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
