package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the job market pipeline.
type Config struct {
	DatabasePath string
	Country      string // Adzuna country code for the search endpoint, e.g. "fr"
	HomeCountry  string // assumed country for location strings without one
	Adzuna       AdzunaConfig
	Searches     []SearchConfig
	Pipeline     PipelineConfig
	Schedule     string // cron spec for the daemon, e.g. "@every 6h"
	ExportDir    string
}

// AdzunaConfig holds API credentials and paging limits.
type AdzunaConfig struct {
	AppID    string // expanded from env var by Load
	AppKey   string
	MaxPages int // pages fetched per search, 50 records each
}

// RequireCredentials errors when the API keys are missing. Only commands
// that talk to Adzuna call this; offline commands run without keys.
func (a AdzunaConfig) RequireCredentials() error {
	if a.AppID == "" || a.AppKey == "" {
		return fmt.Errorf("adzuna.app_id and adzuna.app_key are required (set ADZUNA_APP_ID / ADZUNA_APP_KEY)")
	}
	return nil
}

// SearchConfig is one keyword/location query the pipeline runs per cycle.
type SearchConfig struct {
	Keyword  string `yaml:"keyword"`
	Location string `yaml:"location"`
}

// PipelineConfig tunes batching, retries and the salary-validity filter.
type PipelineConfig struct {
	BatchSize      int           // rows per upsert transaction
	MaxRetries     int           // retries per search after the first attempt
	RetryDelay     time.Duration // base backoff delay, doubled per attempt
	RateLimitDelay time.Duration // minimum gap between API calls
	SalaryFloor    float64       // salary_max must exceed this to count as real
}

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	DatabasePath string            `yaml:"database_path"`
	Country      string            `yaml:"country"`
	HomeCountry  string            `yaml:"home_country"`
	Adzuna       rawAdzunaConfig   `yaml:"adzuna"`
	Searches     []SearchConfig    `yaml:"searches"`
	Pipeline     rawPipelineConfig `yaml:"pipeline"`
	Schedule     string            `yaml:"schedule"`
	ExportDir    string            `yaml:"export_dir"`
}

type rawAdzunaConfig struct {
	AppID    string `yaml:"app_id"`
	AppKey   string `yaml:"app_key"`
	MaxPages int    `yaml:"max_pages"`
}

type rawPipelineConfig struct {
	BatchSize      int      `yaml:"batch_size"`
	MaxRetries     *int     `yaml:"max_retries"` // pointer so an explicit 0 disables retries
	RetryDelay     string   `yaml:"retry_delay"`
	RateLimitDelay string   `yaml:"rate_limit_delay"`
	SalaryFloor    *float64 `yaml:"salary_floor"` // pointer so an explicit 0 keeps every row
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	retryDelay := 2 * time.Second
	if raw.Pipeline.RetryDelay != "" {
		retryDelay, err = time.ParseDuration(raw.Pipeline.RetryDelay)
		if err != nil {
			return nil, fmt.Errorf("parse pipeline.retry_delay %q: %w", raw.Pipeline.RetryDelay, err)
		}
	}

	rateLimitDelay := 1 * time.Second
	if raw.Pipeline.RateLimitDelay != "" {
		rateLimitDelay, err = time.ParseDuration(raw.Pipeline.RateLimitDelay)
		if err != nil {
			return nil, fmt.Errorf("parse pipeline.rate_limit_delay %q: %w", raw.Pipeline.RateLimitDelay, err)
		}
	}

	maxRetries := 3
	if raw.Pipeline.MaxRetries != nil {
		maxRetries = *raw.Pipeline.MaxRetries
	}

	salaryFloor := 1000.0
	if raw.Pipeline.SalaryFloor != nil {
		salaryFloor = *raw.Pipeline.SalaryFloor
	}

	batchSize := raw.Pipeline.BatchSize
	if batchSize == 0 {
		batchSize = 100
	}

	maxPages := raw.Adzuna.MaxPages
	if maxPages == 0 {
		maxPages = 5
	}

	country := raw.Country
	if country == "" {
		country = "fr"
	}

	homeCountry := raw.HomeCountry
	if homeCountry == "" {
		homeCountry = strings.ToUpper(country)
	}

	databasePath := raw.DatabasePath
	if databasePath == "" {
		databasePath = "data/jobs.db"
	}

	exportDir := raw.ExportDir
	if exportDir == "" {
		exportDir = "exports"
	}

	schedule := raw.Schedule
	if schedule == "" {
		schedule = "@every 6h"
	}

	cfg := &Config{
		DatabasePath: databasePath,
		Country:      country,
		HomeCountry:  homeCountry,
		Adzuna: AdzunaConfig{
			AppID:    raw.Adzuna.AppID,
			AppKey:   raw.Adzuna.AppKey,
			MaxPages: maxPages,
		},
		Searches: raw.Searches,
		Pipeline: PipelineConfig{
			BatchSize:      batchSize,
			MaxRetries:     maxRetries,
			RetryDelay:     retryDelay,
			RateLimitDelay: rateLimitDelay,
			SalaryFloor:    salaryFloor,
		},
		Schedule:  schedule,
		ExportDir: exportDir,
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if len(cfg.Searches) == 0 {
		return fmt.Errorf("at least one search must be configured")
	}
	for i, s := range cfg.Searches {
		if s.Keyword == "" {
			return fmt.Errorf("searches[%d].keyword must not be empty", i)
		}
	}

	if cfg.Pipeline.BatchSize < 1 {
		return fmt.Errorf("pipeline.batch_size must be positive, got %d", cfg.Pipeline.BatchSize)
	}
	if cfg.Pipeline.MaxRetries < 0 {
		return fmt.Errorf("pipeline.max_retries must not be negative, got %d", cfg.Pipeline.MaxRetries)
	}
	if cfg.Pipeline.RateLimitDelay < 0 {
		return fmt.Errorf("pipeline.rate_limit_delay must not be negative, got %v", cfg.Pipeline.RateLimitDelay)
	}
	if cfg.Pipeline.SalaryFloor < 0 {
		return fmt.Errorf("pipeline.salary_floor must not be negative, got %v", cfg.Pipeline.SalaryFloor)
	}
	if cfg.Adzuna.MaxPages < 1 {
		return fmt.Errorf("adzuna.max_pages must be positive, got %d", cfg.Adzuna.MaxPages)
	}

	return nil
}
