package model

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full runtime configuration. Values come from defaults,
// the config file, MOLTPULSE_* environment variables, and CLI flags, in
// ascending priority.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" json:"http"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Scoring     ScoringConfig     `yaml:"scoring" json:"scoring"`
	Scraping    ScrapingConfig    `yaml:"scraping" json:"scraping"`
	LLM         LLMConfig         `yaml:"llm" json:"llm"`
	DomainsDir  string            `yaml:"domains_dir" json:"domains_dir"`

	// API keys, loaded from the environment and the key file. Never
	// written back to the config file.
	Keys map[string]string `yaml:"-" json:"-"`
}

// HTTPConfig controls the shared outbound HTTP client.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	Retries      int           `yaml:"retries" json:"retries"`
	RatePerHost  float64       `yaml:"rate_per_host" json:"rate_per_host"`
	RateBurst    int           `yaml:"rate_burst" json:"rate_burst"`
}

// CacheConfig controls the report cache.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	TTLHours int    `yaml:"ttl_hours" json:"ttl_hours"`
	Dir      string `yaml:"dir" json:"dir"`
}

// ConcurrencyConfig bounds parallel work.
type ConcurrencyConfig struct {
	Collectors int `yaml:"collectors" json:"collectors"`
}

// ScoringConfig tunes the ranking pipeline.
type ScoringConfig struct {
	RecencyHorizonDays int     `yaml:"recency_horizon_days" json:"recency_horizon_days"`
	DedupeThreshold    float64 `yaml:"dedupe_threshold" json:"dedupe_threshold"`
	RequireDate        bool    `yaml:"require_date" json:"require_date"`
}

// ScrapingConfig gates the web scraping collectors.
type ScrapingConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// LLMConfig controls optional report enhancement.
type LLMConfig struct {
	Provider string `yaml:"provider" json:"provider"`
	Model    string `yaml:"model" json:"model"`
	APIKey   string `yaml:"-" json:"-"`
	BaseURL  string `yaml:"base_url" json:"base_url"`
	Timeout  int    `yaml:"timeout" json:"timeout"`
}

// KnownAPIKeys lists every API key the collectors understand, for the
// preflight display and the key file template.
var KnownAPIKeys = []string{
	"ALPHA_VANTAGE_API_KEY",
	"NEWSDATA_API_KEY",
	"NEWSAPI_API_KEY",
	"XAI_API_KEY",
	"INTELLIZENCE_API_KEY",
	"OPENAI_API_KEY",
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "moltpulse/0.1 (+https://github.com/moltpulse/moltpulse)",
			MaxBodyBytes: 2_000_000,
			Retries:      3,
			RatePerHost:  2.0,
			RateBurst:    5,
		},
		Cache: CacheConfig{
			Enabled:  true,
			TTLHours: 24,
			Dir:      filepath.Join(home, ".cache", "moltpulse"),
		},
		Concurrency: ConcurrencyConfig{
			Collectors: 5,
		},
		Scoring: ScoringConfig{
			RecencyHorizonDays: 30,
			DedupeThreshold:    0.7,
			RequireDate:        false,
		},
		Scraping: ScrapingConfig{
			Enabled: true,
		},
		LLM: LLMConfig{
			Provider: "",
			Model:    "gpt-4o-mini",
			Timeout:  30,
		},
		DomainsDir: "domains",
		Keys:       map[string]string{},
	}
}

// Key returns the named API key, or "" when unconfigured.
func (c *Config) Key(name string) string {
	if c.Keys == nil {
		return ""
	}
	return c.Keys[name]
}

// KeyFilePath is the location of the API key file.
func KeyFilePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".moltpulse", ".env")
}

// LoadKeys fills c.Keys from the key file (if present) and the process
// environment. Environment variables win over the file.
func (c *Config) LoadKeys(path string) {
	if c.Keys == nil {
		c.Keys = map[string]string{}
	}

	if path != "" {
		if fileKeys, err := godotenv.Read(path); err == nil {
			for k, v := range fileKeys {
				if v != "" {
					c.Keys[k] = v
				}
			}
		}
	}

	for _, name := range KnownAPIKeys {
		if v := os.Getenv(name); v != "" {
			c.Keys[name] = v
		}
	}

	if c.LLM.APIKey == "" {
		c.LLM.APIKey = c.Key("OPENAI_API_KEY")
	}
}
