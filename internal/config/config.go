package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all routing engine configuration.
type Config struct {
	// Database configuration
	Database DatabaseConfig `yaml:"database"`

	// LLM classifier configuration
	LLM LLMConfig `yaml:"llm"`

	// Geocoding configuration
	Geocoder GeocoderConfig `yaml:"geocoder"`

	// Routing policy configuration
	Routing RoutingConfig `yaml:"routing"`

	// HTTP facade configuration
	Server ServerConfig `yaml:"server"`

	// Directory holding CSV exports and ticket images
	DataDir string `yaml:"data_dir"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LLMConfig configures the OpenAI-compatible classifier.
type LLMConfig struct {
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	Timeout    string `yaml:"timeout"`
	MaxRetries int    `yaml:"max_retries"`
}

// GeocoderConfig configures address resolution providers.
type GeocoderConfig struct {
	UserAgent    string `yaml:"user_agent"`
	BaseURL      string `yaml:"base_url"`
	CountryCode  string `yaml:"country_code"`
	GoogleAPIKey string `yaml:"google_api_key"`
	Timeout      string `yaml:"timeout"`
}

// RoutingConfig configures assignment policy.
type RoutingConfig struct {
	// DomesticCountry is the home country name as it appears in
	// ticket address fields.
	DomesticCountry string `yaml:"domestic_country"`

	// RequireHubFallback makes a missing hub office a hard error
	// instead of degrading to plain rotation over all offices.
	RequireHubFallback bool `yaml:"require_hub_fallback"`

	// Workers caps concurrent ticket processing in batch runs.
	// 1 preserves strict arrival-order determinism.
	Workers int `yaml:"workers"`
}

// ServerConfig configures the HTTP facade.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "data/tickets.db",
		},

		LLM: LLMConfig{
			Model:      "gpt-4o",
			BaseURL:    "https://api.openai.com/v1",
			Timeout:    "60s",
			MaxRetries: 3,
		},

		Geocoder: GeocoderConfig{
			UserAgent:   "ticket-routing/1.0",
			BaseURL:     "https://nominatim.openstreetmap.org",
			CountryCode: "kz",
			Timeout:     "10s",
		},

		Routing: RoutingConfig{
			DomesticCountry:    "Казахстан",
			RequireHubFallback: false,
			Workers:            1,
		},

		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"*"},
		},

		DataDir: "data",
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if url := os.Getenv("OPENAI_BASE_URL"); url != "" {
		c.LLM.BaseURL = url
	}

	if key := os.Getenv("GOOGLE_MAPS_API_KEY"); key != "" {
		c.Geocoder.GoogleAPIKey = key
	}
	if ua := os.Getenv("GEOCODER_USER_AGENT"); ua != "" {
		c.Geocoder.UserAgent = ua
	}

	if path := os.Getenv("DATABASE_PATH"); path != "" {
		c.Database.Path = path
	}
	if dir := os.Getenv("CSV_DATA_PATH"); dir != "" {
		c.DataDir = dir
	}
}

// Validate checks invariants that would otherwise surface as runtime
// failures deep in the pipeline.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Routing.Workers < 1 {
		return fmt.Errorf("routing.workers must be >= 1, got %d", c.Routing.Workers)
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must not be negative, got %d", c.LLM.MaxRetries)
	}
	return nil
}

// GetLLMTimeout returns the classifier timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetGeocoderTimeout returns the geocoder timeout as a duration.
func (c *Config) GetGeocoderTimeout() time.Duration {
	d, err := time.ParseDuration(c.Geocoder.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}
