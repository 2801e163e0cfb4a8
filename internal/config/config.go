// Package config provides unified configuration loading for the analysis
// service. Supports YAML files, a .env file, and environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the analysis service.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Analysis      AnalysisConfig      `yaml:"analysis"`
	Gemini        GeminiConfig        `yaml:"gemini"`
	Render        RenderConfig        `yaml:"render"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// AnalysisConfig holds orchestration settings.
type AnalysisConfig struct {
	// Provider is "gemini" or "mock"; empty means gemini when an API key
	// is present.
	Provider              string  `yaml:"provider"`
	MockAnalysis          bool    `yaml:"mock_analysis"`
	MaxPages              int     `yaml:"max_pages"`
	MaxConcurrency        int     `yaml:"max_concurrency"` // 0 = derive from CPU count
	UnrecognizedThreshold float64 `yaml:"unrecognized_threshold"`
}

// GeminiConfig holds upstream AI service settings.
type GeminiConfig struct {
	APIKey         string        `yaml:"api_key"`
	Model          string        `yaml:"model"`
	Endpoint       string        `yaml:"endpoint"`
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// RenderConfig holds PDF rasterization settings for the CLI path.
type RenderConfig struct {
	TargetLongEdgePx int `yaml:"target_long_edge_px"`
	JPEGQuality      int `yaml:"jpeg_quality"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from an optional YAML file and applies .env and
// environment overrides. Call it once at startup; the returned value is the
// process-wide configuration.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // ignore error if .env doesn't exist

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8090,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     10 * time.Minute,
			IdleTimeout:      120 * time.Second,
			RequestTimeout:   5 * time.Minute,
			GracefulShutdown: 10 * time.Second,
		},
		Analysis: AnalysisConfig{
			MaxPages:              20,
			MaxConcurrency:        0,
			UnrecognizedThreshold: 0.7,
		},
		Gemini: GeminiConfig{
			Model:          "gemini-3-flash-preview",
			Endpoint:       "https://generativelanguage.googleapis.com/v1beta",
			MaxRetries:     3,
			InitialBackoff: 2 * time.Second,
			MaxBackoff:     30 * time.Second,
		},
		Render: RenderConfig{
			TargetLongEdgePx: 1280,
			JPEGQuality:      82,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Analysis.Provider {
	case "", "gemini", "mock":
	default:
		return fmt.Errorf("invalid analysis provider: %s", c.Analysis.Provider)
	}

	if c.Analysis.MaxPages < 1 {
		return fmt.Errorf("max_pages must be at least 1")
	}

	if c.Analysis.UnrecognizedThreshold <= 0 || c.Analysis.UnrecognizedThreshold > 1 {
		return fmt.Errorf("unrecognized_threshold must be in (0,1]")
	}

	if c.Gemini.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}

	if c.Render.JPEGQuality < 1 || c.Render.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be between 1 and 100")
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}

	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Gemini.Model = v
	}

	if v := os.Getenv("GEMINI_ENDPOINT"); v != "" {
		cfg.Gemini.Endpoint = v
	}

	if v := os.Getenv("ANALYSIS_PROVIDER"); v != "" {
		cfg.Analysis.Provider = v
	}

	if v := os.Getenv("MOCK_ANALYSIS"); v == "true" {
		cfg.Analysis.MockAnalysis = true
	}

	if v := os.Getenv("ANALYSIS_MAX_PAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.MaxPages = n
		}
	}

	if v := os.Getenv("ANALYSIS_MAX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.MaxConcurrency = n
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
