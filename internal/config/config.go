package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"marklens/pkg/contracts/domain"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	History  HistoryConfig  `yaml:"history" envconfig:"HISTORY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Export   ExportConfig   `yaml:"export" envconfig:"EXPORT"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// AnalysisConfig is the configuration surface consumed by the core
// engine: matching threshold, valid mark range, metric selections, and
// the input size cap applied before a pipeline starts.
type AnalysisConfig struct {
	MatchThreshold   float64 `yaml:"match_threshold" envconfig:"MATCH_THRESHOLD"`
	MinMark          float64 `yaml:"min_mark" envconfig:"MIN_MARK"`
	MaxMark          float64 `yaml:"max_mark" envconfig:"MAX_MARK"`
	RankingMetric    string  `yaml:"ranking_metric" envconfig:"RANKING_METRIC"`
	ComparisonMetric string  `yaml:"comparison_metric" envconfig:"COMPARISON_METRIC"`
	PassThreshold    float64 `yaml:"pass_threshold" envconfig:"PASS_THRESHOLD"`
	MaxRows          int     `yaml:"max_rows" envconfig:"MAX_ROWS"`
}

// HistoryConfig selects the historical store backend.
type HistoryConfig struct {
	Driver string `yaml:"driver" envconfig:"DRIVER"` // memory or sqlite
	Path   string `yaml:"path" envconfig:"PATH"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

// ExportConfig contains export output configuration
type ExportConfig struct {
	Dir       string `yaml:"dir" envconfig:"DIR"`
	BOMPrefix bool   `yaml:"bom_prefix" envconfig:"BOM_PREFIX"`
}

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Analysis: AnalysisConfig{
			MatchThreshold:   0.80,
			MinMark:          0,
			MaxMark:          100,
			RankingMetric:    domain.MetricTotal,
			ComparisonMetric: domain.MetricTotal,
			PassThreshold:    50,
			MaxRows:          10000,
		},
		History: HistoryConfig{
			Driver: "memory",
			Path:   "data/marklens.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Export: ExportConfig{
			Dir:       "exports",
			BOMPrefix: true,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and MARKLENS_* environment variables, in that precedence order.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			if err := loadFromFile(configFile, &cfg); err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
		}
	}

	if err := envconfig.Process("MARKLENS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile overlays configuration from a YAML file
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the configuration for invalid combinations
func (c *Config) Validate() error {
	if c.Analysis.MatchThreshold <= 0 || c.Analysis.MatchThreshold > 1 {
		return fmt.Errorf("match threshold must be in (0, 1], got %.3f", c.Analysis.MatchThreshold)
	}
	if c.Analysis.MinMark >= c.Analysis.MaxMark {
		return fmt.Errorf("mark range invalid: min %.2f >= max %.2f", c.Analysis.MinMark, c.Analysis.MaxMark)
	}
	if c.Analysis.MaxRows <= 0 {
		return fmt.Errorf("max rows must be positive, got %d", c.Analysis.MaxRows)
	}
	if c.Analysis.PassThreshold < 0 || c.Analysis.PassThreshold > 100 {
		return fmt.Errorf("pass threshold must be a percentage, got %.2f", c.Analysis.PassThreshold)
	}
	switch c.Analysis.ComparisonMetric {
	case domain.MetricTotal, domain.MetricAverage:
	default:
		return fmt.Errorf("comparison metric must be %q or %q, got %q",
			domain.MetricTotal, domain.MetricAverage, c.Analysis.ComparisonMetric)
	}
	switch c.History.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("history driver must be memory or sqlite, got %q", c.History.Driver)
	}
	if c.History.Driver == "sqlite" && c.History.Path == "" {
		return fmt.Errorf("history path required for sqlite driver")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	return nil
}
