// Package config provides configuration management for the secure-mask service and CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the main configuration structure
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Masking MaskingConfig `yaml:"masking"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig contains masking API server settings
type ServerConfig struct {
	Listen       string        `yaml:"listen"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// StorageConfig contains masked result cache settings
type StorageConfig struct {
	Type  string        `yaml:"type"` // "none", "memory" or "redis"
	Redis RedisConfig   `yaml:"redis"`
	TTL   time.Duration `yaml:"ttl"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"` //#nosec G117 -- Password field is intentional for Redis auth config
	DB       int    `yaml:"db"`
}

// MaskingConfig contains masking engine settings
type MaskingConfig struct {
	DefaultLanguage string   `yaml:"default_language"`
	TypeNames       bool     `yaml:"type_names"`
	DisabledPasses  []string `yaml:"disabled_passes"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string      `yaml:"level"`
	Format string      `yaml:"format"` // "console" or "json"
	Audit  AuditConfig `yaml:"audit"`
}

// AuditConfig contains audit logging settings
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Output  string `yaml:"output"`
	Format  string `yaml:"format"`

	// IncludeRequestDetails includes the HTTP path in API events
	IncludeRequestDetails bool `yaml:"include_request_details"`
}

// MetricsConfig contains Prometheus metrics and health endpoint settings
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Port     int    `yaml:"port"`
}

// ErrInvalidConfig indicates a configuration value is out of range
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:       ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxBodyBytes: 4 << 20,
		},
		Storage: StorageConfig{
			Type: "memory",
			TTL:  time.Hour,
			Redis: RedisConfig{
				Address: "localhost:6379",
				DB:      0,
			},
		},
		Masking: MaskingConfig{
			DefaultLanguage: "Java",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Audit: AuditConfig{
				Enabled: true,
				Level:   "standard",
				Output:  "stderr",
				Format:  "json",
			},
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Endpoint: "/metrics",
			Port:     9090,
		},
	}
}

// Load loads the configuration from the file named by CONFIG_PATH, falling back to config.yaml.
// A .env file in the working directory is applied to the environment first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Absolute paths are an explicit operator choice; relative ones must stay under the working directory
	if !filepath.IsAbs(configPath) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		configPath, err = sanitizeConfigPath(configPath, wd)
		if err != nil {
			return nil, err
		}
	}

	return LoadFile(configPath)
}

// LoadFile loads the configuration from a YAML file over the defaults.
// A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //#nosec G304 -- config path is operator supplied or sanitized
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks enumerated and numeric settings
func (c *Config) Validate() error {
	if !slices.Contains([]string{"none", "memory", "redis"}, c.Storage.Type) {
		return fmt.Errorf("%w: storage.type %q", ErrInvalidConfig, c.Storage.Type)
	}
	if c.Storage.Type != "none" && c.Storage.TTL <= 0 {
		return fmt.Errorf("%w: storage.ttl must be positive", ErrInvalidConfig)
	}
	if c.Masking.DefaultLanguage == "" {
		return fmt.Errorf("%w: masking.default_language is required", ErrInvalidConfig)
	}
	if !slices.Contains([]string{"trace", "debug", "info", "warn", "error"}, c.Logging.Level) {
		return fmt.Errorf("%w: logging.level %q", ErrInvalidConfig, c.Logging.Level)
	}
	if !slices.Contains([]string{"minimal", "standard", "verbose"}, c.Logging.Audit.Level) {
		return fmt.Errorf("%w: logging.audit.level %q", ErrInvalidConfig, c.Logging.Audit.Level)
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return fmt.Errorf("%w: metrics.port %d", ErrInvalidConfig, c.Metrics.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: server.max_body_bytes must be positive", ErrInvalidConfig)
	}
	return nil
}

// sanitizeConfigPath resolves path against baseDir and rejects anything outside it
func sanitizeConfigPath(path, baseDir string) (string, error) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}

	var target string
	if filepath.IsAbs(path) {
		target = filepath.Clean(path)
	} else {
		target = filepath.Join(absBase, path)
	}

	rel, err := filepath.Rel(absBase, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: %s", path)
	}

	return target, nil
}
