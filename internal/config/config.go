package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config file name used when no path is provided.
const DefaultConfigFile = "config.yaml"

// AppConfig holds command-level options for the server process.
type AppConfig struct {
	ConfigPath string // Path to the YAML configuration file.
}

// ServerConfig holds HTTP server options.
type ServerConfig struct {
	Host string `yaml:"host"` // Bind address, empty for all interfaces.
	Port int    `yaml:"port"` // Listen port.
}

// DatabaseConfig holds persistence options.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // GORM DSN, postgres URL or sqlite file path.
}

// RedisConfig holds the optional Redis quota backend options.
type RedisConfig struct {
	Addr     string `yaml:"addr"` // Empty disables the Redis backend.
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ProviderConfig holds threat-intelligence provider options.
type ProviderConfig struct {
	BaseURL string        `yaml:"base-url"` // Provider API root.
	APIKey  string        `yaml:"api-key"`  // Credential sent as x-apikey.
	Timeout time.Duration `yaml:"timeout"`  // Per-request timeout.
}

// SummarizerConfig holds text-generation collaborator options.
type SummarizerConfig struct {
	BaseURL string        `yaml:"base-url"` // Chat-completions API root.
	APIKey  string        `yaml:"api-key"`  // Bearer credential.
	Model   string        `yaml:"model"`    // Model identifier.
	Timeout time.Duration `yaml:"timeout"`  // Per-request timeout.
}

// QuotaConfig holds lookup quota options.
type QuotaConfig struct {
	DailyLimit int `yaml:"daily-limit"` // Accepted lookups per user per UTC day.
}

// JWTConfig holds token signing options.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// LoggingConfig holds log output options.
type LoggingConfig struct {
	File       string `yaml:"file"`        // Empty logs to stdout.
	MaxSizeMB  int    `yaml:"max-size-mb"` // Rotation threshold.
	MaxBackups int    `yaml:"max-backups"`
	MaxAgeDays int    `yaml:"max-age-days"`
	Level      string `yaml:"level"` // logrus level name.
}

// Config is the root configuration document.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Provider   ProviderConfig   `yaml:"provider"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Quota      QuotaConfig      `yaml:"quota"`
	JWT        JWTConfig        `yaml:"jwt"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// Defaults applied when the YAML document omits a value.
const (
	defaultPort              = 8317
	defaultDailyLimit        = 10
	defaultProviderBaseURL   = "https://www.virustotal.com/api/v3"
	defaultProviderTimeout   = 30 * time.Second
	defaultSummarizerBaseURL = "https://api.openai.com/v1"
	defaultSummarizerModel   = "gpt-3.5-turbo"
	defaultSummarizerTimeout = 60 * time.Second
	defaultJWTExpiry         = 24 * time.Hour
)

// ResolveConfigPath returns the effective config file path for a raw value.
func ResolveConfigPath(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultConfigFile
	}
	return filepath.Clean(trimmed)
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, errRead := os.ReadFile(path)
	if errRead != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, errRead)
	}

	cfg := &Config{}
	if errUnmarshal := yaml.Unmarshal(data, cfg); errUnmarshal != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	if errValidate := cfg.Validate(); errValidate != nil {
		return nil, errValidate
	}
	return cfg, nil
}

// applyDefaults fills in zero values with documented defaults.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Quota.DailyLimit == 0 {
		c.Quota.DailyLimit = defaultDailyLimit
	}
	if strings.TrimSpace(c.Provider.BaseURL) == "" {
		c.Provider.BaseURL = defaultProviderBaseURL
	}
	if c.Provider.Timeout <= 0 {
		c.Provider.Timeout = defaultProviderTimeout
	}
	if strings.TrimSpace(c.Summarizer.BaseURL) == "" {
		c.Summarizer.BaseURL = defaultSummarizerBaseURL
	}
	if strings.TrimSpace(c.Summarizer.Model) == "" {
		c.Summarizer.Model = defaultSummarizerModel
	}
	if c.Summarizer.Timeout <= 0 {
		c.Summarizer.Timeout = defaultSummarizerTimeout
	}
	if c.JWT.Expiry <= 0 {
		c.JWT.Expiry = defaultJWTExpiry
	}
}

// applyEnvOverrides lets secrets come from the environment instead of the file.
func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("THREATSCOPE_PROVIDER_API_KEY")); v != "" {
		c.Provider.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("THREATSCOPE_SUMMARIZER_API_KEY")); v != "" {
		c.Summarizer.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("THREATSCOPE_JWT_SECRET")); v != "" {
		c.JWT.Secret = v
	}
	if v := strings.TrimSpace(os.Getenv("THREATSCOPE_DATABASE_DSN")); v != "" {
		c.Database.DSN = v
	}
}

// Validate reports configuration errors that must stop startup.
// A missing provider credential is a configuration error here, not a
// per-request failure.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("config: database.dsn is required")
	}
	if strings.TrimSpace(c.Provider.APIKey) == "" {
		return fmt.Errorf("config: provider.api-key is required")
	}
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("config: jwt.secret is required")
	}
	if c.Quota.DailyLimit < 0 {
		return fmt.Errorf("config: quota.daily-limit must be non-negative")
	}
	return nil
}
