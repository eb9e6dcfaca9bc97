// Package platform provides service configuration loading and validation.
package platform

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/anchor-insight/anchor-insight/pkg/auth"
)

// Config holds the complete service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Tracker  TrackerConfig  `yaml:"tracker"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Audit    AuditConfig    `yaml:"audit"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Name            string        `yaml:"name"`
	Version         string        `yaml:"version"`
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	TLS             TLSConfig     `yaml:"tls"`
}

// TLSConfig configures TLS.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// AuthConfig configures authentication.
type AuthConfig struct {
	APIKeys        APIKeyAuthConfig `yaml:"api_keys"`
	JWT            JWTAuthConfig    `yaml:"jwt"`
	AllowAnonymous bool             `yaml:"allow_anonymous"` // default: false
}

// APIKeyAuthConfig configures API key authentication.
type APIKeyAuthConfig struct {
	Enabled bool          `yaml:"enabled"`
	Keys    []auth.APIKey `yaml:"keys"`
}

// JWTAuthConfig configures JWT bearer token authentication.
type JWTAuthConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Issuer     string `yaml:"issuer"`
	SigningKey string `yaml:"signing_key"` // HMAC key for signature verification
}

// DatabaseConfig configures the session archive database.
type DatabaseConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	Migrate      bool   `yaml:"migrate"`
}

// TrackerConfig configures session tracking behavior.
type TrackerConfig struct {
	DefaultSessionID        string `yaml:"default_session_id"`
	MinBlocksHighConfidence int    `yaml:"min_blocks_high_confidence"`
}

// AnalyzerConfig configures the screenshot focus analyzer.
type AnalyzerConfig struct {
	Enabled        bool          `yaml:"enabled"`
	APIKey         string        `yaml:"api_key"`
	Model          string        `yaml:"model"`
	MaxImageSizeMB int           `yaml:"max_image_size_mb"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
}

// AuditConfig configures audit logging.
type AuditConfig struct {
	Enabled       bool `yaml:"enabled"`
	RetentionDays int  `yaml:"retention_days"`
}

// LoadConfig loads configuration from a file.
// The path is expected to come from command line arguments, controlled by the operator.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = "anchor-insight"
	}
	if cfg.Server.Version == "" {
		cfg.Server.Version = "1.0.0"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8000"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Tracker.DefaultSessionID == "" {
		cfg.Tracker.DefaultSessionID = "default"
	}
	if cfg.Tracker.MinBlocksHighConfidence == 0 {
		cfg.Tracker.MinBlocksHighConfidence = 2
	}
	if cfg.Analyzer.Model == "" {
		cfg.Analyzer.Model = "gpt-4o-mini"
	}
	if cfg.Analyzer.MaxImageSizeMB == 0 {
		cfg.Analyzer.MaxImageSizeMB = 10
	}
	if cfg.Analyzer.MaxRetries == 0 {
		cfg.Analyzer.MaxRetries = 3
	}
	if cfg.Analyzer.RetryDelay == 0 {
		cfg.Analyzer.RetryDelay = 2 * time.Second
	}
	if cfg.Audit.RetentionDays == 0 {
		cfg.Audit.RetentionDays = 90
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" {
			errs = append(errs, "server.tls.cert_file is required when TLS is enabled")
		}
		if c.Server.TLS.KeyFile == "" {
			errs = append(errs, "server.tls.key_file is required when TLS is enabled")
		}
	}

	if c.Auth.JWT.Enabled {
		if c.Auth.JWT.Issuer == "" {
			errs = append(errs, "auth.jwt.issuer is required when JWT auth is enabled")
		}
		if c.Auth.JWT.SigningKey == "" {
			errs = append(errs, "auth.jwt.signing_key is required when JWT auth is enabled")
		}
	}

	if c.Auth.APIKeys.Enabled && len(c.Auth.APIKeys.Keys) == 0 {
		errs = append(errs, "auth.api_keys.keys must not be empty when API key auth is enabled")
	}

	if !c.Auth.APIKeys.Enabled && !c.Auth.JWT.Enabled && !c.Auth.AllowAnonymous {
		errs = append(errs, "no authentication method enabled; set auth.allow_anonymous to run without auth")
	}

	if c.Database.Enabled && c.Database.DSN == "" {
		errs = append(errs, "database.dsn is required when the archive database is enabled")
	}

	if c.Analyzer.Enabled && c.Analyzer.APIKey == "" {
		errs = append(errs, "analyzer.api_key is required when the analyzer is enabled")
	}

	if c.Analyzer.MaxRetries < 0 {
		errs = append(errs, "analyzer.max_retries must not be negative")
	}

	if c.Tracker.MinBlocksHighConfidence < 0 {
		errs = append(errs, "tracker.min_blocks_high_confidence must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
