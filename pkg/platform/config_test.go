package platform

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		path := writeConfigFile(t, `
server:
  name: focus-monitor
  address: ":9090"
  read_timeout: 10s
  allowed_origins:
    - https://dashboard.example.com
auth:
  allow_anonymous: true
database:
  enabled: true
  dsn: postgres://localhost/insight?sslmode=disable
  migrate: true
tracker:
  default_session_id: workstation
  min_blocks_high_confidence: 4
analyzer:
  enabled: true
  api_key: sk-test
  model: gpt-4o
audit:
  enabled: true
  retention_days: 30
`)

		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "focus-monitor", cfg.Server.Name)
		assert.Equal(t, ":9090", cfg.Server.Address)
		assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, []string{"https://dashboard.example.com"}, cfg.Server.AllowedOrigins)
		assert.True(t, cfg.Database.Enabled)
		assert.True(t, cfg.Database.Migrate)
		assert.Equal(t, "workstation", cfg.Tracker.DefaultSessionID)
		assert.Equal(t, 4, cfg.Tracker.MinBlocksHighConfidence)
		assert.Equal(t, "gpt-4o", cfg.Analyzer.Model)
		assert.Equal(t, 30, cfg.Audit.RetentionDays)
	})

	t.Run("defaults applied", func(t *testing.T) {
		path := writeConfigFile(t, "auth:\n  allow_anonymous: true\n")

		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "anchor-insight", cfg.Server.Name)
		assert.Equal(t, "1.0.0", cfg.Server.Version)
		assert.Equal(t, ":8000", cfg.Server.Address)
		assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, "default", cfg.Tracker.DefaultSessionID)
		assert.Equal(t, 2, cfg.Tracker.MinBlocksHighConfidence)
		assert.Equal(t, "gpt-4o-mini", cfg.Analyzer.Model)
		assert.Equal(t, 10, cfg.Analyzer.MaxImageSizeMB)
		assert.Equal(t, 3, cfg.Analyzer.MaxRetries)
		assert.Equal(t, 2*time.Second, cfg.Analyzer.RetryDelay)
		assert.Equal(t, 90, cfg.Audit.RetentionDays)
	})

	t.Run("env var expansion", func(t *testing.T) {
		t.Setenv("INSIGHT_TEST_DSN", "postgres://db:5432/insight")
		path := writeConfigFile(t, `
database:
  enabled: true
  dsn: ${INSIGHT_TEST_DSN}
`)

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "postgres://db:5432/insight", cfg.Database.DSN)
	})

	t.Run("unset env var expands empty", func(t *testing.T) {
		path := writeConfigFile(t, "analyzer:\n  api_key: ${INSIGHT_TEST_UNSET_KEY}\n")

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Empty(t, cfg.Analyzer.APIKey)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading config file")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfigFile(t, "server: [not a map")
		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing config")
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Auth.AllowAnonymous = true
		return cfg
	}

	t.Run("valid default", func(t *testing.T) {
		require.NoError(t, valid().Validate())
	})

	t.Run("no auth method", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no authentication method enabled")
	})

	t.Run("jwt missing issuer and key", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.JWT.Enabled = true
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth.jwt.issuer is required")
		assert.Contains(t, err.Error(), "auth.jwt.signing_key is required")
	})

	t.Run("api keys enabled but empty", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.APIKeys.Enabled = true
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth.api_keys.keys must not be empty")
	})

	t.Run("database enabled without dsn", func(t *testing.T) {
		cfg := valid()
		cfg.Database.Enabled = true
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.dsn is required")
	})

	t.Run("analyzer enabled without api key", func(t *testing.T) {
		cfg := valid()
		cfg.Analyzer.Enabled = true
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "analyzer.api_key is required")
	})

	t.Run("negative analyzer max retries", func(t *testing.T) {
		cfg := valid()
		cfg.Analyzer.MaxRetries = -1
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "analyzer.max_retries must not be negative")
	})

	t.Run("tls enabled without files", func(t *testing.T) {
		cfg := valid()
		cfg.Server.TLS.Enabled = true
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server.tls.cert_file is required")
		assert.Contains(t, err.Error(), "server.tls.key_file is required")
	})
}
