package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, ServerPort, cfg.Server.Port)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, DefaultSaveDelay, cfg.Storage.SaveDelay)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
env: homolog
server:
  port: ":9090"
storage:
  backend: sqlite
  sqlite_path: /tmp/ladders.db
  save_delay: 50ms
logging:
  level: debug
  format: json
cors:
  allowed_origins:
    - https://admin.voltz.example
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, EnvHomolog, cfg.Env)
	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/ladders.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 50*time.Millisecond, cfg.Storage.SaveDelay)
	assert.Equal(t, "voltz", cfg.Storage.MongoDatabase, "unset keys keep defaults")
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
	assert.Equal(t, []string{"https://admin.voltz.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "reading config")
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VOLTZ_ENV", "production")
	t.Setenv("VOLTZ_PORT", "7070")
	t.Setenv("VOLTZ_STORAGE_BACKEND", "mongo")
	t.Setenv("VOLTZ_MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("VOLTZ_MONGODB_DATABASE", "billing")
	t.Setenv("VOLTZ_SAVE_DELAY", "2s")
	t.Setenv("VOLTZ_LOG_LEVEL", "warn")
	t.Setenv("VOLTZ_LOG_FORMAT", "text")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ":7070", cfg.Server.Port)
	assert.Equal(t, BackendMongo, cfg.Storage.Backend)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Storage.MongoURI)
	assert.Equal(t, "billing", cfg.Storage.MongoDatabase)
	assert.Equal(t, 2*time.Second, cfg.Storage.SaveDelay)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
}

func TestLoad_BadSaveDelay(t *testing.T) {
	t.Setenv("VOLTZ_SAVE_DELAY", "soon")

	_, err := Load("")
	assert.ErrorContains(t, err, "VOLTZ_SAVE_DELAY")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"unknown env", func(c *Config) { c.Env = "staging" }, `env "staging"`},
		{"empty port", func(c *Config) { c.Server.Port = "" }, "server port is required"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }, `storage backend "redis"`},
		{"sqlite without path", func(c *Config) {
			c.Storage.Backend = BackendSQLite
			c.Storage.SQLitePath = ""
		}, "sqlite_path is required"},
		{"mongo without uri", func(c *Config) { c.Storage.Backend = BackendMongo }, "mongodb_uri is required"},
		{"negative delay", func(c *Config) { c.Storage.SaveDelay = -time.Second }, "must not be negative"},
		{"unknown level", func(c *Config) { c.Logging.Level = "trace" }, `log level "trace"`},
		{"unknown format", func(c *Config) { c.Logging.Format = "xml" }, `log format "xml"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Env = "x"
	cfg.Logging.Format = "y"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, `env "x"`)
	assert.ErrorContains(t, err, `log format "y"`)
}
