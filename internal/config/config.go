package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ServerPort is the default HTTP server port.
	ServerPort = ":8080"

	// DefaultSaveDelay is how long the simulated persister takes to accept a save.
	DefaultSaveDelay = 500 * time.Millisecond

	// HealthWindowSize is the number of recent saves to consider for health calculation.
	HealthWindowSize = 50

	// HealthWindowDuration is the time window for health calculation.
	HealthWindowDurationMinutes = 10

	// DegradedThreshold is the acceptance rate below which saves for an account are degraded.
	DegradedThreshold = 0.5

	// FailingThreshold is the acceptance rate below which saves for an account are failing.
	FailingThreshold = 0.2

	// MaxBatchSize caps the number of queries in one cycle evaluation request.
	MaxBatchSize = 500

	// BatchConcurrency bounds the goroutines used by a batch evaluation.
	BatchConcurrency = 8

	// ShutdownTimeout is how long the server waits for in-flight requests.
	ShutdownTimeout = 10 * time.Second
)

const (
	EnvDevelopment = "development"
	EnvHomolog     = "homolog"
	EnvProduction  = "production"

	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"

	LogFormatJSON = "json"
	LogFormatText = "text"
	LogFormatAuto = "auto"
)

var (
	allowedEnvs       = []string{EnvDevelopment, EnvHomolog, EnvProduction}
	allowedBackends   = []string{BackendMemory, BackendSQLite, BackendMongo}
	allowedLogFormats = []string{LogFormatJSON, LogFormatText, LogFormatAuto}
	allowedLogLevels  = []string{"debug", "info", "warn", "error"}
)

// Config holds the service settings read from the YAML file and the environment.
type Config struct {
	Env     string        `yaml:"env"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	CORS    CORSConfig    `yaml:"cors"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type StorageConfig struct {
	Backend       string        `yaml:"backend"`
	SQLitePath    string        `yaml:"sqlite_path"`
	MongoURI      string        `yaml:"mongodb_uri"`
	MongoDatabase string        `yaml:"mongodb_database"`
	SaveDelay     time.Duration `yaml:"save_delay"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the settings used when no file or environment overrides exist.
func Default() Config {
	return Config{
		Env:    EnvDevelopment,
		Server: ServerConfig{Port: ServerPort},
		Storage: StorageConfig{
			Backend:       BackendMemory,
			SQLitePath:    "data/ladders.db",
			MongoDatabase: "voltz",
			SaveDelay:     DefaultSaveDelay,
		},
		Logging: LoggingConfig{Level: "info", Format: LogFormatAuto},
		CORS:    CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

// Load reads path over the defaults, applies VOLTZ_* environment overrides
// and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	set := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	set("VOLTZ_ENV", &c.Env)
	set("VOLTZ_PORT", &c.Server.Port)
	set("VOLTZ_STORAGE_BACKEND", &c.Storage.Backend)
	set("VOLTZ_SQLITE_PATH", &c.Storage.SQLitePath)
	set("VOLTZ_MONGODB_URI", &c.Storage.MongoURI)
	set("VOLTZ_MONGODB_DATABASE", &c.Storage.MongoDatabase)
	set("VOLTZ_LOG_LEVEL", &c.Logging.Level)
	set("VOLTZ_LOG_FORMAT", &c.Logging.Format)

	if v := strings.TrimSpace(getenv("VOLTZ_SAVE_DELAY")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing VOLTZ_SAVE_DELAY: %w", err)
		}
		c.Storage.SaveDelay = d
	}

	if c.Server.Port != "" && !strings.Contains(c.Server.Port, ":") {
		c.Server.Port = ":" + c.Server.Port
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if !slices.Contains(allowedEnvs, c.Env) {
		errs = append(errs, fmt.Errorf("env %q must be one of %v", c.Env, allowedEnvs))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server port is required"))
	}
	if !slices.Contains(allowedBackends, c.Storage.Backend) {
		errs = append(errs, fmt.Errorf("storage backend %q must be one of %v", c.Storage.Backend, allowedBackends))
	}
	if c.Storage.Backend == BackendSQLite && c.Storage.SQLitePath == "" {
		errs = append(errs, errors.New("sqlite_path is required for the sqlite backend"))
	}
	if c.Storage.Backend == BackendMongo && c.Storage.MongoURI == "" {
		errs = append(errs, errors.New("mongodb_uri is required for the mongo backend"))
	}
	if c.Storage.SaveDelay < 0 {
		errs = append(errs, fmt.Errorf("save_delay %s must not be negative", c.Storage.SaveDelay))
	}
	if !slices.Contains(allowedLogLevels, strings.ToLower(c.Logging.Level)) {
		errs = append(errs, fmt.Errorf("log level %q must be one of %v", c.Logging.Level, allowedLogLevels))
	}
	if !slices.Contains(allowedLogFormats, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("log format %q must be one of %v", c.Logging.Format, allowedLogFormats))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in the production environment.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}
