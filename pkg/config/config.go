package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eduelevate/lms/pkg/store"
)

// Config holds all application configuration. Load builds it once at startup;
// nothing mutates it afterwards, so the same value can be shared freely.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the host:port the server binds to.
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// DatabaseConfig holds the SQL driver and DSN.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// AuthConfig holds the token signing material and registration policy.
type AuthConfig struct {
	// JWTSecret signs session tokens. Required; there is no default.
	JWTSecret string `yaml:"jwt_secret"`

	// TokenTTL is the validity window of issued tokens.
	TokenTTL time.Duration `yaml:"token_ttl"`

	// OpenRegistration allows unauthenticated admin self-registration. Off
	// means only an existing admin can create admin accounts.
	OpenRegistration bool `yaml:"open_registration"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load builds the configuration: defaults, then the optional YAML file named
// in LMS_CONFIG_FILE, then individual environment variables. The result is
// validated before being returned.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("LMS_CONFIG_FILE"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	loadEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: store.DriverSQLite,
			DSN:    "lms.db",
		},
		Auth: AuthConfig{
			TokenTTL:         24 * time.Hour,
			OpenRegistration: true,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "text",
		},
	}
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) {
	cfg.Server.Host = getEnv("LMS_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnv("LMS_PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvDuration("LMS_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("LMS_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = getEnvDuration("LMS_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = getEnvDuration("LMS_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Database.Driver = getEnv("LMS_DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getEnv("LMS_DB_DSN", cfg.Database.DSN)

	cfg.Auth.JWTSecret = getEnv("LMS_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.TokenTTL = getEnvDuration("LMS_TOKEN_TTL", cfg.Auth.TokenTTL)
	cfg.Auth.OpenRegistration = getEnvBool("LMS_OPEN_REGISTRATION", cfg.Auth.OpenRegistration)

	cfg.Observability.LogLevel = getEnv("LMS_LOG_LEVEL", cfg.Observability.LogLevel)
	cfg.Observability.LogFormat = getEnv("LMS_LOG_FORMAT", cfg.Observability.LogFormat)
}

// Validate checks the configuration for missing or inconsistent values.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("LMS_JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive, got %v", c.Auth.TokenTTL)
	}
	switch c.Database.Driver {
	case store.DriverSQLite, store.DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("LMS_DB_DSN is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid server port %q", c.Server.Port)
	}
	return nil
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool parses a boolean environment variable ("true"/"1"/"false"/"0").
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultValue
}

// getEnvDuration parses a duration environment variable like "15s" or "24h".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
