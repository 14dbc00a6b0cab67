package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds everything the application needs at startup
type Config struct {
	DatabaseDriver string
	DatabaseURL    string
	Port           int
	GinMode        string
	JWTSecret      []byte
	TokenTTL       time.Duration
	LogLevel       slog.Level
	KafkaBrokers   []string
	KafkaTopic     string
}

// Option overrides a single configuration value after env loading
type Option func(*Config)

func WithDatabaseDriver(driver string) Option {
	return func(c *Config) { c.DatabaseDriver = driver }
}

func WithDatabaseURL(url string) Option {
	return func(c *Config) { c.DatabaseURL = url }
}

func WithPort(port int) Option {
	return func(c *Config) { c.Port = port }
}

func WithGinMode(mode string) Option {
	return func(c *Config) { c.GinMode = mode }
}

func WithJWTSecret(secret string) Option {
	return func(c *Config) { c.JWTSecret = []byte(secret) }
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(c *Config) { c.TokenTTL = ttl }
}

func WithLogLevel(level slog.Level) Option {
	return func(c *Config) { c.LogLevel = level }
}

func WithKafka(topic string, brokers ...string) Option {
	return func(c *Config) {
		c.KafkaTopic = topic
		c.KafkaBrokers = brokers
	}
}

// Default returns the development configuration
func Default() Config {
	return Config{
		DatabaseDriver: DriverSQLite,
		DatabaseURL:    "bulkbuddy.db",
		Port:           8080,
		GinMode:        "debug",
		JWTSecret:      []byte("bulk_buddy_dev_secret"),
		TokenTTL:       24 * time.Hour,
		LogLevel:       slog.LevelInfo,
		KafkaTopic:     "bulkbuddy.events",
	}
}

// Load builds a Config from defaults, a .env file if present, the process
// environment and finally the given overrides, in that order.
func Load(opts ...Option) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()
	cfg.DatabaseDriver = getEnv("DATABASE_DRIVER", cfg.DatabaseDriver)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.GinMode = getEnv("GIN_MODE", cfg.GinMode)
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", cfg.KafkaTopic)

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = []byte(secret)
	}
	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}
	if ttlStr := os.Getenv("TOKEN_TTL"); ttlStr != "" {
		ttl, err := time.ParseDuration(ttlStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TOKEN_TTL %q: %w", ttlStr, err)
		}
		cfg.TokenTTL = ttl
	}
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(levelStr)); err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", levelStr, err)
		}
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitList(brokers)
	}

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the application cannot start with
func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q (use %s or %s)", c.DatabaseDriver, DriverSQLite, DriverPostgres)
	}
	if c.DatabaseURL == "" {
		return errors.New("database URL required (DATABASE_URL)")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if len(c.JWTSecret) == 0 {
		return errors.New("JWT secret must not be empty")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token TTL must be positive")
	}
	return nil
}

// Addr is the listen address for the HTTP server
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
