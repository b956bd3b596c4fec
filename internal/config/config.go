// Package config loads storefront settings from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendSQL    = "sql"
)

type Config struct {
	HTTPPort        string
	ShopName        string
	WhatsAppNumber  string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	StorageBackend string
	StorageDir     string
	RedisAddr      string
	RedisPassword  string
	MongoURI       string
	MongoDBName    string
	SQLDriver      string
	SQLDSN         string

	CatalogueDB string

	AppAuthKey   string
	AppEncKey    string
	CookieSecure bool
	SessionTTL   time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	LogLevel  string
	LogFormat string
}

// LoadEnv reads .env files into the process environment. A missing file is
// not an error; variables already set win.
func LoadEnv(filenames ...string) error {
	err := godotenv.Load(filenames...)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load builds a Config from the environment. Unset durations and booleans
// take their defaults; set but malformed ones are reported together.
func Load() (*Config, error) {
	if err := LoadEnv(); err != nil {
		return nil, err
	}

	p := &parser{}
	cfg := &Config{
		HTTPPort:        GetEnv("HTTP_PORT", "8080"),
		ShopName:        GetEnv("SHOP_NAME", "Sweet Trails"),
		WhatsAppNumber:  GetEnv("WHATSAPP_NUMBER", "2348000000000"),
		RequestTimeout:  p.duration("REQUEST_TIMEOUT", 10*time.Second),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 15*time.Second),

		StorageBackend: strings.ToLower(GetEnv("STORAGE_BACKEND", BackendMemory)),
		StorageDir:     GetEnv("STORAGE_DIR", ".storefront"),
		RedisAddr:      GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  GetEnv("REDIS_PASSWORD", ""),
		MongoURI:       GetEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:    GetEnv("MONGO_DB_NAME", "storefront"),
		SQLDriver:      strings.ToLower(GetEnv("SQL_DRIVER", "postgres")),
		SQLDSN:         GetEnv("SQL_DSN", ""),

		CatalogueDB: GetEnv("CATALOGUE_DB", ":memory:"),

		AppAuthKey:   GetEnv("APP_AUTH_KEY", ""),
		AppEncKey:    GetEnv("APP_ENC_KEY", ""),
		CookieSecure: p.boolean("COOKIE_SECURE", false),
		SessionTTL:   p.duration("SESSION_IDLE_TTL", 30*time.Minute),

		KafkaBrokers: splitList(GetEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   GetEnv("KAFKA_TOPIC", "order-handoff"),

		LogLevel:  GetEnv("LOG_LEVEL", "info"),
		LogFormat: GetEnv("LOG_FORMAT", "json"),
	}

	if err := p.err(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate reports settings the chosen backends cannot run without.
func (c *Config) Validate() error {
	var missing []string

	switch c.StorageBackend {
	case BackendMemory:
	case BackendFile:
		if c.StorageDir == "" {
			missing = append(missing, "STORAGE_DIR")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			missing = append(missing, "REDIS_ADDR")
		}
	case BackendMongo:
		if c.MongoURI == "" {
			missing = append(missing, "MONGO_URI")
		}
		if c.MongoDBName == "" {
			missing = append(missing, "MONGO_DB_NAME")
		}
	case BackendSQL:
		if c.SQLDriver != "postgres" && c.SQLDriver != "mysql" {
			return fmt.Errorf("unsupported SQL_DRIVER %q", c.SQLDriver)
		}
		if c.SQLDSN == "" {
			missing = append(missing, "SQL_DSN")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend)
	}

	if (c.AppAuthKey == "") != (c.AppEncKey == "") {
		missing = append(missing, "APP_AUTH_KEY and APP_ENC_KEY (set both or neither)")
	}
	if c.HTTPPort == "" {
		missing = append(missing, "HTTP_PORT")
	}

	if len(missing) > 0 {
		return fmt.Errorf("environment variables not set: %v", missing)
	}
	return nil
}

// NotifyEnabled reports whether handoff notifications should be published.
func (c *Config) NotifyEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser collects every malformed variable instead of stopping at the first.
type parser struct {
	errs []error
}

func (p *parser) duration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s=%q is not a duration (e.g. 30s, 15m)", key, raw))
		return defaultValue
	}
	if d <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s=%q must be positive", key, raw))
		return defaultValue
	}
	return d
}

func (p *parser) boolean(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s=%q is not a boolean", key, raw))
		return defaultValue
	}
	return b
}

func (p *parser) err() error {
	return errors.Join(p.errs...)
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
