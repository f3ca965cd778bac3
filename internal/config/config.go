package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Catalog sources supported by CATALOG_SOURCE.
const (
	SourceFile     = "file"
	SourceS3       = "s3"
	SourcePostgres = "postgres"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port string
	Env  string

	Catalog CatalogConfig
	DB      DatabaseConfig
	Redis   RedisConfig
	S3      S3Config
	HTTP    HTTPConfig
}

// CatalogConfig describes where the reference tables are read from.
// For the s3 source the *File fields are object keys.
type CatalogConfig struct {
	Source           string
	TariffFile       string
	TariffSheet      string
	ValueRangesFile  string
	ValueRangesSheet string
	PostalFile       string
	PostalSheet      string
	LoadTimeout      time.Duration
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MigrationsPath string
}

// DSN returns the postgres connection URL.
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// RedisConfig contains Redis connection parameters. The tariff cache is
// disabled when Host is empty.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration

	// WarmInterval is how often every tariff key is written to the cache;
	// zero disables warming.
	WarmInterval time.Duration
}

// Enabled reports whether a Redis host is configured.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

// S3Config contains the bucket holding the reference workbooks.
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string // optional, for S3-compatible stores
	AccessKeyID     string
	SecretAccessKey string
}

// HTTPConfig contains router level settings.
type HTTPConfig struct {
	AllowedHosts       []string
	RateLimitPerMinute int
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")

	// Reference data
	cfg.Catalog = CatalogConfig{
		Source:           strings.ToLower(getEnv("CATALOG_SOURCE", SourceFile)),
		TariffFile:       getEnv("TARIFF_FILE", "data/gesamtbericht_ch.xlsx"),
		TariffSheet:      getEnv("TARIFF_SHEET", "Export"),
		ValueRangesFile:  getEnv("VALUE_RANGES_FILE", "data/wertebereiche.xlsx"),
		ValueRangesSheet: getEnv("VALUE_RANGES_SHEET", "Wertebereiche"),
		PostalFile:       getEnv("POSTAL_FILE", "data/Liste-der-PLZ-in-Excel-Karte-Schweiz-Postleitzahlen.xlsx"),
		PostalSheet:      getEnv("POSTAL_SHEET", "Tabelle1"),
	}

	// Database (only used by the postgres source)
	cfg.DB = DatabaseConfig{
		Host:           getEnv("DB_HOST", ""),
		Port:           getEnv("DB_PORT", "5432"),
		User:           getEnv("DB_USER", ""),
		Password:       getEnv("DB_PASSWORD", ""),
		Name:           getEnv("DB_NAME", ""),
		SSLMode:        getEnv("DB_SSLMODE", "disable"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),
	}

	// Redis (optional tariff cache)
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", ""),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// S3 (only used by the s3 source)
	cfg.S3 = S3Config{
		Region:          getEnv("S3_REGION", "eu-central-2"),
		Bucket:          getEnv("S3_BUCKET", ""),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	cfg.HTTP = HTTPConfig{
		AllowedHosts:       splitList(getEnv("CORS_ALLOWED_HOSTS", "localhost:3000,127.0.0.1:3000")),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
	}

	var err error
	if cfg.Catalog.LoadTimeout, err = parseDurationEnv("CATALOG_LOAD_TIMEOUT", "60s"); err != nil {
		return nil, fmt.Errorf("invalid CATALOG_LOAD_TIMEOUT: %w", err)
	}
	if cfg.Redis.TTL, err = parseDurationEnv("CACHE_TTL", "1h"); err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	if cfg.Redis.WarmInterval, err = parseDurationEnv("CACHE_WARM_INTERVAL", "30m"); err != nil {
		return nil, fmt.Errorf("invalid CACHE_WARM_INTERVAL: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Catalog.Source {
	case SourceFile:
		if c.Catalog.TariffFile == "" || c.Catalog.ValueRangesFile == "" || c.Catalog.PostalFile == "" {
			return errors.New("catalog files incomplete: ensure TARIFF_FILE, VALUE_RANGES_FILE, and POSTAL_FILE are set")
		}
	case SourceS3:
		if c.S3.Bucket == "" {
			return errors.New("S3_BUCKET must be set when CATALOG_SOURCE=s3")
		}
	case SourcePostgres:
		if c.DB.Host == "" || c.DB.User == "" || c.DB.Name == "" {
			return errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
		}
	default:
		return fmt.Errorf("unknown CATALOG_SOURCE %q: use file, s3, or postgres", c.Catalog.Source)
	}
	if c.HTTP.RateLimitPerMinute < 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be >= 0")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
