package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Auth provider name constants
const (
	ProviderPassword = "password"
)

// Client kind constants
const (
	ClientWeb     = "web"
	ClientDesktop = "desktop"
)

// Rate limit store type constants
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

type Config struct {
	// Server settings
	ServerAddr string
	BaseURL    string
	AppName    string

	// Environment: "development" or "production"
	Environment  string
	IsProduction bool

	// Session settings
	SessionSecret string
	SessionMaxAge int // seconds

	// Transfer token (desktop sign-in handoff)
	TransferTokenSecret   string
	TransferTokenTTL      time.Duration
	DesktopRedirectScheme string

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)
	DBInitTimeout  time.Duration

	// Local login. Routes are registered only when Enabled is true;
	// the bootstrap sign-in path is active only when both admin
	// credentials are set.
	LocalLogin LocalLoginConfig

	// Password reset
	ResetTokenTTL time.Duration

	// Team defaults used when the bootstrap login provisions the
	// first account.
	DefaultTeamName      string
	DefaultTeamSubdomain string

	// Rate limiting
	EnableRateLimit  bool
	RateLimitStore   string // "memory" or "redis"
	RateLimitPolicy  string // policy name applied to auth routes
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisConnTimeout time.Duration

	// Background task queue (asynq). When disabled, notifications are
	// delivered inline, still best-effort.
	QueueEnabled       bool
	QueueRedisAddr     string
	QueueRedisPassword string
	QueueRedisDB       int
	QueueConcurrency   int

	// Metrics
	MetricsEnabled             bool
	MetricsToken               string
	MetricsGaugeUpdateEnabled  bool
	MetricsGaugeUpdateInterval time.Duration
	MetricsCacheBackend        string // "memory" or "rueidis"
}

// LocalLoginConfig gates the password auth surface. It is evaluated once
// at startup; route registration depends on this struct, never on
// ambient environment reads at request time.
type LocalLoginConfig struct {
	Enabled       bool
	AdminEmail    string
	AdminPassword string
}

// BootstrapEnabled reports whether the configured admin identity can be
// used to provision the first account.
func (c LocalLoginConfig) BootstrapEnabled() bool {
	return c.AdminEmail != "" && c.AdminPassword != ""
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "authd.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	environment := getEnv("ENVIRONMENT", "development")

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		BaseURL:      getEnv("BASE_URL", "http://localhost:8080"),
		AppName:      getEnv("APP_NAME", "Team Wiki"),
		Environment:  environment,
		IsProduction: environment == "production",

		SessionSecret: getEnv("SESSION_SECRET", "session-secret-change-in-production"),
		SessionMaxAge: getEnvInt("SESSION_MAX_AGE", 86400*30), // 30 days

		TransferTokenSecret:   getEnv("TRANSFER_TOKEN_SECRET", "transfer-secret-change-in-production"),
		TransferTokenTTL:      getEnvDuration("TRANSFER_TOKEN_TTL", time.Minute),
		DesktopRedirectScheme: getEnv("DESKTOP_REDIRECT_SCHEME", "teamwiki"),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,
		DBInitTimeout:  getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),

		LocalLogin: LocalLoginConfig{
			Enabled:       getEnvBool("LOCAL_LOGIN_ENABLED", true),
			AdminEmail:    getEnv("LOCAL_ADMIN_EMAIL", ""),
			AdminPassword: getEnv("LOCAL_ADMIN_PASSWORD", ""),
		},

		ResetTokenTTL: getEnvDuration("RESET_TOKEN_TTL", 30*time.Minute),

		DefaultTeamName:      getEnv("DEFAULT_TEAM_NAME", getEnv("APP_NAME", "Team Wiki")),
		DefaultTeamSubdomain: getEnv("DEFAULT_TEAM_SUBDOMAIN", "wiki"),

		EnableRateLimit:  getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:   getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		RateLimitPolicy:  getEnv("RATE_LIMIT_POLICY", "ten-per-hour"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		RedisConnTimeout: getEnvDuration("REDIS_CONN_TIMEOUT", 5*time.Second),

		QueueEnabled:       getEnvBool("QUEUE_ENABLED", true),
		QueueRedisAddr:     getEnv("QUEUE_REDIS_ADDR", getEnv("REDIS_ADDR", "localhost:6379")),
		QueueRedisPassword: getEnv("QUEUE_REDIS_PASSWORD", getEnv("REDIS_PASSWORD", "")),
		QueueRedisDB:       getEnvInt("QUEUE_REDIS_DB", 1),
		QueueConcurrency:   getEnvInt("QUEUE_CONCURRENCY", 4),

		MetricsEnabled:             getEnvBool("METRICS_ENABLED", false),
		MetricsToken:               getEnv("METRICS_TOKEN", ""),
		MetricsGaugeUpdateEnabled:  getEnvBool("METRICS_GAUGE_UPDATE_ENABLED", true),
		MetricsGaugeUpdateInterval: getEnvDuration("METRICS_GAUGE_UPDATE_INTERVAL", time.Minute),
		MetricsCacheBackend:        getEnv("METRICS_CACHE_BACKEND", "memory"),
	}
}

// Validate checks settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	if c.DatabaseDriver != "sqlite" && c.DatabaseDriver != "postgres" {
		return fmt.Errorf("unsupported DATABASE_DRIVER: %s", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required for driver %s", c.DatabaseDriver)
	}
	if c.EnableRateLimit &&
		c.RateLimitStore != RateLimitStoreMemory &&
		c.RateLimitStore != RateLimitStoreRedis {
		return fmt.Errorf("unsupported RATE_LIMIT_STORE: %s", c.RateLimitStore)
	}
	if c.ResetTokenTTL <= 0 {
		return fmt.Errorf("RESET_TOKEN_TTL must be positive, got %s", c.ResetTokenTTL)
	}
	if c.LocalLogin.AdminEmail != "" && !strings.Contains(c.LocalLogin.AdminEmail, "@") {
		return fmt.Errorf("LOCAL_ADMIN_EMAIL is not a valid email address")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
