package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL string // Required: Postgres DSN
	RedisAddr   string // Redis host:port (default: localhost:6379)
	RedisPass   string // Optional: Redis password
	RedisDB     int    // Optional: Redis database number (default: 0)

	AuthSecret    string        // Required: HMAC secret for token signing
	Issuer        string        // Issuer claim for tokens (default: bookstack)
	AccessTTL     time.Duration // Access token lifetime (default: 15m)
	RefreshTTL    time.Duration // Refresh token lifetime / session length (default: 168h)
	SingleSession bool          // Purge other sessions on login (default: false)

	SMTPHost     string // SMTP relay host (default: localhost)
	SMTPPort     int    // SMTP relay port (default: 25)
	SMTPUsername string // Optional: SMTP auth username
	SMTPPassword string // Optional: SMTP auth password
	MailFrom     string // From address for transactional mail
	PublicURL    string // Public base URL used in verification links

	CatalogURL     string        // External catalog base URL
	RecommenderURL string        // External recommender base URL
	UpstreamRPS    float64       // Per-upstream request rate cap (default: 10)
	UpstreamTO     time.Duration // Per-upstream request timeout (default: 5s)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
	HistoryRetention     time.Duration // Durable search history retention (default: 720h)
}

func LoadConfig() Config {
	cfg := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPass:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:     getEnvIntOrDefault("REDIS_DB", 0),

		AuthSecret:    os.Getenv("AUTH_SECRET"),
		Issuer:        getEnvOrDefault("AUTH_ISSUER", "bookstack"),
		AccessTTL:     getEnvDurationOrDefault("AUTH_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:    getEnvDurationOrDefault("AUTH_REFRESH_TTL", 7*24*time.Hour),
		SingleSession: getEnvBoolOrDefault("AUTH_SINGLE_SESSION", false),

		SMTPHost:     getEnvOrDefault("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvIntOrDefault("SMTP_PORT", 25),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnvOrDefault("MAIL_FROM", "no-reply@bookstack.local"),
		PublicURL:    getEnvOrDefault("PUBLIC_URL", "http://localhost:8080"),

		CatalogURL:     os.Getenv("CATALOG_URL"),
		RecommenderURL: os.Getenv("RECOMMENDER_URL"),
		UpstreamRPS:    getEnvFloatOrDefault("UPSTREAM_RPS", 10),
		UpstreamTO:     getEnvDurationOrDefault("UPSTREAM_TIMEOUT", 5*time.Second),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		HistoryRetention:     getEnvDurationOrDefault("HISTORY_RETENTION", 30*24*time.Hour),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if floatValue, err := strconv.ParseFloat(value, 64); err == nil && floatValue > 0 {
		return floatValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
