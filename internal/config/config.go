package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	AuditLogDBURL string

	// Redis cache for webhook endpoint configs
	RedisAddr        string
	RedisPassword    string
	RedisTLS         bool
	EndpointCacheTTL time.Duration

	// AWS / lead event queue
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	LeadQueueURL        string

	// Admin read surface
	AdminJWTSecret     string
	CORSAllowedOrigins []string

	// Per-IP intake rate limit; zero disables it
	WebhookRateLimit float64
	WebhookRateBurst int

	// Ingestion heuristics (tuned against observed provider payloads,
	// overridable per deployment)
	PhoneRepairUSMisdetect bool
	PhoneCandidateMinChars int
	PhoneCandidateMaxChars int
	PhoneCandidateMinDigit int
	PhoneCandidateMaxDigit int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		AuditLogDBURL: getEnv("AUDIT_LOG_DATABASE_URL", getEnv("DATABASE_URL", "")),

		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisTLS:         getEnvAsBool("REDIS_TLS", false),
		EndpointCacheTTL: getEnvAsDuration("ENDPOINT_CACHE_TTL", 30*time.Second),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		LeadQueueURL:        getEnv("LEAD_QUEUE_URL", ""),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),

		WebhookRateLimit: getEnvAsFloat("WEBHOOK_RATE_LIMIT", 0),
		WebhookRateBurst: getEnvAsInt("WEBHOOK_RATE_BURST", 20),

		PhoneRepairUSMisdetect: getEnvAsBool("PHONE_REPAIR_US_MISDETECT", true),
		PhoneCandidateMinChars: getEnvAsInt("PHONE_CANDIDATE_MIN_CHARS", 8),
		PhoneCandidateMaxChars: getEnvAsInt("PHONE_CANDIDATE_MAX_CHARS", 20),
		PhoneCandidateMinDigit: getEnvAsInt("PHONE_CANDIDATE_MIN_DIGITS", 8),
		PhoneCandidateMaxDigit: getEnvAsInt("PHONE_CANDIDATE_MAX_DIGITS", 15),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList retrieves a comma-separated environment variable
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
