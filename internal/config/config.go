package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMisconfigured marks configuration that makes the process unable to start.
var ErrMisconfigured = errors.New("config: misconfigured")

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Relational store
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     int

	CORSAllowedOrigins []string
	AdminJWTSecret     string
	StaticDir          string

	// Rate limiting for POST /api/contact; 0 disables it.
	ContactRateLimitPerMinute int
	RedisAddr                 string
	RedisPassword             string
	RedisTLS                  bool

	// SendGrid Email Configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	NotifyEmailTo     string

	// Set when DB_PORT is present but not a number.
	dbPortErr error
}

// Load reads configuration from environment variables. A .env file in the
// working directory is honoured when present; real environment wins.
func Load() *Config {
	_ = godotenv.Load()

	dbPort, dbPortErr := parseEnvInt("DB_PORT", 5432)
	return &Config{
		Port:     getEnv("PORT", "3003"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBHost:     strings.TrimSpace(getEnv("DB_HOST", "")),
		DBUser:     strings.TrimSpace(getEnv("DB_USER", "")),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     strings.TrimSpace(getEnv("DB_NAME", "")),
		DBPort:     dbPort,
		dbPortErr:  dbPortErr,

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		StaticDir:          getEnv("STATIC_DIR", ""),

		ContactRateLimitPerMinute: getEnvAsInt("CONTACT_RATE_LIMIT_PER_MINUTE", 10),
		RedisAddr:                 getEnv("REDIS_ADDR", ""),
		RedisPassword:             getEnv("REDIS_PASSWORD", ""),
		RedisTLS:                  getEnvAsBool("REDIS_TLS", false),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "AllSafe Website"),
		NotifyEmailTo:     getEnv("NOTIFY_EMAIL_TO", ""),
	}
}

// Validate reports structural problems that must stop the process. A store
// that is configured but unreachable is not a configuration problem.
func (c *Config) Validate() error {
	var missing []string
	if c.DBHost == "" {
		missing = append(missing, "DB_HOST")
	}
	if c.DBUser == "" {
		missing = append(missing, "DB_USER")
	}
	if c.DBName == "" {
		missing = append(missing, "DB_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMisconfigured, strings.Join(missing, ", "))
	}
	if c.dbPortErr != nil {
		return fmt.Errorf("%w: %v", ErrMisconfigured, c.dbPortErr)
	}
	if c.DBPort <= 0 || c.DBPort > 65535 {
		return fmt.Errorf("%w: DB_PORT %d out of range", ErrMisconfigured, c.DBPort)
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("%w: PORT %q is not a valid port", ErrMisconfigured, c.Port)
	}
	return nil
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

// parseEnvInt is getEnvAsInt for settings where a typo must not fall back
// to the default.
func parseEnvInt(key string, defaultValue int) (int, error) {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue, fmt.Errorf("%s %q is not a number", key, valueStr)
	}
	return value, nil
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
