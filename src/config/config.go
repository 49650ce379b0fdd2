package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Source modes. Demo reads the anonymised CSV samples under data/; live
// queries Snowflake and PostgreSQL with the credentials below.
const (
	ModeDemo = "demo"
	ModeLive = "live"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port     string
	LogLevel string
	Mode     string // ModeDemo or ModeLive

	// HTTP settings
	CORSAllowedOrigins []string
	MaxUploadSizeBytes int64
	RateLimitRPS       int
	RateLimitBurst     int

	// Cache TTLs
	DashboardCacheTTL    time.Duration
	WeightsCacheTTL      time.Duration
	CacheCleanupInterval time.Duration

	// Demo data file paths
	DemoProgramCSVPath string
	DemoGeneralCSVPath string

	// Snowflake settings (program weight source, live mode only)
	SnowflakeAccount   string
	SnowflakeUser      string
	SnowflakePassword  string
	SnowflakeDatabase  string
	SnowflakeSchema    string
	SnowflakeWarehouse string
	SnowflakeRole      string

	// PostgreSQL settings (general weight source, live mode only)
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDBName   string
	PostgresSSLMode  string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	// 1. Try loading from the current directory (standard behavior)
	errEnv := godotenv.Load()

	// 2. If not found, try loading from the parent directory (common when running from a subdir)
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables (expected in production).")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	// --- Source Mode ---
	mode := strings.ToLower(getEnv("DASHBOARD_MODE", ModeDemo))
	if mode != ModeDemo && mode != ModeLive {
		log.Printf("WARNING: Invalid DASHBOARD_MODE '%s', falling back to '%s'.", mode, ModeDemo)
		mode = ModeDemo
	}

	// --- File Size Limits ---
	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760") // 10MB default
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	// --- Populate the Global Config Struct ---
	Cfg = &AppConfig{
		// Core
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Mode:     mode,

		// HTTP
		CORSAllowedOrigins: getAllowedOrigins("CORS_ALLOWED_ORIGINS"),
		MaxUploadSizeBytes: maxUploadSizeBytes,
		RateLimitRPS:       getEnvAsInt("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 30),

		// Cache TTLs. The dashboard result is keyed by upload content; the
		// weight pipeline refreshes more often than prices do.
		DashboardCacheTTL:    getEnvAsDuration("CACHE_DASHBOARD_TTL", 1*time.Hour),
		WeightsCacheTTL:      getEnvAsDuration("CACHE_WEIGHTS_TTL", 15*time.Minute),
		CacheCleanupInterval: getEnvAsDuration("CACHE_CLEANUP_INTERVAL", 30*time.Minute),

		// Demo data
		DemoProgramCSVPath: getEnv("DEMO_PROGRAM_CSV", "data/df DBU.csv"),
		DemoGeneralCSVPath: getEnv("DEMO_GENERAL_CSV", "data/df roissy.csv"),

		// Postgres defaults (credentials validated below for live mode)
		PostgresPort:    getEnvAsInt("POSTGRES_PORT", 5432),
		PostgresSSLMode: getEnv("POSTGRES_SSLMODE", "require"),
	}

	// --- Live-mode credentials (required only when querying real sources) ---
	if mode == ModeLive {
		Cfg.SnowflakeAccount = getRequiredEnv("SNOWFLAKE_ACCOUNT")
		Cfg.SnowflakeUser = getRequiredEnv("SNOWFLAKE_USER")
		Cfg.SnowflakePassword = getRequiredEnv("SNOWFLAKE_PASSWORD")
		Cfg.SnowflakeDatabase = getRequiredEnv("SNOWFLAKE_DATABASE")
		Cfg.SnowflakeSchema = getRequiredEnv("SNOWFLAKE_SCHEMA")
		Cfg.SnowflakeWarehouse = getRequiredEnv("SNOWFLAKE_WAREHOUSE")
		Cfg.SnowflakeRole = getRequiredEnv("SNOWFLAKE_ROLE")

		Cfg.PostgresHost = getRequiredEnv("POSTGRES_HOST")
		Cfg.PostgresUser = getRequiredEnv("POSTGRES_USER")
		Cfg.PostgresPassword = getRequiredEnv("POSTGRES_PASSWORD")
		Cfg.PostgresDBName = getRequiredEnv("POSTGRES_DBNAME")
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, Mode=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.Mode)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getRequiredEnv retrieves an environment variable or terminates the application if not set.
func getRequiredEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set or is empty. Application cannot start in live mode without it.", key)
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getAllowedOrigins retrieves and parses the comma-separated list of CORS origins.
func getAllowedOrigins(key string) []string {
	originsStr := getEnv(key, "http://localhost:3000")
	origins := strings.Split(originsStr, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}
	return origins
}
