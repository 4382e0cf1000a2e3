package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	ListenAddr  string

	LogLevel string

	OTLPEndpoint string
	OTLPProtocol string
	OTelEnabled  bool

	DBType     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	Triage   TriageConfig
	Platform PlatformConfig
	Executor ExecutorConfig
}

// TriageConfig covers the classification call and the per-community budget.
type TriageConfig struct {
	Endpoint     string
	APIKey       string
	Model        string
	MaxTokens    int
	CallTimeout  time.Duration
	DailyBudget  float64
	BudgetWindow time.Duration
	MuteDuration string
}

// PlatformConfig points at the chat platform REST surface.
type PlatformConfig struct {
	BaseURL     string
	BotToken    string
	CallTimeout time.Duration
}

// ExecutorConfig controls the scheduled-action sweep loop.
type ExecutorConfig struct {
	PollInterval   time.Duration
	MaxConcurrency int
	RunTimeout     time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "warden"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		ListenAddr:  getenv("LISTEN_ADDR", ":8080"),

		LogLevel: strings.ToLower(getenv("LOG_LEVEL", "info")),

		OTLPEndpoint: getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTLPProtocol: strings.ToLower(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")),
		OTelEnabled:  getenvBool("OTEL_ENABLED", false),

		DBType:     getenv("DATABASE_TYPE", "postgres"),
		DBHost:     getenv("DATABASE_HOST", "localhost"),
		DBPort:     getenv("DATABASE_PORT", "5432"),
		DBName:     getenv("DATABASE_NAME", "warden"),
		DBUser:     getenv("DATABASE_USER", "warden"),
		DBPassword: getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:  getenv("DATABASE_SSLMODE", "disable"),

		Triage: TriageConfig{
			Endpoint:     getenv("TRIAGE_ENDPOINT", ""),
			APIKey:       strings.TrimSpace(getenv("TRIAGE_API_KEY", "")),
			Model:        getenv("TRIAGE_MODEL", "text-classifier-small"),
			MaxTokens:    getenvInt("TRIAGE_MAX_TOKENS", 1024),
			CallTimeout:  getenvDuration("TRIAGE_CALL_TIMEOUT", 30*time.Second),
			DailyBudget:  getenvFloat("TRIAGE_DAILY_BUDGET", 5.0),
			BudgetWindow: getenvDuration("TRIAGE_BUDGET_WINDOW", 24*time.Hour),
			MuteDuration: getenv("TRIAGE_MUTE_DURATION", "10m"),
		},
		Platform: PlatformConfig{
			BaseURL:     getenv("PLATFORM_BASE_URL", ""),
			BotToken:    strings.TrimSpace(getenv("PLATFORM_BOT_TOKEN", "")),
			CallTimeout: getenvDuration("PLATFORM_CALL_TIMEOUT", 15*time.Second),
		},
		Executor: ExecutorConfig{
			PollInterval:   getenvDuration("EXECUTOR_POLL_INTERVAL", time.Minute),
			MaxConcurrency: getenvInt("EXECUTOR_MAX_CONCURRENCY", 4),
			RunTimeout:     getenvDuration("EXECUTOR_RUN_TIMEOUT", 45*time.Second),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
