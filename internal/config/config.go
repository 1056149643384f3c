package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL    string
	MigrationsPath string

	// Redis
	RedisURL string

	// Client tokens
	ClientTokenSecret string

	// Gemini AI
	GeminiAPIKey         string
	GeminiModel          string
	GeminiTemperature    float64
	GeminiConcurrentReqs int

	// Capabilities
	SpeechTranscriptionEnabled bool

	// Sessions
	SessionIdleTTL     time.Duration
	RateLimitPerMinute int
	DefaultLanguage    string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                       getEnvOrDefault("PORT", "8080"),
		Env:                        getEnvOrDefault("ENV", "development"),
		DatabaseURL:                mustGetEnv("DATABASE_URL"),
		MigrationsPath:             getEnvOrDefault("MIGRATIONS_PATH", "migrations"),
		RedisURL:                   mustGetEnv("REDIS_URL"),
		ClientTokenSecret:          mustGetEnv("CLIENT_TOKEN_SECRET"),
		GeminiAPIKey:               mustGetEnv("GEMINI_API_KEY"),
		GeminiModel:                getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTemperature:          getEnvAsFloatOrDefault("GEMINI_TEMPERATURE", 0.7),
		GeminiConcurrentReqs:       getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		SpeechTranscriptionEnabled: getEnvAsBoolOrDefault("SPEECH_TRANSCRIPTION_ENABLED", true),
		SessionIdleTTL:             getEnvAsDurationOrDefault("SESSION_IDLE_TTL", 2*time.Hour),
		RateLimitPerMinute:         getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 30),
		DefaultLanguage:            getEnvOrDefault("DEFAULT_LANGUAGE", "en"),
		FrontendURL:                getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

// IsDevelopment reports whether verbose logging should be enabled.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
