package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr     string
	DBPath   string
	LogLevel string

	GenerationWorkerCount int
	GenerationQueueSize   int
	GenerationTemperature float64
	GenerationTimeout     time.Duration
	GenerateRatePerMinute int
	GenerateBurst         int

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	MaxUploadBytes int64
	SessionTTL     time.Duration
	CookieSecure   bool
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:     envOr("ADDR", ":8080"),
		DBPath:   envOr("DB_PATH", "file:studyflash.db"),
		LogLevel: envOr("LOG_LEVEL", "INFO"),

		GenerationWorkerCount: envIntOr("GENERATION_WORKER_COUNT", 2),
		GenerationQueueSize:   envIntOr("GENERATION_QUEUE_SIZE", 32),
		GenerationTemperature: envFloatOr("GENERATION_TEMPERATURE", 0.3),
		GenerationTimeout:     envDurationOr("GENERATION_TIMEOUT", 60*time.Second),
		GenerateRatePerMinute: envIntOr("GENERATE_RATE_PER_MINUTE", 6),
		GenerateBurst:         envIntOr("GENERATE_BURST", 3),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: envOr("OPENAI_BASE_URL", ""),
		OpenAIModel:   envOr("OPENAI_MODEL", "gpt-4o-mini"),

		MaxUploadBytes: int64(envIntOr("MAX_UPLOAD_BYTES", 10<<20)),
		SessionTTL:     envDurationOr("SESSION_TTL", 30*24*time.Hour),
		CookieSecure:   envBoolOr("COOKIE_SECURE", false),
	}
}

// Validate reports the first configuration value that cannot be used.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.GenerationWorkerCount < 1 {
		return fmt.Errorf("GENERATION_WORKER_COUNT must be at least 1, got %d", c.GenerationWorkerCount)
	}
	if c.GenerationQueueSize < 1 {
		return fmt.Errorf("GENERATION_QUEUE_SIZE must be at least 1, got %d", c.GenerationQueueSize)
	}
	if c.GenerationTemperature < 0 || c.GenerationTemperature > 2 {
		return fmt.Errorf("GENERATION_TEMPERATURE must be between 0 and 2, got %v", c.GenerationTemperature)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be positive")
	}
	if c.GenerateRatePerMinute < 1 || c.GenerateBurst < 1 {
		return fmt.Errorf("GENERATE_RATE_PER_MINUTE and GENERATE_BURST must be at least 1")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.SessionTTL < time.Minute {
		return fmt.Errorf("SESSION_TTL must be at least 1m, got %s", c.SessionTTL)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %v", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("invalid value for %s=%q, using default %t", key, v, def)
	}
	return def
}
