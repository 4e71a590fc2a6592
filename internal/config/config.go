package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderHuggingFace = "huggingface"
	ProviderGemini      = "gemini"
)

type Config struct {
	// Server
	Port        string
	Env         string
	PingMessage string

	// Frontend (CORS origin)
	FrontendURL string

	// Text generation upstream
	UpstreamProvider       string
	HuggingFaceAPIKey      string
	HuggingFaceBaseURL     string
	HuggingFaceModel       string
	GeminiAPIKey           string
	GeminiModel            string
	UpstreamTimeout        time.Duration
	UpstreamRetryDelay     time.Duration
	ChatRateLimitPerMinute int

	// Paystack
	PaystackSecretKey string
	PaystackPublicKey string
	PaystackBaseURL   string

	// Optional infrastructure
	DatabaseURL string
	RedisURL    string
	WorkerCount int
}

// Load reads configuration from the environment. Nothing is mandatory: missing
// credentials are reported per request so the UI keeps working without them.
func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                   getEnvOrDefault("PORT", "8080"),
		Env:                    getEnvOrDefault("ENV", "development"),
		PingMessage:            getEnvOrDefault("PING_MESSAGE", "ping"),
		FrontendURL:            getEnvOrDefault("FRONTEND_URL", "*"),
		UpstreamProvider:       strings.ToLower(getEnvOrDefault("UPSTREAM_PROVIDER", ProviderHuggingFace)),
		HuggingFaceAPIKey:      os.Getenv("HUGGING_FACE_API_KEY"),
		HuggingFaceBaseURL:     getEnvOrDefault("HF_API_BASE_URL", "https://api-inference.huggingface.co/models"),
		HuggingFaceModel:       getEnvOrDefault("HF_DEFAULT_MODEL", "gpt2"),
		GeminiAPIKey:           os.Getenv("GEMINI_API_KEY"),
		GeminiModel:            getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		UpstreamTimeout:        getEnvAsDurationOrDefault("UPSTREAM_TIMEOUT", 15*time.Second),
		UpstreamRetryDelay:     getEnvAsDurationOrDefault("UPSTREAM_RETRY_DELAY", 2500*time.Millisecond),
		ChatRateLimitPerMinute: getEnvAsIntOrDefault("CHAT_RATE_LIMIT_PER_MINUTE", 30),
		PaystackSecretKey:      os.Getenv("PAYSTACK_SECRET_KEY"),
		PaystackPublicKey:      os.Getenv("PAYSTACK_PUBLIC_KEY"),
		PaystackBaseURL:        getEnvOrDefault("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisURL:               os.Getenv("REDIS_URL"),
		WorkerCount:            getEnvAsIntOrDefault("WORKER_COUNT", 2),
	}

	if cfg.UpstreamProvider != ProviderGemini {
		cfg.UpstreamProvider = ProviderHuggingFace
	}

	return cfg
}

// ActiveAPIKey returns the server-side credential for the configured provider.
func (c *Config) ActiveAPIKey() string {
	if c.UpstreamProvider == ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.HuggingFaceAPIKey
}

// DefaultModel returns the model used when a chat request names none.
func (c *Config) DefaultModel() string {
	if c.UpstreamProvider == ProviderGemini {
		return c.GeminiModel
	}
	return c.HuggingFaceModel
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

// getEnvAsDurationOrDefault accepts Go durations ("2.5s") or plain milliseconds ("2500").
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if ms, err := strconv.Atoi(val); err == nil {
		if ms < 0 {
			return defaultVal
		}
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(val)
	if err != nil || d < 0 {
		return defaultVal
	}
	return d
}
