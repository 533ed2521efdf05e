package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderMock   = "mock"

	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Store
	StoreDriver string
	DatabaseURL string

	// Redis (optional: cache and live updates)
	RedisURL string

	// Reply generator
	LLMProvider  string
	GeminiAPIKey string
	GeminiModel  string
	MockDelay    time.Duration

	// Upper bound on in-flight Gemini calls
	GeminiConcurrentReqs int

	// Logging
	LogLevel  string
	LogPretty bool

	// Frontend
	CORSOrigin string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:         getEnvOrDefault("PORT", "3000"),
		Env:          getEnvOrDefault("ENV", "development"),
		StoreDriver:  strings.ToLower(getEnvOrDefault("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL:  getEnvOrDefault("DATABASE_URL", ""),
		RedisURL:     getEnvOrDefault("REDIS_URL", ""),
		LLMProvider:  strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderGemini)),
		GeminiAPIKey: getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		MockDelay:    time.Duration(getEnvAsIntOrDefault("MOCK_DELAY_MS", 500)) * time.Millisecond,
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		CORSOrigin:   getEnvOrDefault("CORS_ORIGIN", "http://localhost:5173"),

		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
	}
	cfg.LogPretty = getEnvAsBoolOrDefault("LOG_PRETTY", cfg.Env == "development")

	if cfg.StoreDriver == StoreDriverPostgres {
		cfg.DatabaseURL = mustGetEnv("DATABASE_URL")
	}

	return cfg
}

// Validate reports configuration that must stop the process before it serves
// traffic.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLMProvider {
	case ProviderMock:
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is not configured; set it or use LLM_PROVIDER=mock"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q (expected %q or %q)", c.LLMProvider, ProviderGemini, ProviderMock))
	}

	switch c.StoreDriver {
	case StoreDriverMemory:
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	return errors.Join(errs...)
}

// WidgetConfig drives cmd/chatwidget.
type WidgetConfig struct {
	APIURL    string
	StatePath string
	Timeout   time.Duration
}

func LoadWidget() *WidgetConfig {
	godotenv.Load()

	statePath := getEnvOrDefault("WIDGET_STATE_PATH", "")
	if statePath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = "."
		}
		statePath = filepath.Join(dir, "quickshop", "widget.db")
	}

	return &WidgetConfig{
		APIURL:    strings.TrimRight(getEnvOrDefault("CHAT_API_URL", "http://localhost:3000/api"), "/"),
		StatePath: statePath,
		Timeout:   time.Duration(getEnvAsIntOrDefault("CHAT_API_TIMEOUT_SECONDS", 45)) * time.Second,
	}
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

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
