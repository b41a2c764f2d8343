// Package config provides configuration for the datachat service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// MaxFetchTimeout caps the remote dataset fetch timeout.
const MaxFetchTimeout = 30 * time.Second

// Config holds the datachat configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database (run/event trace)
	DatabaseURL string

	// LLM settings
	LLMProvider    string
	LLMMode        string
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMTemperature float64
	LLMTimeout     time.Duration

	// Dataset settings
	FetchTimeout         time.Duration
	DefaultDatasetSource string
	ProfileCacheTTL      time.Duration
	PolicyFile           string

	// Sessions and runs
	SessionListLimit int
	RunStaleAfter    time.Duration

	// WebSocket settings
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64
	QueryTimeout   time.Duration

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	provider := strings.ToLower(getEnv("LLM_PROVIDER", "openai"))
	defaultModel := "gpt-4o-mini"
	if provider == "gemini" {
		defaultModel = "gemini-2.0-flash"
	}

	fetchTimeout := time.Duration(getEnvInt("FETCH_TIMEOUT_MS", 30000)) * time.Millisecond
	if fetchTimeout <= 0 || fetchTimeout > MaxFetchTimeout {
		fetchTimeout = MaxFetchTimeout
	}

	return &Config{
		HTTPPort:             getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:          getEnv("DATABASE_URL", ":memory:"),
		LLMProvider:          provider,
		LLMMode:              getEnv("LLM_MODE", ""),
		LLMBaseURL:           getEnv("LLM_BASE_URL", "https://api.openai.com"),
		LLMAPIKey:            getEnv("LLM_API_KEY", ""),
		LLMModel:             getEnv("LLM_MODEL", defaultModel),
		LLMTemperature:       getEnvFloat("LLM_TEMPERATURE", 0),
		LLMTimeout:           time.Duration(getEnvInt("LLM_TIMEOUT_MS", 60000)) * time.Millisecond,
		FetchTimeout:         fetchTimeout,
		DefaultDatasetSource: getEnv("DEFAULT_DATASET_SOURCE", "sample.csv"),
		ProfileCacheTTL:      time.Duration(getEnvInt("PROFILE_CACHE_TTL_MS", 0)) * time.Millisecond,
		PolicyFile:           getEnv("POLICY_FILE", ""),
		SessionListLimit:     getEnvInt("SESSION_LIST_LIMIT", 100),
		RunStaleAfter:        time.Duration(getEnvInt("RUN_STALE_AFTER_MS", 600000)) * time.Millisecond,
		PingInterval:         time.Duration(getEnvInt("WS_PING_INTERVAL_MS", 30000)) * time.Millisecond,
		WriteTimeout:         time.Duration(getEnvInt("WS_WRITE_TIMEOUT_MS", 10000)) * time.Millisecond,
		ReadTimeout:          time.Duration(getEnvInt("WS_READ_TIMEOUT_MS", 60000)) * time.Millisecond,
		MaxMessageSize:       int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 65536)),
		QueryTimeout:         time.Duration(getEnvInt("WS_QUERY_TIMEOUT_MS", 180000)) * time.Millisecond,
		LogLevel:             getEnv("LOG_LEVEL", "info"),
	}
}

// MockMode reports whether the deterministic mock LLM should be used.
func (c *Config) MockMode() bool {
	return strings.EqualFold(c.LLMMode, "MOCK") || c.LLMProvider == "mock"
}

// Debug reports whether per-stage debug logging is enabled.
func (c *Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
