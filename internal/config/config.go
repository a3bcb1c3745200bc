// Package config provides application configuration from environment variables.
package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// Provider identifies the upstream text-generation vendor.
type Provider string

const (
	ProviderDeepSeek  Provider = "deepseek"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
)

// Config holds all configuration values.
type Config struct {
	// LLM vendor
	LLMProvider     Provider
	LLMModel        string
	LLMBaseURL      string
	DeepSeekAPIKey  string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	OllamaHost      string

	// Per-call deadline for upstream model requests.
	CallTimeout time.Duration

	// HTTP server
	Port string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		LLMProvider:     Provider(getEnv("MASTERCHAT_LLM_PROVIDER", string(ProviderDeepSeek))),
		LLMModel:        getEnv("MASTERCHAT_LLM_MODEL", "deepseek-chat"),
		LLMBaseURL:      getEnv("MASTERCHAT_LLM_BASE_URL", "https://api.deepseek.com/v1"),
		DeepSeekAPIKey:  getEnv("DEEPSEEK_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),

		CallTimeout: parseDuration(getEnv("MASTERCHAT_LLM_TIMEOUT", "90s"), 90*time.Second),

		Port: getEnv("MASTERCHAT_PORT", "8787"),

		LogFile:  getEnv("MASTERCHAT_LOG_FILE", ""),
		LogLevel: parseLogLevel(getEnv("MASTERCHAT_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
