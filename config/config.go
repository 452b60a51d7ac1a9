package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultOpenAIBaseURL  = "https://api.openai.com/v1"
	DefaultRequestTimeout = 45 * time.Second
	DefaultHistoryLimit   = 20
)

type Config struct {
	// OpenAI
	OpenAIAPIKey  string
	OpenAIBaseURL string

	// Assistant
	RequestTimeout time.Duration
	HistoryLimit   int
}

// Load reads the process environment, after merging in a .env file if one
// exists. A missing API key is not an error; it disables the assistant.
func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		OpenAIAPIKey:   strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL:  strings.TrimRight(getEnvOrDefault("OPENAI_BASE_URL", DefaultOpenAIBaseURL), "/"),
		RequestTimeout: time.Duration(getEnvAsIntOrDefault("ASSISTANT_REQUEST_TIMEOUT_SECONDS", int(DefaultRequestTimeout/time.Second))) * time.Second,
		HistoryLimit:   getEnvAsIntOrDefault("ASSISTANT_HISTORY_LIMIT", DefaultHistoryLimit),
	}
}

func (c *Config) AssistantEnabled() bool {
	return c.OpenAIAPIKey != ""
}

func getEnvOrDefault(key, defaultVal string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}
