package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Repository RepositoryConfig
	Discovery  DiscoveryConfig
	Ollama     OllamaConfig
	Gemini     GeminiConfig
	LlamaCpp   LlamaCppConfig
	Ingest     IngestConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// RepositoryConfig selects and configures the result store.
// Driver is "sqlite" or "postgres".
type RepositoryConfig struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
}

// DiscoveryConfig holds model discovery configuration
type DiscoveryConfig struct {
	ModelsDir string
}

// OllamaConfig holds the local-network backend configuration
type OllamaConfig struct {
	BaseURL string
	Timeout time.Duration
}

// GeminiConfig holds the hosted backend configuration
type GeminiConfig struct {
	APIKey            string
	Model             string
	RequestsPerMinute int
	RequestsPerDay    int
}

// LlamaCppConfig holds the local weights runner configuration
type LlamaCppConfig struct {
	Binary  string
	Threads int
}

// IngestConfig holds inbox-watching configuration
type IngestConfig struct {
	Roots    []string
	Template string
	Debounce time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Repository: RepositoryConfig{
			Driver:      getEnv("RESULTS_DRIVER", "sqlite"),
			SQLitePath:  getEnv("RESULTS_SQLITE_PATH", "./data/results.db"),
			PostgresDSN: getEnv("RESULTS_POSTGRES_DSN", ""),
		},
		Discovery: DiscoveryConfig{
			ModelsDir: getEnv("MODELS_DIR", defaultModelsDir()),
		},
		Ollama: OllamaConfig{
			BaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			Timeout: getEnvAsDuration("OLLAMA_TIMEOUT", 120*time.Second),
		},
		Gemini: GeminiConfig{
			APIKey:            getEnv("GEMINI_API_KEY", ""),
			Model:             getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			RequestsPerMinute: getEnvAsInt("GEMINI_RPM", 15),
			RequestsPerDay:    getEnvAsInt("GEMINI_RPD", 1500),
		},
		LlamaCpp: LlamaCppConfig{
			Binary:  getEnv("LLAMACPP_BIN", "llama-mtmd-cli"),
			Threads: getEnvAsInt("LLAMACPP_THREADS", 0),
		},
		Ingest: IngestConfig{
			Roots:    splitNonEmpty(getEnv("INGEST_ROOTS", ""), ","),
			Template: getEnv("INGEST_TEMPLATE", "accessory-label"),
			Debounce: getEnvAsDuration("INGEST_DEBOUNCE", 500*time.Millisecond),
		},
	}
}

func defaultModelsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./models"
	}
	return home + "/models"
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
