package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Vector backends.
const (
	VectorBackendFlat   = "flat"
	VectorBackendQdrant = "qdrant"
)

// Index policies applied at startup.
const (
	IndexPolicyRebuild = "rebuild"
	IndexPolicyHash    = "hash"
)

// LLM providers.
const (
	LLMProviderOpenAI = "openai"
	LLMProviderOllama = "ollama"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	CorpusPath string
	DBPath     string

	VectorBackend    string
	IndexPath        string
	IndexPolicy      string
	QdrantURL        string
	QdrantCollection string

	EmbeddingBaseURL    string
	EmbeddingAPIKey     string
	EmbeddingModelName  string
	EmbeddingVectorSize int

	LLMProvider   string
	LLMBaseURL    string
	LLMAPIKey     string
	LLMModelName  string
	LLMTimeout    time.Duration
	LLMMaxRetries int
	LLMRateLimit  float64

	PolicyPath  string
	SessionTTL  time.Duration
	CORSOrigins []string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or one of its parents, it is loaded first.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		CorpusPath:         getEnv("CORPUS_PATH", ""),
		DBPath:             getEnv("DB_PATH", "./data/azusena.db"),
		VectorBackend:      strings.ToLower(getEnv("VECTOR_BACKEND", VectorBackendFlat)),
		IndexPath:          getEnv("INDEX_PATH", "./data/index.bolt"),
		IndexPolicy:        strings.ToLower(getEnv("INDEX_POLICY", IndexPolicyRebuild)),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "articles"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "https://api.openai.com"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "text-embedding-3-small"),
		LLMProvider:        strings.ToLower(getEnv("LLM_PROVIDER", LLMProviderOpenAI)),
		LLMBaseURL:         getEnv("LLM_BASE_URL", "https://api.openai.com"),
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		LLMModelName:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		PolicyPath:         getEnv("POLICY_PATH", ""),
		CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "*")),
	}
	// The embeddings endpoint usually shares the chat credentials.
	cfg.EmbeddingAPIKey = getEnv("EMBEDDING_API_KEY", cfg.LLMAPIKey)

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.EmbeddingVectorSize, err = getInt("EMBEDDING_VECTOR_SIZE", 0); err != nil {
		return nil, err
	}
	if cfg.EmbeddingVectorSize < 0 {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE must not be negative")
	}
	if cfg.LLMMaxRetries, err = getInt("LLM_MAX_RETRIES", 2); err != nil {
		return nil, err
	}
	if cfg.LLMMaxRetries < 0 {
		return nil, fmt.Errorf("LLM_MAX_RETRIES must not be negative")
	}
	if cfg.LLMRateLimit, err = getFloat("LLM_RATE_LIMIT", 0); err != nil {
		return nil, err
	}
	if cfg.LLMTimeout, err = getDuration("LLM_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 30*time.Minute); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Create data directories if they don't exist
	for _, path := range []string{cfg.DBPath, cfg.IndexPath} {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.CorpusPath == "" {
		return fmt.Errorf("CORPUS_PATH is required")
	}
	switch c.VectorBackend {
	case VectorBackendFlat:
	case VectorBackendQdrant:
		if c.EmbeddingVectorSize == 0 {
			return fmt.Errorf("EMBEDDING_VECTOR_SIZE is required when VECTOR_BACKEND=qdrant")
		}
	default:
		return fmt.Errorf("VECTOR_BACKEND must be %q or %q, got %q", VectorBackendFlat, VectorBackendQdrant, c.VectorBackend)
	}
	if c.IndexPolicy != IndexPolicyRebuild && c.IndexPolicy != IndexPolicyHash {
		return fmt.Errorf("INDEX_POLICY must be %q or %q, got %q", IndexPolicyRebuild, IndexPolicyHash, c.IndexPolicy)
	}
	if c.LLMProvider != LLMProviderOpenAI && c.LLMProvider != LLMProviderOllama {
		return fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", LLMProviderOpenAI, LLMProviderOllama, c.LLMProvider)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	if c.LLMRateLimit < 0 {
		return fmt.Errorf("LLM_RATE_LIMIT must not be negative")
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be greater than 0")
	}
	return nil
}

// loadDotEnv loads .env from the working directory, then walks up a few parents.
func loadDotEnv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return // Reached filesystem root
		}
		dir = parent
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	return v, nil
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error: %w", err)
	}
	return level, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
