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

// Provider selection for generation and dense embedding collaborators.
// The choice is fixed for the process lifetime.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Fusion mode for hybrid retrieval.
const (
	// FusionNative lets Qdrant fuse dense and sparse rankings server-side.
	FusionNative = "native"
	// FusionClient fetches two ranked lists and fuses them in-process.
	FusionClient = "client"
)

// Config holds all configuration for the application.
type Config struct {
	// Generation
	LLMProvider    string
	LLMBaseURL     string
	LLMModel       string
	LLMAPIKey      string
	LLMTemperature float64

	// Embeddings
	EmbeddingProvider   string
	EmbeddingBaseURL    string
	EmbeddingModel      string
	EmbeddingAPIKey     string
	EmbeddingVectorSize int

	// Qdrant
	QdrantURL        string
	QdrantCollection string

	// Retrieval
	TopK       int
	FusionMode string
	RRFK       int

	// Retry policy for collaborator calls
	RetryAttempts  int
	RetryBaseDelay time.Duration
	CallTimeout    time.Duration

	// Storage and ingestion
	DBPath  string
	DocsDir string

	// Server
	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or a parent directory, it is
// loaded automatically; variables already set take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load() // Try current directory

	// Walk up to find a .env at the project root
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		LLMProvider:       getEnv("LLM_PROVIDER", ProviderGemini),
		LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
		LLMModel:          getEnv("LLM_MODEL", "gemini-2.5-flash"),
		LLMAPIKey:         getEnv("LLM_API_KEY", ""),
		EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", ProviderGemini),
		EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", ""),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		EmbeddingAPIKey:   getEnv("EMBEDDING_API_KEY", ""),
		QdrantURL:         getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:  getEnv("QDRANT_COLLECTION", "reports"),
		FusionMode:        strings.ToLower(getEnv("FUSION_MODE", FusionNative)),
		DBPath:            getEnv("DB_PATH", "./data/reportqa.db"),
		DocsDir:           getEnv("DOCS_DIR", "./data/processed"),
		APIPort:           getEnv("API_PORT", "8000"),
		LogFormat:         strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	if cfg.LLMProvider != ProviderGemini && cfg.LLMProvider != ProviderOpenAI {
		return nil, fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderOpenAI, cfg.LLMProvider)
	}
	if cfg.EmbeddingProvider != ProviderGemini && cfg.EmbeddingProvider != ProviderOpenAI {
		return nil, fmt.Errorf("EMBEDDING_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderOpenAI, cfg.EmbeddingProvider)
	}
	if cfg.FusionMode != FusionNative && cfg.FusionMode != FusionClient {
		return nil, fmt.Errorf("FUSION_MODE must be %q or %q, got %q", FusionNative, FusionClient, cfg.FusionMode)
	}
	if cfg.LLMAPIKey == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required")
	}
	if cfg.EmbeddingAPIKey == "" {
		// The same key commonly serves both collaborators.
		cfg.EmbeddingAPIKey = cfg.LLMAPIKey
	}
	if cfg.LLMProvider == ProviderOpenAI && cfg.LLMBaseURL == "" {
		return nil, fmt.Errorf("LLM_BASE_URL is required when LLM_PROVIDER is %q", ProviderOpenAI)
	}
	if cfg.EmbeddingProvider == ProviderOpenAI && cfg.EmbeddingBaseURL == "" {
		return nil, fmt.Errorf("EMBEDDING_BASE_URL is required when EMBEDDING_PROVIDER is %q", ProviderOpenAI)
	}

	cfg.LLMTemperature, err = getEnvFloat("LLM_TEMPERATURE", 0.7)
	if err != nil {
		return nil, err
	}

	// EMBEDDING_VECTOR_SIZE must match the dense embedding model's output size.
	// If the size changes, the Qdrant collection must be recreated.
	cfg.EmbeddingVectorSize, err = getEnvInt("EMBEDDING_VECTOR_SIZE", 768)
	if err != nil {
		return nil, err
	}
	if cfg.EmbeddingVectorSize <= 0 {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE must be greater than 0")
	}

	cfg.TopK, err = getEnvInt("RAG_TOP_K", 5)
	if err != nil {
		return nil, err
	}
	if cfg.TopK <= 0 {
		return nil, fmt.Errorf("RAG_TOP_K must be greater than 0")
	}

	cfg.RRFK, err = getEnvInt("RRF_K", 60)
	if err != nil {
		return nil, err
	}
	if cfg.RRFK <= 0 {
		return nil, fmt.Errorf("RRF_K must be greater than 0")
	}

	cfg.RetryAttempts, err = getEnvInt("RETRY_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	if cfg.RetryAttempts <= 0 {
		return nil, fmt.Errorf("RETRY_ATTEMPTS must be greater than 0")
	}

	cfg.RetryBaseDelay, err = getEnvDuration("RETRY_BASE_DELAY", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	cfg.CallTimeout, err = getEnvDuration("CALL_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(getEnv("LOG_LEVEL", "info")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "info":
		cfg.LogLevel = slog.LevelInfo
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json")
	}

	// Create the data directory for the catalog database if needed
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return parsed, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid float: %w", key, err)
	}
	return parsed, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration (e.g. 500ms, 30s): %w", key, err)
	}
	return parsed, nil
}
