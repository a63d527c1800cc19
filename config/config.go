// Package config loads application settings from the environment, with an
// optional .env file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting. Zero-config startup works: all
// fields have defaults except the API keys, which the consuming component
// validates when it is actually used.
type Config struct {
	// AnthropicAPIKey authenticates analysis and chat calls.
	AnthropicAPIKey string
	// Model is the Anthropic model name; empty uses the analyzer default.
	Model string

	// DataDir holds the persisted index and metadata artifacts.
	DataDir      string
	IndexFile    string
	MetadataFile string

	// EmbeddingProvider selects the embedder backend: "openai", "onnx",
	// or "mock".
	EmbeddingProvider string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	EmbeddingModel    string
	EmbeddingDims     int

	// ONNX backend paths (used when EmbeddingProvider is "onnx").
	ONNXModelPath     string
	ONNXTokenizerPath string
	ONNXLibraryPath   string

	// Conversation settings.
	MaxContextLength int
	SessionTimeout   time.Duration

	// MaxFileSize caps uploaded policy/ZIP sizes in bytes.
	MaxFileSize int64

	ListenAddr string
}

// Load reads the optional .env file, then the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		Model:           os.Getenv("ANTHROPIC_MODEL"),

		DataDir:      getEnv("DATA_DIR", "./data"),
		IndexFile:    getEnv("INDEX_FILE", "invoices.idx"),
		MetadataFile: getEnv("METADATA_FILE", "invoices.meta"),

		EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "openai"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDims:     getEnvInt("EMBEDDING_DIMENSIONS", 1536),

		ONNXModelPath:     os.Getenv("ONNX_MODEL_PATH"),
		ONNXTokenizerPath: os.Getenv("ONNX_TOKENIZER_PATH"),
		ONNXLibraryPath:   os.Getenv("ONNX_LIBRARY_PATH"),

		MaxContextLength: getEnvInt("MAX_CONTEXT_LENGTH", 10),
		SessionTimeout:   time.Duration(getEnvInt("SESSION_TIMEOUT_HOURS", 24)) * time.Hour,

		MaxFileSize: int64(getEnvInt("MAX_FILE_SIZE_MB", 50)) << 20,

		ListenAddr: getEnv("LISTEN_ADDR", ":8000"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
