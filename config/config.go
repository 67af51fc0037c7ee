package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port      string         `mapstructure:"port"`
	MongoURI  string         `mapstructure:"MONGODB_URI"`
	Database  string         `mapstructure:"database"`
	UploadDir string         `mapstructure:"upload_dir"`
	Provider  string         `mapstructure:"provider"` // "openai" or "gemini"
	OpenAI    OpenAIConfig   `mapstructure:"openai"`
	Gemini    GeminiConfig   `mapstructure:"gemini"`
	Weaviate  WeaviateConfig `mapstructure:"weaviate"`
	RAG       RAGConfig      `mapstructure:"rag"`
	OCR       OCRConfig      `mapstructure:"ocr"`
}

type OpenAIConfig struct {
	APIKey              string  `mapstructure:"OPENAI_API_KEY"`
	BaseURL             string  `mapstructure:"base_url"`
	ChatModel           string  `mapstructure:"chat_model"`
	EmbeddingModel      string  `mapstructure:"embedding_model"`
	EmbeddingDimensions int     `mapstructure:"embedding_dimensions"`
	TranscriptionModel  string  `mapstructure:"transcription_model"`
	InputCostPerMTok    float64 `mapstructure:"input_cost_per_mtok"`
	OutputCostPerMTok   float64 `mapstructure:"output_cost_per_mtok"`
}

type GeminiConfig struct {
	APIKeys             []string `mapstructure:"GEMINI_API_KEYS"`
	ChatModel           string   `mapstructure:"chat_model"`
	EmbeddingModel      string   `mapstructure:"embedding_model"`
	EmbeddingDimensions int      `mapstructure:"embedding_dimensions"`
}

type WeaviateConfig struct {
	Host   string `mapstructure:"host"`
	APIKey string `mapstructure:"WEAVIATE_APIKEY"`
}

type RAGConfig struct {
	ChunkSize       int     `mapstructure:"chunk_size"`
	ChunkOverlap    int     `mapstructure:"chunk_overlap"`
	TopK            int     `mapstructure:"top_k"`
	SimilarityFloor float64 `mapstructure:"similarity_floor"`
	HistoryLimit    int     `mapstructure:"history_limit"`
}

type OCRConfig struct {
	Language string `mapstructure:"language"`
	DPI      int    `mapstructure:"dpi"`
}

// LoadConfig reads the yaml config file and binds the secret-bearing
// environment variables over it.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("WEAVIATE_APIKEY")
	v.BindEnv("MONGODB_URI")
	v.BindEnv("GEMINI_API_KEYS")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.OpenAI.APIKey = v.GetString("OPENAI_API_KEY")
	config.Weaviate.APIKey = v.GetString("WEAVIATE_APIKEY")
	config.MongoURI = v.GetString("MONGODB_URI")
	if keys := v.GetStringSlice("GEMINI_API_KEYS"); len(keys) > 0 {
		config.Gemini.APIKeys = keys
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("database", "casefile")
	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("provider", "openai")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.chat_model", "gpt-4o-mini")
	v.SetDefault("openai.embedding_model", "text-embedding-3-large")
	v.SetDefault("openai.embedding_dimensions", 1536)
	v.SetDefault("openai.transcription_model", "whisper-1")
	v.SetDefault("openai.input_cost_per_mtok", 0.15)
	v.SetDefault("openai.output_cost_per_mtok", 0.60)
	v.SetDefault("gemini.chat_model", "gemini-1.5-flash")
	v.SetDefault("gemini.embedding_model", "text-embedding-004")
	v.SetDefault("gemini.embedding_dimensions", 768)
	v.SetDefault("weaviate.host", "http://localhost:8081")
	v.SetDefault("rag.chunk_size", 500)
	v.SetDefault("rag.chunk_overlap", 50)
	v.SetDefault("rag.top_k", 5)
	v.SetDefault("rag.similarity_floor", 0.3)
	v.SetDefault("rag.history_limit", 10)
	v.SetDefault("ocr.language", "por")
	v.SetDefault("ocr.dpi", 300)
}
