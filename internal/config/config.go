// Package config loads service configuration from defaults and environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Document  DocumentConfig
	Storage   StorageConfig
	Server    ServerConfig
	Gemini    GeminiConfig
	Tavily    TavilyConfig
	Retrieval RetrievalConfig
}

type DocumentConfig struct {
	// Path to the 10-K filing (HTML or PDF).
	Path string
	// SourceID namespaces the persisted index for this filing.
	SourceID string
}

type StorageConfig struct {
	DataDir string
}

type ServerConfig struct {
	Port int
	// Token enables bearer auth on the HTTP API when non-empty.
	Token string
}

type GeminiConfig struct {
	APIKey     string
	Model      string
	EmbedModel string
}

type TavilyConfig struct {
	// APIKey is optional; without it web search is disabled and queries
	// routed to it degrade to document-only answers.
	APIKey string
}

type RetrievalConfig struct {
	TopK int
	// MinScore is the similarity floor; 0 disables it.
	MinScore float64
	// MaxContextTokens caps evidence injected into the synthesis prompt.
	MaxContextTokens int
}

func defaults() Config {
	return Config{
		Document: DocumentConfig{
			Path:     "data/filing.htm",
			SourceID: "filing",
		},
		Storage: StorageConfig{
			DataDir: "./data",
		},
		Server: ServerConfig{
			Port: 4000,
		},
		Gemini: GeminiConfig{
			Model:      "gemini-2.0-flash-exp",
			EmbedModel: "gemini-embedding-001",
		},
		Retrieval: RetrievalConfig{
			TopK:             5,
			MinScore:         0,
			MaxContextTokens: 4000,
		},
	}
}

// Load reads configuration from defaults and environment variables.
// EDGARQA_* variables override defaults; the API credentials use the
// conventional GOOGLE_API_KEY and TAVILY_API_KEY names.
func Load() (Config, error) {
	cfg := defaults()
	applyEnvOverrides(&cfg)

	if cfg.Gemini.APIKey == "" {
		return Config{}, fmt.Errorf("missing required config: Gemini API key. " +
			"Set it via the GOOGLE_API_KEY environment variable (or a .env file)")
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Document.Path, "EDGARQA_DOCUMENT")
	setString(&cfg.Document.SourceID, "EDGARQA_SOURCE_ID")
	setString(&cfg.Storage.DataDir, "EDGARQA_DATA_DIR")
	setInt(&cfg.Server.Port, "EDGARQA_PORT")
	setString(&cfg.Server.Token, "EDGARQA_API_TOKEN")
	setString(&cfg.Gemini.APIKey, "GOOGLE_API_KEY")
	setString(&cfg.Gemini.Model, "EDGARQA_GEMINI_MODEL")
	setString(&cfg.Gemini.EmbedModel, "EDGARQA_EMBED_MODEL")
	setString(&cfg.Tavily.APIKey, "TAVILY_API_KEY")
	setInt(&cfg.Retrieval.TopK, "EDGARQA_TOP_K")
	setFloat(&cfg.Retrieval.MinScore, "EDGARQA_MIN_SCORE")
	setInt(&cfg.Retrieval.MaxContextTokens, "EDGARQA_MAX_CONTEXT_TOKENS")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
