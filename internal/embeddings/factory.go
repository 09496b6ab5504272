package embeddings

import (
	"fmt"

	"github.com/NesmitC/project-webmath/internal/config"
)

// New builds the embedder selected in the configuration.
func New(cfg config.EmbeddingsConfig) (Embedder, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embeddings provider openai needs an API key (OPENAI_API_KEY)")
		}
		return NewOpenAIEmbedder(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Dimensions), nil
	case "ollama":
		model := cfg.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		dims := cfg.Dimensions
		if dims <= 0 {
			dims = 768
		}
		return NewOllamaEmbedder(model, dims, cfg.BaseURL), nil
	case "local", "":
		return NewLocalEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unsupported embeddings provider: %s", cfg.Provider)
	}
}
