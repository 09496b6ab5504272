package llm

import (
	"fmt"

	"github.com/NesmitC/project-webmath/internal/config"
)

// OfflineAnswer is returned by the static provider.
const OfflineAnswer = "Нейроассистент работает в автономном режиме. Ваш вопрос будет передан методической службе."

// NewProvider creates the provider selected in cfg. Without an API key the
// offline mode falls back to the static provider; online mode fails.
func NewProvider(cfg config.LLMConfig, mode config.Mode) (Provider, error) {
	switch cfg.Provider {
	case "static":
		return StaticProvider{Text: OfflineAnswer}, nil
	case "deepseek", "openai":
		if cfg.APIKey == "" {
			if mode == config.ModeOffline {
				return StaticProvider{Text: OfflineAnswer}, nil
			}
			return nil, fmt.Errorf("llm provider %s needs an API key", cfg.Provider)
		}
		baseURL, model := cfg.BaseURL, cfg.Model
		if cfg.Provider == "deepseek" {
			if baseURL == "" {
				baseURL = DeepSeekBaseURL
			}
			if model == "" {
				model = DeepSeekModel
			}
		}
		return NewOpenAIProvider(cfg.Provider, cfg.APIKey, baseURL, model), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Provider)
	}
}
