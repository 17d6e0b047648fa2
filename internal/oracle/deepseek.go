package oracle

import "fmt"

// newDeepSeekClient creates a client for the DeepSeek API, which speaks the
// OpenAI-compatible wire format with its own endpoint and default model.
func newDeepSeekClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("deepseek API key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.deepseek.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek-chat"
	}

	return newOpenAIClient(cfg)
}
