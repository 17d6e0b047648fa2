package oracle

import (
	"fmt"
	"strings"
)

// NewClient creates a raw completion client for the configured provider.
// The "custom" provider speaks the OpenAI-compatible wire format against a
// user-supplied endpoint.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai", "custom":
		return newOpenAIClient(cfg)
	case "deepseek":
		return newDeepSeekClient(cfg)
	case "ollama":
		return newOllamaClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported oracle provider: %s", cfg.Provider)
	}
}
