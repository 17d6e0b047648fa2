package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientProviders(t *testing.T) {
	providers := []string{"openai", "OpenAI", "custom", "deepseek", "ollama", "anthropic"}
	for _, p := range providers {
		client, err := NewClient(Config{Provider: p, APIKey: "sk-test"})
		require.NoError(t, err, p)
		assert.NotNil(t, client)
	}
}

func TestNewClientUnsupportedProvider(t *testing.T) {
	_, err := NewClient(Config{Provider: "bard"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported oracle provider")
}
