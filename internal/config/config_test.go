package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	cfg.Oracle.APIKey = "sk-test"
	require.NoError(t, cfg.Validate())
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		mutate func(*Config)
		name   string
	}{
		{name: "missing database path", mutate: func(c *Config) { c.DatabasePath = "" }},
		{name: "missing default account", mutate: func(c *Config) { c.Chart.DefaultAccount = "" }},
		{name: "api key required", mutate: func(c *Config) { c.Oracle.APIKey = "" }},
		{name: "confidence cap too high", mutate: func(c *Config) { c.Synthesis.ConfidenceCap = 1.0 }},
		{name: "negative workers", mutate: func(c *Config) { c.Workers = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Oracle.APIKey = "sk-test"
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestOllamaNeedsNoAPIKey(t *testing.T) {
	cfg := Default()
	cfg.Oracle.Provider = "ollama"
	cfg.Oracle.APIKey = ""
	assert.NoError(t, cfg.Validate())
}

func TestBuildChartAlwaysContainsDefault(t *testing.T) {
	cfg := Default()
	cfg.Chart.Accounts = []string{"Expenses:Dining"}
	cfg.Chart.DefaultAccount = "Expenses:Uncategorized"

	chart := cfg.BuildChart()
	assert.True(t, chart.Contains("Expenses:Dining"))
	assert.True(t, chart.Contains("Expenses:Uncategorized"))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "data"), ExpandPath("~/data"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, "", ExpandPath(""))

	t.Setenv("BEANFLOW_TEST_DIR", "/tmp/bf")
	assert.Equal(t, "/tmp/bf/x.db", ExpandPath("$BEANFLOW_TEST_DIR/x.db"))
}
