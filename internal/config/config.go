// Package config provides configuration utilities for the application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/beanflow/beanflow/internal/common"
	"github.com/beanflow/beanflow/internal/model"
)

// Config is the full application configuration, assembled from the config
// file, environment, and flags before any component is constructed.
type Config struct {
	// DatabasePath is the SQLite database location.
	DatabasePath string `mapstructure:"database_path"`

	// Chart configures the chart of accounts.
	Chart ChartConfig `mapstructure:"chart"`

	// Oracle configures the LLM provider.
	Oracle OracleConfig `mapstructure:"oracle"`

	// Synthesis configures rule learning.
	Synthesis SynthesisConfig `mapstructure:"synthesis"`

	// Generator configures the external ledger generator.
	Generator GeneratorConfig `mapstructure:"generator"`

	// Workers bounds concurrent classifications in a batch.
	Workers int `mapstructure:"workers"`
}

// ChartConfig declares the accounts classifications may land in.
type ChartConfig struct {
	DefaultAccount string   `mapstructure:"default_account"`
	AssetAccount   string   `mapstructure:"asset_account"`
	Accounts       []string `mapstructure:"accounts"`
}

// OracleConfig configures the LLM provider connection.
type OracleConfig struct {
	Provider    string        `mapstructure:"provider"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	MaxRetries  int           `mapstructure:"max_retries"`
	RateLimit   int           `mapstructure:"rate_limit"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	ContextCap  int           `mapstructure:"context_rules"`
}

// SynthesisConfig configures feedback-to-rule learning.
type SynthesisConfig struct {
	SupportThreshold int     `mapstructure:"support_threshold"`
	ConfidenceCap    float64 `mapstructure:"confidence_cap"`
}

// GeneratorConfig configures the double-entry-generator invocation.
type GeneratorConfig struct {
	BinPath  string        `mapstructure:"bin_path"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Currency string        `mapstructure:"currency"`
}

// Default returns a configuration with sensible defaults applied.
func Default() Config {
	return Config{
		DatabasePath: "~/.beanflow/beanflow.db",
		Chart: ChartConfig{
			DefaultAccount: "Expenses:Uncategorized",
			AssetAccount:   "Assets:Checking",
		},
		Oracle: OracleConfig{
			Provider:   "openai",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			RateLimit:  60,
			CacheTTL:   15 * time.Minute,
			ContextCap: 10,
		},
		Synthesis: SynthesisConfig{
			SupportThreshold: 3,
			ConfidenceCap:    0.95,
		},
		Generator: GeneratorConfig{
			Timeout:  60 * time.Second,
			Currency: "CNY",
		},
		Workers: 4,
	}
}

// Validate checks the configuration for misuse that would only surface as a
// confusing runtime failure later.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database_path is required", common.ErrInvalidConfig)
	}
	if c.Chart.DefaultAccount == "" {
		return fmt.Errorf("%w: chart.default_account is required", common.ErrInvalidConfig)
	}
	if c.Oracle.Provider != "" && c.Oracle.Provider != "ollama" && c.Oracle.APIKey == "" {
		return fmt.Errorf("%w: oracle.api_key is required for provider %q", common.ErrInvalidConfig, c.Oracle.Provider)
	}
	if c.Synthesis.ConfidenceCap >= 1.0 {
		return fmt.Errorf("%w: synthesis.confidence_cap must be below 1.0", common.ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", common.ErrInvalidConfig)
	}
	return nil
}

// BuildChart assembles the chart of accounts, guaranteeing the default
// account is always a member.
func (c *Config) BuildChart() model.Chart {
	chart := model.Chart{
		DefaultAccount: c.Chart.DefaultAccount,
		Accounts:       append([]string(nil), c.Chart.Accounts...),
	}
	if !chart.Contains(chart.DefaultAccount) {
		chart.Accounts = append(chart.Accounts, chart.DefaultAccount)
	}
	return chart
}

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	// First expand tilde if present
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	// Then expand environment variables
	return os.ExpandEnv(path)
}
