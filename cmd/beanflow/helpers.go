// Package main contains the beanflow CLI commands.
package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/beanflow/beanflow/internal/config"
	"github.com/beanflow/beanflow/internal/oracle"
	"github.com/beanflow/beanflow/internal/resolver"
	"github.com/beanflow/beanflow/internal/rule"
	"github.com/beanflow/beanflow/internal/service"
	"github.com/beanflow/beanflow/internal/storage"
)

// loadConfig assembles the application config from viper on top of defaults.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openStorage opens and migrates the database named in the config.
func openStorage(cfg config.Config) (service.Storage, error) {
	dbPath := config.ExpandPath(cfg.DatabasePath)

	db, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// closeStorage closes the database, logging rather than failing the command.
func closeStorage(db service.Storage) {
	if err := db.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}

// buildResolver wires the matcher, oracle adapter, and storage into a
// resolver. The returned adapter must be closed by the caller.
func buildResolver(cfg config.Config, db service.Storage) (*resolver.Resolver, *oracle.Adapter, error) {
	adapter, err := oracle.NewAdapter(oracle.Config{
		Provider:    cfg.Oracle.Provider,
		BaseURL:     cfg.Oracle.BaseURL,
		APIKey:      cfg.Oracle.APIKey,
		Model:       cfg.Oracle.Model,
		Timeout:     cfg.Oracle.Timeout,
		Temperature: cfg.Oracle.Temperature,
		MaxTokens:   cfg.Oracle.MaxTokens,
		MaxRetries:  cfg.Oracle.MaxRetries,
		RateLimit:   cfg.Oracle.RateLimit,
		CacheTTL:    cfg.Oracle.CacheTTL,
		ContextCap:  cfg.Oracle.ContextCap,
	}, slog.Default())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create oracle client: %w", err)
	}

	r := resolver.New(db, rule.NewMatcher(), adapter, resolver.Config{
		Chart:   cfg.BuildChart(),
		Workers: cfg.Workers,
	}, slog.Default())

	return r, adapter, nil
}
