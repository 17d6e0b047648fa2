package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/beanflow/beanflow/internal/common"
	"github.com/beanflow/beanflow/internal/model"
)

// Adapter wraps a provider client with prompt construction, response
// parsing, chart validation, rate limiting, caching, and bounded retries.
// It implements the resolver's Oracle contract.
type Adapter struct {
	client      Client
	cache       *resultCache
	rateLimiter *rateLimiter
	logger      *slog.Logger
	retryOpts   common.RetryOptions
	contextCap  int
}

// NewAdapter creates an oracle adapter for the configured provider.
func NewAdapter(cfg Config, logger *slog.Logger) (*Adapter, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create oracle client: %w", err)
	}

	return NewAdapterWithClient(client, cfg, logger), nil
}

// NewAdapterWithClient creates an adapter around an existing client.
// Primarily used by tests to inject a mock provider.
func NewAdapterWithClient(client Client, cfg Config, logger *slog.Logger) *Adapter {
	retryOpts := common.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	contextCap := cfg.ContextCap
	if contextCap <= 0 {
		contextCap = defaultContextCap
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Adapter{
		client:      client,
		cache:       newResultCache(cfg.CacheTTL),
		rateLimiter: newRateLimiter(cfg.RateLimit),
		logger:      logger,
		retryOpts:   retryOpts,
		contextCap:  contextCap,
	}
}

// Classify asks the provider to assign an account to one transaction.
// The returned account is guaranteed to be a leaf of the chart; a response
// naming any other account is discarded as a schema violation. Transient
// provider failures are retried with exponential backoff and surface as
// ErrOracleUnavailable once exhausted.
func (a *Adapter) Classify(ctx context.Context, txn model.Transaction, chart model.Chart, contextRules []model.Rule) (Result, error) {
	if key := txn.Hash; key != "" {
		if result, found := a.cache.get(key); found {
			a.logger.Debug("oracle cache hit",
				"transaction_id", txn.ID,
				"peer", txn.Peer)
			return result, nil
		}
	}

	if err := a.rateLimiter.wait(ctx); err != nil {
		return Result{}, fmt.Errorf("%w: %v", common.ErrOracleUnavailable, err)
	}

	prompt := BuildPrompt(txn, chart, SelectContextRules(txn, contextRules, a.contextCap))

	var raw string
	err := common.WithRetry(ctx, func() error {
		var completeErr error
		raw, completeErr = a.client.Complete(ctx, prompt)
		if completeErr != nil {
			a.logger.Warn("oracle completion attempt failed",
				"transaction_id", txn.ID,
				"error", completeErr)
		}
		return completeErr
	}, a.retryOpts)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", common.ErrOracleUnavailable, err)
	}

	result, err := parseResult(raw)
	if err != nil {
		return Result{}, err
	}

	if !chart.Contains(result.Account) {
		return Result{}, fmt.Errorf("%w: account %q is not in the chart of accounts",
			common.ErrSchemaViolation, result.Account)
	}

	if txn.Hash != "" {
		a.cache.set(txn.Hash, result)
	}

	a.logger.Info("oracle classified transaction",
		"transaction_id", txn.ID,
		"peer", txn.Peer,
		"account", result.Account,
		"confidence", result.Confidence)

	return result, nil
}

// IsUnavailable reports whether the error is a degradation-path failure:
// the oracle contributed nothing for this transaction but resolution should
// continue with rule-only output.
func IsUnavailable(err error) bool {
	return errors.Is(err, common.ErrOracleUnavailable) || errors.Is(err, common.ErrSchemaViolation)
}

// Close stops background goroutines and cleans up resources.
func (a *Adapter) Close() error {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.rateLimiter != nil {
		a.rateLimiter.Close()
	}
	return nil
}
