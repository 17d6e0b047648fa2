// Package resolver implements the classification resolution coordinator:
// it combines the rule matcher, the LLM oracle, and a fallback policy into
// one final account assignment per transaction.
package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/beanflow/beanflow/internal/common"
	"github.com/beanflow/beanflow/internal/model"
	"github.com/beanflow/beanflow/internal/oracle"
	"github.com/beanflow/beanflow/internal/rule"
	"github.com/beanflow/beanflow/internal/service"
)

// Config holds configuration options for the resolver.
type Config struct {
	Chart   model.Chart
	Workers int // Concurrent resolutions in a batch
}

// Resolver orchestrates rule matching and oracle classification per
// transaction, with deterministic precedence:
//
//  1. A matching user rule wins outright and skips the oracle.
//  2. Otherwise the oracle result and the best learned rule compete by
//     confidence, oracle winning ties.
//  3. If neither produces an account, the configured default account is
//     assigned with confidence 0 so the pipeline never blocks.
type Resolver struct {
	storage service.Storage
	matcher Matcher
	oracle  Oracle
	logger  *slog.Logger
	chart   model.Chart
	workers int
}

// New creates a resolver with the given dependencies.
func New(storage service.Storage, matcher Matcher, o Oracle, cfg Config, logger *slog.Logger) *Resolver {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		storage: storage,
		matcher: matcher,
		oracle:  o,
		chart:   cfg.Chart,
		workers: workers,
		logger:  logger,
	}
}

// oracleOutcome carries the oracle result across the concurrency boundary.
type oracleOutcome struct {
	err    error
	result oracle.Result
}

// Resolve produces and persists the classification for one transaction.
// Per-transaction oracle failures are recovered here and never surface;
// storage and rule-validation failures do, since they indicate a
// data-integrity problem that must not be masked.
func (r *Resolver) Resolve(ctx context.Context, txn model.Transaction) (*model.Classification, error) {
	rules, err := r.storage.ListActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	matches, err := r.matcher.Match(ctx, txn, rules)
	if err != nil {
		// A corrupt rule must not fail open.
		return nil, err
	}

	// Every persisted classification must land in the chart. Oracle results
	// are validated by the adapter; rule targets are only checked at creation
	// time, so a rule saved against a since-edited chart is caught here.
	for i := range matches {
		if !r.chart.Contains(matches[i].Account) {
			return nil, fmt.Errorf("%w: rule %q targets account %q outside the chart of accounts",
				common.ErrInvalidRule, matches[i].Rule.Name, matches[i].Account)
		}
	}

	classification := r.decide(ctx, txn, rules, matches)

	if err := r.storage.SaveClassification(ctx, classification); err != nil {
		return nil, fmt.Errorf("failed to persist classification: %w", err)
	}

	return classification, nil
}

// decide applies the precedence policy and returns the winning
// classification. It does not persist.
func (r *Resolver) decide(ctx context.Context, txn model.Transaction, rules []model.Rule, matches []rule.Match) *model.Classification {
	// User rules are an explicit override: confidence forced to 1.0 and the
	// oracle is never consulted.
	if userMatch := firstBySource(matches, model.RuleSourceUser); userMatch != nil {
		r.logger.Info("user rule matched",
			"transaction_id", txn.ID,
			"rule", userMatch.Rule.Name,
			"account", userMatch.Account)
		return &model.Classification{
			TransactionID: txn.ID,
			Account:       userMatch.Account,
			Confidence:    1.0,
			Source:        model.SourceRule,
			RuleID:        userMatch.Rule.ID,
			Rationale:     fmt.Sprintf("matched user rule %q", userMatch.Rule.Name),
		}
	}

	// The learned-rule scan and the oracle call are independent reads with
	// no shared mutable state; run the network-bound oracle call while the
	// in-memory match result is inspected.
	oracleCh := make(chan oracleOutcome, 1)
	go func() {
		result, err := r.oracle.Classify(ctx, txn, r.chart, rules)
		oracleCh <- oracleOutcome{result: result, err: err}
	}()

	learned := firstBySource(matches, model.RuleSourceLearned)

	outcome := <-oracleCh
	if outcome.err != nil {
		if !oracle.IsUnavailable(outcome.err) {
			r.logger.Error("unexpected oracle error",
				"transaction_id", txn.ID,
				"error", outcome.err)
		} else {
			r.logger.Warn("oracle contributed no result",
				"transaction_id", txn.ID,
				"error", outcome.err)
		}
		return r.ruleOnly(txn, learned)
	}

	// Merge: oracle wins when its confidence reaches the best learned
	// rule's, or when no learned rule matched at all.
	if learned == nil || outcome.result.Confidence >= learned.Confidence {
		return &model.Classification{
			TransactionID: txn.ID,
			Account:       outcome.result.Account,
			Confidence:    outcome.result.Confidence,
			Source:        model.SourceAI,
			Rationale:     outcome.result.Rationale,
		}
	}

	return &model.Classification{
		TransactionID: txn.ID,
		Account:       learned.Account,
		Confidence:    learned.Confidence,
		Source:        model.SourceRule,
		RuleID:        learned.Rule.ID,
		Rationale:     fmt.Sprintf("matched learned rule %q", learned.Rule.Name),
	}
}

// ruleOnly is the degradation path when the oracle contributes nothing.
func (r *Resolver) ruleOnly(txn model.Transaction, learned *rule.Match) *model.Classification {
	if learned != nil {
		return &model.Classification{
			TransactionID: txn.ID,
			Account:       learned.Account,
			Confidence:    learned.Confidence,
			Source:        model.SourceRule,
			RuleID:        learned.Rule.ID,
			Rationale:     fmt.Sprintf("matched learned rule %q", learned.Rule.Name),
		}
	}

	// The system always returns something usable; a low-confidence default
	// classification flags the transaction for user attention downstream.
	r.logger.Warn("falling back to default account",
		"transaction_id", txn.ID,
		"peer", txn.Peer,
		"account", r.chart.DefaultAccount)
	return &model.Classification{
		TransactionID: txn.ID,
		Account:       r.chart.DefaultAccount,
		Confidence:    0.0,
		Source:        model.SourceRule,
		Rationale:     "no rule matched and no oracle result; assigned default account",
	}
}

// firstBySource returns the highest-precedence match with the given source.
// Matches arrive already ordered, so the first hit wins.
func firstBySource(matches []rule.Match, source model.RuleSource) *rule.Match {
	for i := range matches {
		if matches[i].Rule.Source == source {
			return &matches[i]
		}
	}
	return nil
}
