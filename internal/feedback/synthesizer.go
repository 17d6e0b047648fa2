package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/beanflow/beanflow/internal/common"
	"github.com/beanflow/beanflow/internal/model"
	"github.com/beanflow/beanflow/internal/service"
)

// SynthesizerConfig tunes rule learning.
type SynthesizerConfig struct {
	// SupportThreshold is the minimum number of consistent corrections for
	// one peer before a learned rule is emitted.
	SupportThreshold int
	// ConfidenceCap bounds learned-rule confidence strictly below 1.0 so a
	// learned rule can never outrank a user rule.
	ConfidenceCap float64
}

// DefaultSynthesizerConfig returns the default learning parameters.
func DefaultSynthesizerConfig() SynthesizerConfig {
	return SynthesizerConfig{
		SupportThreshold: 3,
		ConfidenceCap:    0.95,
	}
}

// Synthesizer converts accumulated feedback into learned rules. It runs as
// a batch operation, not per transaction.
type Synthesizer struct {
	storage service.Storage
	logger  *slog.Logger
	cfg     SynthesizerConfig
}

// NewSynthesizer creates a rule synthesizer.
func NewSynthesizer(storage service.Storage, cfg SynthesizerConfig, logger *slog.Logger) *Synthesizer {
	if cfg.SupportThreshold <= 0 {
		cfg.SupportThreshold = 3
	}
	if cfg.ConfidenceCap <= 0 || cfg.ConfidenceCap >= 1 {
		cfg.ConfidenceCap = 0.95
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		storage: storage,
		cfg:     cfg,
		logger:  logger,
	}
}

// peerGroup accumulates corrections for one counterparty.
type peerGroup struct {
	byAccount  map[string]int
	categories map[string]int
	total      int
}

// Synthesize reads feedback recorded since the given time (all feedback if
// nil), groups corrections by peer, and emits a learned rule for every peer
// whose corrections reach the support threshold with no conflicting
// corrections in the window. A learned rule that conflicts with an existing
// active learned rule supersedes it; user rules are never touched.
func (s *Synthesizer) Synthesize(ctx context.Context, since *time.Time) ([]model.Rule, error) {
	records, err := s.storage.ListFeedback(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}

	groups := make(map[string]*peerGroup)

	for _, fb := range records {
		if fb.Action != model.ActionModify || fb.CorrectedAccount == "" {
			continue
		}

		txn, err := s.storage.GetTransaction(ctx, fb.TransactionID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				s.logger.Warn("feedback references missing transaction",
					"feedback_id", fb.ID,
					"transaction_id", fb.TransactionID)
				continue
			}
			return nil, err
		}
		if txn.Peer == "" {
			continue
		}

		g, ok := groups[txn.Peer]
		if !ok {
			g = &peerGroup{
				byAccount:  make(map[string]int),
				categories: make(map[string]int),
			}
			groups[txn.Peer] = g
		}
		g.total++
		g.byAccount[fb.CorrectedAccount]++
		if txn.Category != "" {
			g.categories[txn.Category]++
		}
	}

	existing, err := s.storage.ListActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	var emitted []model.Rule
	for peer, g := range groups {
		account, support := dominantAccount(g.byAccount)

		// Conflicting corrections for the same peer in the window mean the
		// user has not settled on an account; do not learn anything yet.
		if support < g.total {
			s.logger.Debug("skipping peer with conflicting corrections",
				"peer", peer,
				"support", support,
				"total", g.total)
			continue
		}
		if support < s.cfg.SupportThreshold {
			continue
		}

		r := s.buildRule(peer, account, g, support)

		if err := s.supersedeConflicts(ctx, existing, r); err != nil {
			return nil, err
		}

		if err := s.storage.SaveRule(ctx, &r); err != nil {
			return nil, fmt.Errorf("failed to save learned rule: %w", err)
		}

		s.logger.Info("synthesized learned rule",
			"peer", peer,
			"account", account,
			"support", support,
			"confidence", r.Confidence)

		emitted = append(emitted, r)
	}

	return emitted, nil
}

// buildRule derives a learned rule from a peer group. Confidence grows with
// support and scales by the consistency ratio, capped strictly below 1.0.
func (s *Synthesizer) buildRule(peer, account string, g *peerGroup, support int) model.Rule {
	consistency := float64(support) / float64(g.total)
	confidence := consistency * float64(support) / float64(support+1)
	if confidence > s.cfg.ConfidenceCap {
		confidence = s.cfg.ConfidenceCap
	}

	conditions := []model.Condition{
		{Field: model.FieldPeer, Operator: model.OpEquals, Value: peer},
	}
	if category, n := dominantAccount(g.categories); n == g.total && category != "" {
		// Every correction in the group shares one category hint; make the
		// rule that much more specific.
		conditions = append(conditions, model.Condition{
			Field:    model.FieldCategory,
			Operator: model.OpEquals,
			Value:    category,
		})
	}

	return model.Rule{
		ID:         uuid.NewString(),
		Name:       fmt.Sprintf("learned: %s -> %s", peer, account),
		Conditions: conditions,
		Account:    account,
		Confidence: confidence,
		Source:     model.RuleSourceLearned,
		IsActive:   true,
	}
}

// supersedeConflicts deactivates active learned rules whose conditions
// duplicate the new rule. The newer synthesis wins; keeping both would
// leave the matcher with an ambiguous duplicate.
func (s *Synthesizer) supersedeConflicts(ctx context.Context, existing []model.Rule, newRule model.Rule) error {
	for _, old := range existing {
		if old.Source != model.RuleSourceLearned || !old.IsActive {
			continue
		}
		if !sameConditions(old.Conditions, newRule.Conditions) {
			continue
		}

		if err := s.storage.DeactivateRule(ctx, old.ID); err != nil {
			return fmt.Errorf("failed to supersede rule %s: %w", old.ID, err)
		}
		s.logger.Info("superseded learned rule",
			"old_rule", old.ID,
			"old_account", old.Account,
			"new_account", newRule.Account)
	}
	return nil
}

// dominantAccount returns the most frequent key and its count.
func dominantAccount(counts map[string]int) (string, int) {
	var best string
	var bestN int
	for k, n := range counts {
		if n > bestN || (n == bestN && k < best) {
			best, bestN = k, n
		}
	}
	return best, bestN
}

// sameConditions reports whether two condition sets are equivalent,
// ignoring order.
func sameConditions(a, b []model.Condition) bool {
	if len(a) != len(b) {
		return false
	}
	matched := make([]bool, len(b))
	for _, ca := range a {
		found := false
		for i, cb := range b {
			if matched[i] {
				continue
			}
			if ca.Field == cb.Field && ca.Operator == cb.Operator && ca.Value == cb.Value {
				matched[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
