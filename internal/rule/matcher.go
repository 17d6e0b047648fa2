package rule

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/beanflow/beanflow/internal/common"
	"github.com/beanflow/beanflow/internal/model"
)

// MatcherImpl implements Matcher for evaluating rule conditions.
type MatcherImpl struct{}

// NewMatcher creates a new rule matcher.
func NewMatcher() *MatcherImpl {
	return &MatcherImpl{}
}

// Match evaluates a transaction against the given rules and returns matches
// in precedence order. A malformed rule surfaces an error rather than being
// skipped: a corrupt rule must not fail open.
func (m *MatcherImpl) Match(_ context.Context, txn model.Transaction, rules []model.Rule) ([]Match, error) {
	var matches []Match

	for _, r := range rules {
		if !r.IsActive {
			continue
		}

		ok, err := matchesRule(txn, r)
		if err != nil {
			return nil, fmt.Errorf("rule %s (%s): %w", r.ID, r.Name, err)
		}
		if ok {
			matches = append(matches, Match{
				Rule:       r,
				Account:    r.Account,
				Confidence: model.ClampConfidence(r.Confidence),
			})
		}
	}

	sortByPrecedence(matches)

	return matches, nil
}

// matchesRule reports whether every condition of the rule holds for txn.
func matchesRule(txn model.Transaction, r model.Rule) (bool, error) {
	if len(r.Conditions) == 0 {
		return false, fmt.Errorf("%w: rule has no conditions", common.ErrInvalidRule)
	}

	for _, cond := range r.Conditions {
		ok, err := matchesCondition(txn, cond)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	return true, nil
}

func matchesCondition(txn model.Transaction, cond model.Condition) (bool, error) {
	switch cond.Field {
	case model.FieldPeer:
		return matchesText(txn.Peer, cond)
	case model.FieldItem:
		return matchesText(txn.Item, cond)
	case model.FieldCategory:
		return matchesText(txn.Category, cond)
	case model.FieldType:
		return matchesText(string(txn.Type), cond)
	case model.FieldAmount:
		return matchesRange(txn.Amount, cond)
	case model.FieldTimeOfDay:
		minutes := float64(txn.Time.Hour()*60 + txn.Time.Minute())
		return matchesRange(minutes, cond)
	default:
		return false, fmt.Errorf("%w: unknown condition field %q", common.ErrInvalidRule, cond.Field)
	}
}

// matchesText applies eq or in to a text field (case-insensitive).
func matchesText(value string, cond model.Condition) (bool, error) {
	switch cond.Operator {
	case model.OpEquals:
		if cond.Value == "" {
			return false, fmt.Errorf("%w: eq condition on %q has empty value", common.ErrInvalidRule, cond.Field)
		}
		return strings.EqualFold(value, cond.Value), nil
	case model.OpIn:
		if len(cond.Values) == 0 {
			return false, fmt.Errorf("%w: in condition on %q has empty value set", common.ErrInvalidRule, cond.Field)
		}
		for _, v := range cond.Values {
			if strings.EqualFold(value, v) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("%w: operator %q not valid for text field %q", common.ErrInvalidRule, cond.Operator, cond.Field)
	}
}

// matchesRange applies inclusive range containment to a numeric field.
func matchesRange(value float64, cond model.Condition) (bool, error) {
	if cond.Operator != model.OpRange {
		return false, fmt.Errorf("%w: operator %q not valid for numeric field %q", common.ErrInvalidRule, cond.Operator, cond.Field)
	}
	if cond.Min == nil && cond.Max == nil {
		return false, fmt.Errorf("%w: range condition on %q has no bounds", common.ErrInvalidRule, cond.Field)
	}
	if cond.Min != nil && value < *cond.Min {
		return false, nil
	}
	if cond.Max != nil && value > *cond.Max {
		return false, nil
	}
	return true, nil
}

// sortByPrecedence orders matches: user rules first, then confidence
// descending, then most recently updated.
func sortByPrecedence(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i].Rule, matches[j].Rule
		if a.Source != b.Source {
			return a.Source == model.RuleSourceUser
		}
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	})
}
