package rule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanflow/beanflow/internal/common"
	"github.com/beanflow/beanflow/internal/model"
)

func floatPtr(f float64) *float64 { return &f }

func testTxn() model.Transaction {
	return model.Transaction{
		ID:       "txn-1",
		Time:     time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC),
		Peer:     "Corner Coffee",
		Item:     "latte",
		Category: "Dining",
		Type:     model.TypeExpense,
		Amount:   28.50,
		Currency: "CNY",
	}
}

func activeRule(name string, source model.RuleSource, confidence float64, conds ...model.Condition) model.Rule {
	return model.Rule{
		ID:         name,
		Name:       name,
		Account:    "Expenses:Dining",
		Conditions: conds,
		Confidence: confidence,
		Source:     source,
		IsActive:   true,
	}
}

func TestMatcherConditions(t *testing.T) {
	tests := []struct {
		name      string
		condition model.Condition
		wantMatch bool
	}{
		{
			name:      "peer equals case insensitive",
			condition: model.Condition{Field: model.FieldPeer, Operator: model.OpEquals, Value: "corner coffee"},
			wantMatch: true,
		},
		{
			name:      "peer equals mismatch",
			condition: model.Condition{Field: model.FieldPeer, Operator: model.OpEquals, Value: "Other Shop"},
			wantMatch: false,
		},
		{
			name:      "item membership",
			condition: model.Condition{Field: model.FieldItem, Operator: model.OpIn, Values: []string{"espresso", "latte"}},
			wantMatch: true,
		},
		{
			name:      "item membership miss",
			condition: model.Condition{Field: model.FieldItem, Operator: model.OpIn, Values: []string{"tea"}},
			wantMatch: false,
		},
		{
			name:      "type equals",
			condition: model.Condition{Field: model.FieldType, Operator: model.OpEquals, Value: "expense"},
			wantMatch: true,
		},
		{
			name:      "amount in range inclusive lower bound",
			condition: model.Condition{Field: model.FieldAmount, Operator: model.OpRange, Min: floatPtr(28.50), Max: floatPtr(100)},
			wantMatch: true,
		},
		{
			name:      "amount above range",
			condition: model.Condition{Field: model.FieldAmount, Operator: model.OpRange, Max: floatPtr(10)},
			wantMatch: false,
		},
		{
			name:      "amount open upper bound",
			condition: model.Condition{Field: model.FieldAmount, Operator: model.OpRange, Min: floatPtr(20)},
			wantMatch: true,
		},
		{
			name:      "time of day morning window",
			condition: model.Condition{Field: model.FieldTimeOfDay, Operator: model.OpRange, Min: floatPtr(6 * 60), Max: floatPtr(11 * 60)},
			wantMatch: true,
		},
		{
			name:      "time of day outside window",
			condition: model.Condition{Field: model.FieldTimeOfDay, Operator: model.OpRange, Min: floatPtr(18 * 60), Max: floatPtr(22 * 60)},
			wantMatch: false,
		},
	}

	m := NewMatcher()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := activeRule("r1", model.RuleSourceUser, 1.0, tt.condition)
			matches, err := m.Match(context.Background(), testTxn(), []model.Rule{r})
			require.NoError(t, err)
			if tt.wantMatch {
				require.Len(t, matches, 1)
				assert.Equal(t, "Expenses:Dining", matches[0].Account)
			} else {
				assert.Empty(t, matches)
			}
		})
	}
}

func TestMatcherAllConditionsMustHold(t *testing.T) {
	m := NewMatcher()
	r := activeRule("combo", model.RuleSourceUser, 1.0,
		model.Condition{Field: model.FieldPeer, Operator: model.OpEquals, Value: "Corner Coffee"},
		model.Condition{Field: model.FieldAmount, Operator: model.OpRange, Max: floatPtr(10)},
	)

	matches, err := m.Match(context.Background(), testTxn(), []model.Rule{r})
	require.NoError(t, err)
	assert.Empty(t, matches, "one failing condition must reject the rule")
}

func TestMatcherSkipsInactiveRules(t *testing.T) {
	m := NewMatcher()
	r := activeRule("dormant", model.RuleSourceUser, 1.0,
		model.Condition{Field: model.FieldPeer, Operator: model.OpEquals, Value: "Corner Coffee"})
	r.IsActive = false

	matches, err := m.Match(context.Background(), testTxn(), []model.Rule{r})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMatcherRejectsMalformedRules(t *testing.T) {
	m := NewMatcher()

	tests := []struct {
		name string
		rule model.Rule
	}{
		{
			name: "no conditions",
			rule: activeRule("empty", model.RuleSourceUser, 1.0),
		},
		{
			name: "unknown field",
			rule: activeRule("bad-field", model.RuleSourceUser, 1.0,
				model.Condition{Field: "merchant", Operator: model.OpEquals, Value: "x"}),
		},
		{
			name: "range without bounds",
			rule: activeRule("no-bounds", model.RuleSourceUser, 1.0,
				model.Condition{Field: model.FieldAmount, Operator: model.OpRange}),
		},
		{
			name: "range operator on text field",
			rule: activeRule("bad-op", model.RuleSourceUser, 1.0,
				model.Condition{Field: model.FieldPeer, Operator: model.OpRange, Min: floatPtr(1)}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Match(context.Background(), testTxn(), []model.Rule{tt.rule})
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidRule)
		})
	}
}

func TestMatcherPrecedenceOrdering(t *testing.T) {
	m := NewMatcher()
	peerCond := model.Condition{Field: model.FieldPeer, Operator: model.OpEquals, Value: "Corner Coffee"}

	lowLearned := activeRule("low", model.RuleSourceLearned, 0.4, peerCond)
	highLearned := activeRule("high", model.RuleSourceLearned, 0.9, peerCond)
	user := activeRule("user", model.RuleSourceUser, 0.5, peerCond)

	matches, err := m.Match(context.Background(), testTxn(), []model.Rule{lowLearned, highLearned, user})
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "user", matches[0].Rule.Name, "user rules outrank learned regardless of confidence")
	assert.Equal(t, "high", matches[1].Rule.Name)
	assert.Equal(t, "low", matches[2].Rule.Name)
}

func TestMatcherClampsConfidence(t *testing.T) {
	m := NewMatcher()
	r := activeRule("over", model.RuleSourceLearned, 1.7,
		model.Condition{Field: model.FieldPeer, Operator: model.OpEquals, Value: "Corner Coffee"})

	matches, err := m.Match(context.Background(), testTxn(), []model.Rule{r})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1.0, matches[0].Confidence)
}
