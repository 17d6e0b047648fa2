package oracle

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanflow/beanflow/internal/model"
)

func promptTxn() model.Transaction {
	return model.Transaction{
		ID:       "txn-1",
		Time:     time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC),
		Peer:     "Corner Coffee",
		Item:     "latte",
		Category: "Dining",
		Type:     model.TypeExpense,
		Amount:   28.50,
		Currency: "CNY",
	}
}

func peerRule(name, peer string, confidence float64) model.Rule {
	return model.Rule{
		ID:   name,
		Name: name,
		Conditions: []model.Condition{
			{Field: model.FieldPeer, Operator: model.OpEquals, Value: peer},
		},
		Account:    "Expenses:Dining",
		Confidence: confidence,
		Source:     model.RuleSourceLearned,
		IsActive:   true,
	}
}

func TestSelectContextRulesPrefersSamePeer(t *testing.T) {
	rules := []model.Rule{
		peerRule("other-high", "Some Mall", 0.95),
		peerRule("same-peer-low", "Corner Coffee", 0.3),
	}

	selected := SelectContextRules(promptTxn(), rules, 10)
	require.NotEmpty(t, selected)
	assert.Equal(t, "same-peer-low", selected[0].Name,
		"a rule on the transaction's own peer outranks a higher-confidence stranger")
}

func TestSelectContextRulesHonorsLimit(t *testing.T) {
	var rules []model.Rule
	for i := 0; i < 25; i++ {
		rules = append(rules, peerRule(fmt.Sprintf("r%d", i), fmt.Sprintf("Peer %d", i), 0.5))
	}

	selected := SelectContextRules(promptTxn(), rules, 10)
	assert.Len(t, selected, 10)

	selected = SelectContextRules(promptTxn(), rules, 0)
	assert.Len(t, selected, defaultContextCap, "non-positive limit falls back to the default cap")
}

func TestSelectContextRulesSkipsInactive(t *testing.T) {
	r := peerRule("dormant", "Corner Coffee", 0.9)
	r.IsActive = false

	selected := SelectContextRules(promptTxn(), []model.Rule{r}, 10)
	assert.Empty(t, selected)
}

func TestBuildPrompt(t *testing.T) {
	chart := model.Chart{
		DefaultAccount: "Expenses:Uncategorized",
		Accounts:       []string{"Expenses:Dining", "Expenses:Uncategorized"},
	}
	rules := []model.Rule{peerRule("coffee", "Corner Coffee", 0.8)}

	prompt := BuildPrompt(promptTxn(), chart, rules)

	assert.Contains(t, prompt, "Expenses:Dining")
	assert.Contains(t, prompt, "Corner Coffee")
	assert.Contains(t, prompt, "latte")
	assert.Contains(t, prompt, "28.50 CNY")
	assert.Contains(t, prompt, `"account"`)
	assert.Contains(t, prompt, "coffee: peer=Corner Coffee -> Expenses:Dining")
}

func TestBuildPromptWithoutRules(t *testing.T) {
	chart := model.Chart{Accounts: []string{"Expenses:Dining"}}

	prompt := BuildPrompt(promptTxn(), chart, nil)
	assert.True(t, strings.Contains(prompt, "(none)"))
}
