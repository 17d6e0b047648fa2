package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/beanflow/beanflow/internal/model"
)

// Txn builds a plausible transaction with overridable fields.
func Txn(overrides ...func(*model.Transaction)) model.Transaction {
	txn := model.Transaction{
		ID:       uuid.NewString(),
		Time:     time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC),
		Peer:     "Corner Coffee",
		Item:     "latte",
		Category: "Dining",
		Type:     model.TypeExpense,
		Amount:   28.50,
		Currency: "CNY",
		Provider: "alipay",
	}
	for _, o := range overrides {
		o(&txn)
	}
	txn.Hash = txn.GenerateHash()
	return txn
}

// WithPeer overrides the counterparty.
func WithPeer(peer string) func(*model.Transaction) {
	return func(t *model.Transaction) { t.Peer = peer }
}

// WithAmount overrides the amount.
func WithAmount(amount float64) func(*model.Transaction) {
	return func(t *model.Transaction) { t.Amount = amount }
}

// WithTime overrides the timestamp.
func WithTime(ts time.Time) func(*model.Transaction) {
	return func(t *model.Transaction) { t.Time = ts }
}

// WithCategory overrides the provider category hint.
func WithCategory(category string) func(*model.Transaction) {
	return func(t *model.Transaction) { t.Category = category }
}

// Txns builds n distinct transactions.
func Txns(n int) []model.Transaction {
	out := make([]model.Transaction, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Txn(
			WithPeer(fmt.Sprintf("Merchant %d", i)),
			WithAmount(float64(10+i)),
		))
	}
	return out
}

// UserRule builds an active user rule matching the given peer.
func UserRule(name, peer, account string) model.Rule {
	return model.Rule{
		ID:   uuid.NewString(),
		Name: name,
		Conditions: []model.Condition{
			{Field: model.FieldPeer, Operator: model.OpEquals, Value: peer},
		},
		Account:    account,
		Confidence: 1.0,
		Source:     model.RuleSourceUser,
		IsActive:   true,
	}
}

// LearnedRule builds an active learned rule matching the given peer.
func LearnedRule(name, peer, account string, confidence float64) model.Rule {
	return model.Rule{
		ID:   uuid.NewString(),
		Name: name,
		Conditions: []model.Condition{
			{Field: model.FieldPeer, Operator: model.OpEquals, Value: peer},
		},
		Account:    account,
		Confidence: confidence,
		Source:     model.RuleSourceLearned,
		IsActive:   true,
	}
}

// Chart builds a small chart of accounts for tests.
func Chart() model.Chart {
	return model.Chart{
		DefaultAccount: "Expenses:Uncategorized",
		Accounts: []string{
			"Expenses:Dining",
			"Expenses:Groceries",
			"Expenses:Transport",
			"Income:Salary",
			"Expenses:Uncategorized",
		},
	}
}
