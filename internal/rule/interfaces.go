// Package rule evaluates transactions against user-defined and learned
// classification rules.
package rule

import (
	"context"

	"github.com/beanflow/beanflow/internal/model"
)

// Match is a single rule that applies to a transaction, with the account
// and confidence it would assign.
type Match struct {
	Rule       model.Rule
	Account    string
	Confidence float64
}

// Matcher evaluates transactions against a set of rules.
type Matcher interface {
	// Match returns all active rules whose every condition holds for txn,
	// ordered by precedence: user rules before learned, then confidence
	// descending, then most recently updated first.
	Match(ctx context.Context, txn model.Transaction, rules []model.Rule) ([]Match, error)
}
