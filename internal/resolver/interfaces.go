package resolver

import (
	"context"

	"github.com/beanflow/beanflow/internal/model"
	"github.com/beanflow/beanflow/internal/oracle"
	"github.com/beanflow/beanflow/internal/rule"
)

// Oracle is the classification capability the resolver degrades gracefully
// around. Implementations must return ErrSchemaViolation or
// ErrOracleUnavailable (wrapped) for recoverable per-transaction failures.
type Oracle interface {
	Classify(ctx context.Context, txn model.Transaction, chart model.Chart, contextRules []model.Rule) (oracle.Result, error)
}

// Matcher evaluates transactions against rules. Satisfied by rule.Matcher.
type Matcher interface {
	Match(ctx context.Context, txn model.Transaction, rules []model.Rule) ([]rule.Match, error)
}
