// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/beanflow/beanflow/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Provider  string
	Limit     int
	Offset    int
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionsToResolve(ctx context.Context) ([]model.Transaction, error)

	// Rule operations
	SaveRule(ctx context.Context, rule *model.Rule) error
	GetRule(ctx context.Context, id string) (*model.Rule, error)
	ListActiveRules(ctx context.Context) ([]model.Rule, error)
	DeactivateRule(ctx context.Context, id string) error

	// Classification operations
	SaveClassification(ctx context.Context, classification *model.Classification) error
	GetCurrentClassification(ctx context.Context, transactionID string) (*model.Classification, error)
	ListClassificationHistory(ctx context.Context, transactionID string) ([]model.Classification, error)
	ListCurrentClassifications(ctx context.Context) ([]model.Classification, error)

	// Feedback operations
	SaveFeedback(ctx context.Context, feedback *model.Feedback) error
	ListFeedback(ctx context.Context, since *time.Time) ([]model.Feedback, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// CompletionStats shows the results of a resolution run.
type CompletionStats struct {
	TotalTransactions int
	ByRule            int
	ByOracle          int
	Fallback          int
	Duration          time.Duration
}
