package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/beanflow/beanflow/internal/model"
)

// Validation errors.
var (
	ErrNilContext            = errors.New("context cannot be nil")
	ErrEmptyString           = errors.New("string parameter cannot be empty")
	ErrNilParameter          = errors.New("parameter cannot be nil")
	ErrEmptySlice            = errors.New("slice cannot be empty")
	ErrInvalidTransaction    = errors.New("invalid transaction")
	ErrInvalidClassification = errors.New("invalid classification")
	ErrInvalidFeedback       = errors.New("invalid feedback")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.Peer == "" && txn.Item == "" {
		return fmt.Errorf("%w: needs a peer or an item", ErrInvalidTransaction)
	}
	if txn.Time.IsZero() {
		return fmt.Errorf("%w: missing time", ErrInvalidTransaction)
	}
	return nil
}

// validateClassification validates a classification before persisting.
func validateClassification(c *model.Classification) error {
	if c == nil {
		return fmt.Errorf("%w: classification", ErrNilParameter)
	}
	if c.TransactionID == "" {
		return fmt.Errorf("%w: missing transaction ID", ErrInvalidClassification)
	}
	if c.Account == "" {
		return fmt.Errorf("%w: missing account", ErrInvalidClassification)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("%w: confidence %f out of range", ErrInvalidClassification, c.Confidence)
	}
	switch c.Source {
	case model.SourceRule, model.SourceAI, model.SourceUserOverride:
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidClassification, c.Source)
	}
	return nil
}

// validateFeedback validates a feedback record before persisting.
func validateFeedback(f *model.Feedback) error {
	if f == nil {
		return fmt.Errorf("%w: feedback", ErrNilParameter)
	}
	if f.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidFeedback)
	}
	if f.TransactionID == "" {
		return fmt.Errorf("%w: missing transaction ID", ErrInvalidFeedback)
	}
	switch f.Action {
	case model.ActionAccept, model.ActionReject, model.ActionModify:
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidFeedback, f.Action)
	}
	return nil
}
