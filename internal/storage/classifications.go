package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/beanflow/beanflow/internal/common"
	"github.com/beanflow/beanflow/internal/model"
)

// SaveClassification appends a classification and marks it current for its
// transaction. The prior current classification is retained as history, not
// deleted. Both steps happen in one database transaction so there is never
// a moment with zero or two current rows.
func (s *SQLiteStorage) SaveClassification(ctx context.Context, c *model.Classification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateClassification(c); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Verify the transaction exists
	var count int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE id = ?", c.TransactionID).Scan(&count); err != nil {
		return fmt.Errorf("failed to verify transaction: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("transaction %s: %w", c.TransactionID, common.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE classifications SET is_current = 0 WHERE transaction_id = ? AND is_current = 1",
		c.TransactionID); err != nil {
		return fmt.Errorf("failed to supersede prior classification: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO classifications (transaction_id, account, confidence, source, rationale, rule_id, is_current, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, CURRENT_TIMESTAMP)
	`, c.TransactionID, c.Account, c.Confidence, string(c.Source), c.Rationale, c.RuleID); err != nil {
		return fmt.Errorf("failed to save classification: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit classification: %w", err)
	}

	c.IsCurrent = true

	return nil
}

// GetCurrentClassification retrieves the current classification for a transaction.
func (s *SQLiteStorage) GetCurrentClassification(ctx context.Context, transactionID string) (*model.Classification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT transaction_id, account, confidence, source, rationale, rule_id, is_current, created_at
		FROM classifications
		WHERE transaction_id = ? AND is_current = 1
	`, transactionID)

	c, err := scanClassification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("classification for %s: %w", transactionID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get classification: %w", err)
	}

	return c, nil
}

// ListClassificationHistory retrieves all classifications for a transaction,
// newest first.
func (s *SQLiteStorage) ListClassificationHistory(ctx context.Context, transactionID string) ([]model.Classification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return nil, err
	}

	return s.queryClassifications(ctx, `
		SELECT transaction_id, account, confidence, source, rationale, rule_id, is_current, created_at
		FROM classifications
		WHERE transaction_id = ?
		ORDER BY created_at DESC, id DESC
	`, transactionID)
}

// ListCurrentClassifications retrieves the current classification for every
// classified transaction.
func (s *SQLiteStorage) ListCurrentClassifications(ctx context.Context) ([]model.Classification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.queryClassifications(ctx, `
		SELECT transaction_id, account, confidence, source, rationale, rule_id, is_current, created_at
		FROM classifications
		WHERE is_current = 1
		ORDER BY created_at ASC
	`)
}

func (s *SQLiteStorage) queryClassifications(ctx context.Context, query string, args ...any) ([]model.Classification, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query classifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var classifications []model.Classification
	for rows.Next() {
		c, err := scanClassification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan classification: %w", err)
		}
		classifications = append(classifications, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating classifications: %w", err)
	}

	return classifications, nil
}

func scanClassification(row scanner) (*model.Classification, error) {
	var c model.Classification
	var source string
	var rationale, ruleID sql.NullString

	if err := row.Scan(
		&c.TransactionID, &c.Account, &c.Confidence, &source,
		&rationale, &ruleID, &c.IsCurrent, &c.CreatedAt,
	); err != nil {
		return nil, err
	}

	c.Source = model.ClassificationSource(source)
	c.Rationale = rationale.String
	c.RuleID = ruleID.String

	return &c, nil
}
