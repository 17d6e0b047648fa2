package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/beanflow/beanflow/internal/common"
	"github.com/beanflow/beanflow/internal/model"
)

// SaveFeedback appends a feedback record. Feedback must reference a
// transaction that already has a classification; anything else is a
// data-integrity problem and is rejected, not silently dropped.
func (s *SQLiteStorage) SaveFeedback(ctx context.Context, f *model.Feedback) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateFeedback(f); err != nil {
		return err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM classifications WHERE transaction_id = ?",
		f.TransactionID).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to verify classification: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: transaction %s", common.ErrFeedbackIntegrity, f.TransactionID)
	}

	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (id, transaction_id, original_account, corrected_account, action, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, f.ID, f.TransactionID, f.OriginalAccount, f.CorrectedAccount, string(f.Action), f.CreatedAt); err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}

	return nil
}

// ListFeedback retrieves feedback records, oldest first. If since is
// non-nil only records created at or after it are returned.
func (s *SQLiteStorage) ListFeedback(ctx context.Context, since *time.Time) ([]model.Feedback, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, transaction_id, original_account, corrected_account, action, created_at
		FROM feedback
	`
	var args []any
	if since != nil {
		query += " WHERE created_at >= ?"
		args = append(args, *since)
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var feedback []model.Feedback
	for rows.Next() {
		var f model.Feedback
		var original, corrected sql.NullString
		var action string

		if err := rows.Scan(&f.ID, &f.TransactionID, &original, &corrected, &action, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}

		f.OriginalAccount = original.String
		f.CorrectedAccount = corrected.String
		f.Action = model.FeedbackAction(action)
		feedback = append(feedback, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback: %w", err)
	}

	return feedback, nil
}
