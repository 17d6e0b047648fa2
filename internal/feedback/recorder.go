// Package feedback records user verdicts on classifications and learns
// rules from the accumulated corrections.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/beanflow/beanflow/internal/common"
	"github.com/beanflow/beanflow/internal/model"
	"github.com/beanflow/beanflow/internal/service"
)

// Recorder appends user feedback to the feedback log. Feedback is never
// merged or deduplicated; every correction is a distinct fact.
type Recorder struct {
	storage service.Storage
	chart   model.Chart
	logger  *slog.Logger
}

// NewRecorder creates a feedback recorder.
func NewRecorder(storage service.Storage, chart model.Chart, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		storage: storage,
		chart:   chart,
		logger:  logger,
	}
}

// Record appends one feedback record. The transaction must already have a
// classification. A modify additionally appends a user-override
// classification so the corrected account becomes current immediately,
// without waiting for rule synthesis.
func (r *Recorder) Record(ctx context.Context, transactionID, originalAccount, correctedAccount string, action model.FeedbackAction) (*model.Feedback, error) {
	current, err := r.storage.GetCurrentClassification(ctx, transactionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: transaction %s has no classification", common.ErrFeedbackIntegrity, transactionID)
		}
		return nil, fmt.Errorf("failed to load current classification: %w", err)
	}

	if originalAccount == "" {
		originalAccount = current.Account
	}

	if action == model.ActionModify {
		if correctedAccount == "" {
			return nil, fmt.Errorf("%w: modify requires a corrected account", common.ErrFeedbackIntegrity)
		}
		if !r.chart.Contains(correctedAccount) {
			return nil, fmt.Errorf("%w: account %q is not in the chart of accounts",
				common.ErrFeedbackIntegrity, correctedAccount)
		}
	}

	fb := &model.Feedback{
		ID:               uuid.NewString(),
		TransactionID:    transactionID,
		OriginalAccount:  originalAccount,
		CorrectedAccount: correctedAccount,
		Action:           action,
	}

	if err := r.storage.SaveFeedback(ctx, fb); err != nil {
		return nil, err
	}

	if action == model.ActionModify {
		override := &model.Classification{
			TransactionID: transactionID,
			Account:       correctedAccount,
			Confidence:    1.0,
			Source:        model.SourceUserOverride,
			Rationale:     "corrected by user",
		}
		if err := r.storage.SaveClassification(ctx, override); err != nil {
			return nil, fmt.Errorf("failed to apply correction: %w", err)
		}
	}

	r.logger.Info("recorded feedback",
		"transaction_id", transactionID,
		"action", action,
		"original", originalAccount,
		"corrected", correctedAccount)

	return fb, nil
}
