package feedback_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanflow/beanflow/internal/common"
	"github.com/beanflow/beanflow/internal/feedback"
	"github.com/beanflow/beanflow/internal/model"
	"github.com/beanflow/beanflow/internal/service"
	"github.com/beanflow/beanflow/internal/testutil"
)

func setupRecorder(t *testing.T) (*testutil.TestDB, *feedback.Recorder, model.Transaction) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	recorder := feedback.NewRecorder(db.Storage, testutil.Chart(), nil)

	txn := testutil.Txn()
	db.SeedTransactions(txn)
	require.NoError(t, db.Storage.SaveClassification(context.Background(), &model.Classification{
		TransactionID: txn.ID,
		Account:       "Expenses:Dining",
		Confidence:    0.8,
		Source:        model.SourceAI,
	}))

	return db, recorder, txn
}

func TestRecordAccept(t *testing.T) {
	db, recorder, txn := setupRecorder(t)
	ctx := context.Background()

	fb, err := recorder.Record(ctx, txn.ID, "", "", model.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, model.ActionAccept, fb.Action)
	assert.Equal(t, "Expenses:Dining", fb.OriginalAccount,
		"original account defaults to the current classification")

	// Accepting must not disturb the current classification.
	current, err := db.Storage.GetCurrentClassification(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "Expenses:Dining", current.Account)
	assert.Equal(t, model.SourceAI, current.Source)
}

func TestRecordModifyAppliesCorrectionImmediately(t *testing.T) {
	db, recorder, txn := setupRecorder(t)
	ctx := context.Background()

	fb, err := recorder.Record(ctx, txn.ID, "", "Expenses:Groceries", model.ActionModify)
	require.NoError(t, err)
	assert.Equal(t, "Expenses:Groceries", fb.CorrectedAccount)

	current, err := db.Storage.GetCurrentClassification(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "Expenses:Groceries", current.Account)
	assert.Equal(t, model.SourceUserOverride, current.Source)
	assert.Equal(t, 1.0, current.Confidence)

	history, err := db.Storage.ListClassificationHistory(ctx, txn.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2, "the original classification is kept as history")
}

func TestRecordModifyRejectsUnknownAccount(t *testing.T) {
	_, recorder, txn := setupRecorder(t)

	_, err := recorder.Record(context.Background(), txn.ID, "", "Expenses:Invented", model.ActionModify)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrFeedbackIntegrity)
}

func TestRecordModifyRequiresCorrectedAccount(t *testing.T) {
	_, recorder, txn := setupRecorder(t)

	_, err := recorder.Record(context.Background(), txn.ID, "", "", model.ActionModify)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrFeedbackIntegrity)
}

func TestRecordRequiresExistingClassification(t *testing.T) {
	db := testutil.SetupTestDB(t)
	recorder := feedback.NewRecorder(db.Storage, testutil.Chart(), nil)

	txn := testutil.Txn()
	db.SeedTransactions(txn)

	_, err := recorder.Record(context.Background(), txn.ID, "", "", model.ActionAccept)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrFeedbackIntegrity)
}

// failingClassificationStorage simulates a store-level failure on the
// current-classification lookup.
type failingClassificationStorage struct {
	service.Storage
	err error
}

func (s *failingClassificationStorage) GetCurrentClassification(_ context.Context, _ string) (*model.Classification, error) {
	return nil, s.err
}

func TestRecordSurfacesStorageFailureUnmasked(t *testing.T) {
	db := testutil.SetupTestDB(t)
	storeErr := errors.New("database is locked")
	recorder := feedback.NewRecorder(
		&failingClassificationStorage{Storage: db.Storage, err: storeErr},
		testutil.Chart(), nil)

	txn := testutil.Txn()
	db.SeedTransactions(txn)

	_, err := recorder.Record(context.Background(), txn.ID, "", "", model.ActionAccept)
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr, "store failures pass through")
	assert.NotErrorIs(t, err, common.ErrFeedbackIntegrity,
		"only a missing classification is an integrity violation")
}
