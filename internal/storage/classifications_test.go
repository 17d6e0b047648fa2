package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanflow/beanflow/internal/common"
	"github.com/beanflow/beanflow/internal/model"
	"github.com/beanflow/beanflow/internal/testutil"
)

func TestSaveClassificationSupersedesPrior(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	txn := testutil.Txn()
	db.SeedTransactions(txn)

	first := model.Classification{
		TransactionID: txn.ID,
		Account:       "Expenses:Dining",
		Confidence:    0.8,
		Source:        model.SourceAI,
		Rationale:     "coffee shop",
	}
	require.NoError(t, db.Storage.SaveClassification(ctx, &first))
	assert.True(t, first.IsCurrent)

	second := model.Classification{
		TransactionID: txn.ID,
		Account:       "Expenses:Groceries",
		Confidence:    1.0,
		Source:        model.SourceUserOverride,
	}
	require.NoError(t, db.Storage.SaveClassification(ctx, &second))

	current, err := db.Storage.GetCurrentClassification(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "Expenses:Groceries", current.Account)
	assert.Equal(t, model.SourceUserOverride, current.Source)

	history, err := db.Storage.ListClassificationHistory(ctx, txn.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	currentCount := 0
	for _, c := range history {
		if c.IsCurrent {
			currentCount++
		}
	}
	assert.Equal(t, 1, currentCount, "exactly one classification may be current")
}

func TestSaveClassificationRequiresTransaction(t *testing.T) {
	db := testutil.SetupTestDB(t)

	err := db.Storage.SaveClassification(context.Background(), &model.Classification{
		TransactionID: "ghost",
		Account:       "Expenses:Dining",
		Confidence:    0.5,
		Source:        model.SourceAI,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSaveClassificationValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	txn := testutil.Txn()
	db.SeedTransactions(txn)

	tests := []struct {
		name string
		c    model.Classification
	}{
		{
			name: "missing account",
			c:    model.Classification{TransactionID: txn.ID, Confidence: 0.5, Source: model.SourceAI},
		},
		{
			name: "confidence out of range",
			c:    model.Classification{TransactionID: txn.ID, Account: "X", Confidence: 1.5, Source: model.SourceAI},
		},
		{
			name: "unknown source",
			c:    model.Classification{TransactionID: txn.ID, Account: "X", Confidence: 0.5, Source: "oracle"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, db.Storage.SaveClassification(ctx, &tt.c))
		})
	}
}

func TestGetCurrentClassificationNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)

	txn := testutil.Txn()
	db.SeedTransactions(txn)

	_, err := db.Storage.GetCurrentClassification(context.Background(), txn.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListCurrentClassifications(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	txns := testutil.Txns(3)
	db.SeedTransactions(txns...)

	for _, txn := range txns[:2] {
		require.NoError(t, db.Storage.SaveClassification(ctx, &model.Classification{
			TransactionID: txn.ID,
			Account:       "Expenses:Dining",
			Confidence:    0.7,
			Source:        model.SourceRule,
		}))
	}

	current, err := db.Storage.ListCurrentClassifications(ctx)
	require.NoError(t, err)
	assert.Len(t, current, 2)
}
