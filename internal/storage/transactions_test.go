package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanflow/beanflow/internal/common"
	"github.com/beanflow/beanflow/internal/model"
	"github.com/beanflow/beanflow/internal/service"
	"github.com/beanflow/beanflow/internal/testutil"
)

func TestSaveAndGetTransaction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	txn := testutil.Txn()
	txn.Raw = map[string]string{"交易状态": "交易成功"}
	db.SeedTransactions(txn)

	got, err := db.Storage.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.ID, got.ID)
	assert.Equal(t, txn.Peer, got.Peer)
	assert.Equal(t, txn.Hash, got.Hash)
	assert.Equal(t, txn.Type, got.Type)
	assert.InDelta(t, txn.Amount, got.Amount, 0.0001)
	assert.Equal(t, "交易成功", got.Raw["交易状态"])
}

func TestGetTransactionNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)

	_, err := db.Storage.GetTransaction(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSaveTransactionsDeduplicatesByHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	txn := testutil.Txn()
	db.SeedTransactions(txn)

	// Same content re-imported under a fresh ID must be ignored.
	dup := txn
	dup.ID = "second-import"
	require.NoError(t, db.Storage.SaveTransactions(ctx, []model.Transaction{dup}))

	all, err := db.Storage.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetTransactionsFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	jan := testutil.Txn(testutil.WithPeer("January"), testutil.WithTime(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	jun := testutil.Txn(testutil.WithPeer("June"), testutil.WithTime(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)))
	db.SeedTransactions(jan, jun)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	got, err := db.Storage.GetTransactions(ctx, service.TransactionFilter{StartDate: &start})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "June", got[0].Peer)
}

func TestGetTransactionsToResolve(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	classified := testutil.Txn(testutil.WithPeer("Done"))
	pending := testutil.Txn(testutil.WithPeer("Pending"))
	db.SeedTransactions(classified, pending)

	require.NoError(t, db.Storage.SaveClassification(ctx, &model.Classification{
		TransactionID: classified.ID,
		Account:       "Expenses:Dining",
		Confidence:    0.9,
		Source:        model.SourceAI,
	}))

	todo, err := db.Storage.GetTransactionsToResolve(ctx)
	require.NoError(t, err)
	require.Len(t, todo, 1)
	assert.Equal(t, "Pending", todo[0].Peer)
}

func TestSaveTransactionsValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	err := db.Storage.SaveTransactions(ctx, nil)
	assert.Error(t, err, "empty slice is rejected")

	bad := testutil.Txn()
	bad.ID = ""
	assert.Error(t, db.Storage.SaveTransactions(ctx, []model.Transaction{bad}))
}
