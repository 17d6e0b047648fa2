package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/beanflow/beanflow/internal/storage"
	"github.com/beanflow/beanflow/internal/testutil"
)

func TestMigrateIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)

	// The harness already migrated once; a second run must be a no-op.
	require.NoError(t, db.Storage.Migrate(context.Background()))
}

func TestNewStorageOnDisk(t *testing.T) {
	path := t.TempDir() + "/nested/beanflow.db"

	store, err := storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
}
