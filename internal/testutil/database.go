// Package testutil provides shared helpers for tests: an in-memory database
// harness and fixture builders for transactions and rules.
package testutil

import (
	"context"
	"testing"

	"github.com/beanflow/beanflow/internal/model"
	"github.com/beanflow/beanflow/internal/service"
	"github.com/beanflow/beanflow/internal/storage"
)

// TestDB wraps a migrated in-memory database for one test.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database. It runs migrations and
// registers cleanup with the test.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// SeedTransactions persists the given transactions or fails the test.
func (db *TestDB) SeedTransactions(transactions ...model.Transaction) {
	db.t.Helper()
	if err := db.Storage.SaveTransactions(context.Background(), transactions); err != nil {
		db.t.Fatalf("failed to seed transactions: %v", err)
	}
}

// SeedRules persists the given rules or fails the test.
func (db *TestDB) SeedRules(rules ...model.Rule) {
	db.t.Helper()
	for i := range rules {
		if err := db.Storage.SaveRule(context.Background(), &rules[i]); err != nil {
			db.t.Fatalf("failed to seed rule %q: %v", rules[i].Name, err)
		}
	}
}
