// Package testutil provides fixtures shared by package tests: a fluent
// ruleset builder, BOM row constructors and an in-memory rule database.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/bomsort/internal/model"
	"github.com/Veraticus/bomsort/internal/storage"
)

// TestDB is a migrated in-memory rule database.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates an in-memory database seeded with rs. A nil rs
// leaves the database unsaved, so Load fails with common.ErrConfig.
// Cleanup is registered on t.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.NewRuleSetBuilder().WithDefaults().Build())
func SetupTestDB(t *testing.T, rs *model.RuleSet) *TestDB {
	t.Helper()

	ctx := context.Background()
	store, err := storage.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	if rs != nil {
		if err := store.Save(ctx, rs); err != nil {
			t.Fatalf("failed to seed rules: %v", err)
		}
	}

	return &TestDB{Storage: store, t: t}
}

// MustLoad returns the stored ruleset or fails the test.
func (db *TestDB) MustLoad() *model.RuleSet {
	db.t.Helper()
	rs, err := db.Storage.Load(context.Background())
	if err != nil {
		db.t.Fatalf("failed to load rules: %v", err)
	}
	return rs
}

// MustEntries returns the change log or fails the test.
func (db *TestDB) MustEntries() []model.ChangeRecord {
	db.t.Helper()
	records, err := db.Storage.Entries(context.Background())
	if err != nil {
		db.t.Fatalf("failed to read change log: %v", err)
	}
	return records
}
