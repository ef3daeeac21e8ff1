// Package testsupport provides helpers shared by package tests: temp-dir
// seeded configurations and throwaway library stores.
package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"bibdup/internal/config"
	"bibdup/internal/records"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDB = filepath.Join(base, "library.db")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithThresholds overrides the decision tier boundaries on the test config.
func WithThresholds(autoMerge, flag int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Thresholds.AutoMerge = autoMerge
		cfg.Thresholds.Flag = flag
	}
}

// MustOpenStore opens a fresh store backed by a per-test database and
// registers its cleanup. A default editable collection is created so seeded
// records are deletable.
func MustOpenStore(t testing.TB) *records.Store {
	t.Helper()

	store, err := records.OpenPath(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})

	if err := store.EnsureCollection(context.Background(), "COLL", "Test Library", true); err != nil {
		t.Fatalf("ensure collection: %v", err)
	}
	return store
}

// MustInsert seeds one record into the default test collection.
func MustInsert(t testing.TB, store *records.Store, rec records.NewRecord) records.Record {
	t.Helper()

	if rec.CollectionKey == "" {
		rec.CollectionKey = "COLL"
	}
	stored, err := store.Insert(context.Background(), rec)
	if err != nil {
		t.Fatalf("insert record: %v", err)
	}
	return stored
}
