package records_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bibdup/internal/records"
	"bibdup/internal/services"
)

func openStore(t *testing.T) *records.Store {
	t.Helper()
	store, err := records.OpenPath(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInsertAndGetRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	rec, err := store.Insert(ctx, records.NewRecord{
		Title: "Deep Learning Basics",
		DOI:   "10.1000/xyz123",
		Date:  "2020-03-01",
		Creators: []records.Creator{
			{FirstName: "Jane", LastName: "Smith"},
			{FirstName: "Ada", LastName: "Jones"},
		},
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if rec.Key() == "" {
		t.Fatal("expected generated key")
	}
	if rec.Field(records.FieldTitle) != "Deep Learning Basics" {
		t.Fatalf("unexpected title: %q", rec.Field(records.FieldTitle))
	}
	if rec.Field(records.FieldDOI) != "10.1000/xyz123" {
		t.Fatalf("unexpected doi: %q", rec.Field(records.FieldDOI))
	}
	creators := rec.Creators()
	if len(creators) != 2 || creators[0].LastName != "Smith" {
		t.Fatalf("unexpected creators: %+v", creators)
	}
	if !rec.IsEditable() {
		t.Fatal("records without a collection should be editable")
	}
	if rec.IsDeleted() {
		t.Fatal("fresh record reported deleted")
	}
}

func TestSearchEqualsAndContains(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.Insert(ctx, records.NewRecord{Key: "A", Title: "Graph Algorithms", DOI: "10.1/ABC"}); err != nil {
		t.Fatalf("Insert A: %v", err)
	}
	if _, err := store.Insert(ctx, records.NewRecord{Key: "B", Title: "Graph Theory Primer"}); err != nil {
		t.Fatalf("Insert B: %v", err)
	}

	byDOI, err := store.Search(ctx, records.Query{
		Conditions: []records.Condition{{Field: records.FieldDOI, Op: records.OpEquals, Value: "10.1/abc"}},
	})
	if err != nil {
		t.Fatalf("Search by DOI: %v", err)
	}
	if len(byDOI) != 1 || byDOI[0].Key() != "A" {
		t.Fatalf("unexpected DOI search result: %+v", byDOI)
	}

	byTitle, err := store.Search(ctx, records.Query{
		Conditions: []records.Condition{{Field: records.FieldTitle, Op: records.OpContains, Value: "graph"}},
	})
	if err != nil {
		t.Fatalf("Search by title: %v", err)
	}
	if len(byTitle) != 2 {
		t.Fatalf("expected both graph records, got %d", len(byTitle))
	}
}

func TestSearchExcludesSelfAttachmentsAndDeleted(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.Insert(ctx, records.NewRecord{Key: "SELF", Title: "Same Title"}); err != nil {
		t.Fatalf("Insert SELF: %v", err)
	}
	if _, err := store.Insert(ctx, records.NewRecord{Key: "ATT", Title: "Same Title", ItemType: records.ItemTypeAttachment}); err != nil {
		t.Fatalf("Insert ATT: %v", err)
	}
	if _, err := store.Insert(ctx, records.NewRecord{Key: "GONE", Title: "Same Title"}); err != nil {
		t.Fatalf("Insert GONE: %v", err)
	}
	if err := store.Delete(ctx, "GONE"); err != nil {
		t.Fatalf("Delete GONE: %v", err)
	}
	if _, err := store.Insert(ctx, records.NewRecord{Key: "OTHER", Title: "Same Title"}); err != nil {
		t.Fatalf("Insert OTHER: %v", err)
	}

	results, err := store.Search(ctx, records.Query{
		Conditions: []records.Condition{{Field: records.FieldTitle, Op: records.OpEquals, Value: "Same Title"}},
		ExcludeKey: "SELF",
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Key() != "OTHER" {
		t.Fatalf("expected only OTHER, got %+v", results)
	}
}

func TestSearchByCreatorContains(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.Insert(ctx, records.NewRecord{
		Key:      "S1",
		Title:    "Paper One",
		Creators: []records.Creator{{FirstName: "J", LastName: "Smith"}},
	}); err != nil {
		t.Fatalf("Insert S1: %v", err)
	}
	if _, err := store.Insert(ctx, records.NewRecord{
		Key:      "S2",
		Title:    "Paper Two",
		Creators: []records.Creator{{FullName: "Smithson Collective"}},
	}); err != nil {
		t.Fatalf("Insert S2: %v", err)
	}
	if _, err := store.Insert(ctx, records.NewRecord{
		Key:      "J1",
		Title:    "Paper Three",
		Creators: []records.Creator{{FirstName: "A", LastName: "Jones"}},
	}); err != nil {
		t.Fatalf("Insert J1: %v", err)
	}

	results, err := store.Search(ctx, records.Query{
		Conditions: []records.Condition{{Field: records.FieldCreator, Op: records.OpContains, Value: "smith"}},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected two smith matches, got %d", len(results))
	}
}

func TestDeleteMarksNotRemoves(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.Insert(ctx, records.NewRecord{Key: "D1", Title: "Doomed"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := store.Delete(ctx, "D1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	rec, err := store.Get(ctx, "D1")
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if !rec.IsDeleted() {
		t.Fatal("expected deleted flag set")
	}

	// Deleting again settles without error.
	if err := store.Delete(ctx, "D1"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}

	if err := store.Delete(ctx, "NOPE"); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown key, got %v", err)
	}

	// The sentinel doubles as services.ErrNotFound so callers outside this
	// package can classify it.
	if _, err := store.Get(ctx, "NOPE"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected services.ErrNotFound for unknown key, got %v", err)
	}
}

func TestCollectionEditabilityFlowsToRecords(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.EnsureCollection(ctx, "RO", "Read Only Feed", false); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
	if _, err := store.Insert(ctx, records.NewRecord{Key: "L1", Title: "Locked", CollectionKey: "RO"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	rec, err := store.Get(ctx, "L1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.IsEditable() {
		t.Fatal("record in read-only collection should not be editable")
	}
}

func TestSearchLimitBoundsResults(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		if _, err := store.Insert(ctx, records.NewRecord{Title: "Bounded Search"}); err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
	}

	results, err := store.Search(ctx, records.Query{
		Conditions: []records.Condition{{Field: records.FieldTitle, Op: records.OpEquals, Value: "Bounded Search"}},
		Limit:      3,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected limit of 3, got %d", len(results))
	}
}
