package dedup

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"bibdup/internal/logging"
	"bibdup/internal/records"
	"bibdup/internal/testsupport"
)

func TestProcessAutoMergesSharedDOI(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	existing := testsupport.MustInsert(t, store, records.NewRecord{
		Key: "B", Title: "Stored Paper", DOI: "10.1/X",
	})
	fresh := testsupport.MustInsert(t, store, records.NewRecord{
		Key: "A", Title: "Ingested Paper", DOI: "10.1/X",
	})

	engine := New(store, logging.NewNop(), DefaultPolicy())
	result := engine.Process(context.Background(), []records.Record{fresh})

	if !result.Processed {
		t.Fatal("expected processed result")
	}
	if len(result.AutoMerged) != 1 {
		t.Fatalf("expected one auto-merge, got %+v", result.AutoMerged)
	}
	action := result.AutoMerged[0]
	if action.KeptKey != "B" || action.DeletedKey != "A" {
		t.Fatalf("unexpected merge action: %+v", action)
	}
	if len(result.PossibleDuplicates) != 0 || len(result.Errors) != 0 {
		t.Fatalf("unexpected extra results: %+v", result)
	}
	if result.Records[0].Key() != existing.Key() {
		t.Fatalf("merged slot should hold the kept record, got %s", result.Records[0].Key())
	}

	deleted, err := store.Get(context.Background(), "A")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if !deleted.IsDeleted() {
		t.Fatal("new record should be deleted after auto-merge")
	}
}

func TestProcessFlagsReviewTierMatch(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	testsupport.MustInsert(t, store, records.NewRecord{
		Key:      "C",
		Title:    "Deep Learning Basics",
		Date:     "2017",
		Creators: []records.Creator{{FirstName: "J.", LastName: "Smith"}},
	})
	fresh := testsupport.MustInsert(t, store, records.NewRecord{
		Key:      "A",
		Title:    "Deep Learning Basics",
		Date:     "2020",
		Creators: []records.Creator{{FirstName: "Jane", LastName: "Smith"}},
	})

	engine := New(store, logging.NewNop(), DefaultPolicy())
	result := engine.Process(context.Background(), []records.Record{fresh})

	if len(result.AutoMerged) != 0 {
		t.Fatalf("review tier must not merge: %+v", result.AutoMerged)
	}
	if len(result.PossibleDuplicates) != 1 {
		t.Fatalf("expected one flagged duplicate, got %+v", result.PossibleDuplicates)
	}
	flagged := result.PossibleDuplicates[0]
	if flagged.NewKey != "A" || flagged.ExistingKey != "C" {
		t.Fatalf("unexpected flag: %+v", flagged)
	}
	if flagged.Score < 70 || flagged.Score >= 85 {
		t.Fatalf("flag score outside review tier: %d", flagged.Score)
	}
	if flagged.Confidence != ConfidenceMedium {
		t.Fatalf("expected medium confidence, got %q", flagged.Confidence)
	}

	live, err := store.Get(context.Background(), "A")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if live.IsDeleted() {
		t.Fatal("flagged record must not be deleted")
	}
}

func TestProcessIsIdempotentWithoutMerges(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	testsupport.MustInsert(t, store, records.NewRecord{
		Key:      "C",
		Title:    "Deep Learning Basics",
		Date:     "2017",
		Creators: []records.Creator{{LastName: "Smith"}},
	})
	fresh := testsupport.MustInsert(t, store, records.NewRecord{
		Key:      "A",
		Title:    "Deep Learning Basics",
		Date:     "2020",
		Creators: []records.Creator{{LastName: "Smith"}},
	})

	engine := New(store, logging.NewNop(), DefaultPolicy())
	first := engine.Process(context.Background(), []records.Record{fresh})
	second := engine.Process(context.Background(), []records.Record{fresh})

	if !reflect.DeepEqual(first.PossibleDuplicates, second.PossibleDuplicates) {
		t.Fatalf("repeat evaluation differs:\nfirst: %+v\nsecond: %+v",
			first.PossibleDuplicates, second.PossibleDuplicates)
	}
	if len(second.AutoMerged) != 0 || len(second.Errors) != 0 {
		t.Fatalf("repeat evaluation had side effects: %+v", second)
	}
}

func TestProcessRecordWithoutSignals(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	fresh := testsupport.MustInsert(t, store, records.NewRecord{Key: "A"})

	engine := New(store, logging.NewNop(), DefaultPolicy())
	result := engine.Process(context.Background(), []records.Record{fresh})

	if !result.Processed {
		t.Fatal("expected processed result")
	}
	if len(result.AutoMerged) != 0 || len(result.PossibleDuplicates) != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected empty outcome, got %+v", result)
	}
	if result.Records[0].Key() != "A" {
		t.Fatalf("slot should keep the original record, got %s", result.Records[0].Key())
	}
}

func TestProcessTimeoutDegradesToFlag(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	testsupport.MustInsert(t, store, records.NewRecord{
		Key: "B", Title: "Stored Paper", DOI: "10.1/X",
	})
	fresh := testsupport.MustInsert(t, store, records.NewRecord{
		Key: "A", Title: "Ingested Paper", DOI: "10.1/X",
	})

	policy := DefaultPolicy()
	policy.DeleteTimeout = 25 * time.Millisecond
	engine := New(hangingDeleteStore{store}, logging.NewNop(), policy)
	result := engine.Process(context.Background(), []records.Record{fresh})

	if len(result.AutoMerged) != 0 {
		t.Fatalf("timeout must never produce a merge action: %+v", result.AutoMerged)
	}
	if len(result.PossibleDuplicates) != 1 {
		t.Fatalf("expected degraded flag, got %+v", result.PossibleDuplicates)
	}
	if !strings.Contains(result.PossibleDuplicates[0].Reason, "auto-merge failed: timeout") {
		t.Fatalf("flag reason missing failure cause: %q", result.PossibleDuplicates[0].Reason)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "timeout") {
		t.Fatalf("expected one timeout error entry, got %+v", result.Errors)
	}
	if result.Records[0].Key() != "A" {
		t.Fatal("failed merge must not substitute the record slot")
	}
}

func TestProcessDoesNotMutateInputSlice(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	testsupport.MustInsert(t, store, records.NewRecord{
		Key: "B", Title: "Stored Paper", DOI: "10.1/X",
	})
	fresh := testsupport.MustInsert(t, store, records.NewRecord{
		Key: "A", Title: "Ingested Paper", DOI: "10.1/X",
	})

	batch := []records.Record{fresh}
	engine := New(store, logging.NewNop(), DefaultPolicy())
	result := engine.Process(context.Background(), batch)

	if batch[0].Key() != "A" {
		t.Fatalf("input slice was mutated: %s", batch[0].Key())
	}
	if result.Records[0].Key() != "B" {
		t.Fatalf("output slice should carry the substitution: %s", result.Records[0].Key())
	}
}

func TestProcessIsolatesRecordFailures(t *testing.T) {
	store := testsupport.MustOpenStore(t)
	testsupport.MustInsert(t, store, records.NewRecord{
		Key: "B", Title: "Stored Paper", DOI: "10.1/X",
	})
	healthy := testsupport.MustInsert(t, store, records.NewRecord{
		Key: "A", Title: "Ingested Paper", DOI: "10.1/X",
	})

	engine := New(store, logging.NewNop(), DefaultPolicy())
	batch := []records.Record{panickingRecord{}, healthy}
	result := engine.Process(context.Background(), batch)

	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "panicked") {
		t.Fatalf("expected isolated panic error, got %+v", result.Errors)
	}
	if len(result.AutoMerged) != 1 {
		t.Fatalf("healthy record should still auto-merge: %+v", result.AutoMerged)
	}
}

type panickingRecord struct{}

func (panickingRecord) Key() string                 { return "PANIC" }
func (panickingRecord) Field(string) string         { panic("corrupt record") }
func (panickingRecord) Creators() []records.Creator { return nil }
func (panickingRecord) IsEditable() bool            { return true }
func (panickingRecord) IsDeleted() bool             { return false }
