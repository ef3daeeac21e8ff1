package dedup

import (
	"context"
	"strings"
	"testing"

	"bibdup/internal/identify"
	"bibdup/internal/logging"
	"bibdup/internal/records"
	"bibdup/internal/testsupport"
)

func newTestSearcher(t *testing.T) (*Searcher, *records.Store) {
	t.Helper()
	store := testsupport.MustOpenStore(t)
	return NewSearcher(store, logging.NewNop(), DefaultPolicy()), store
}

func TestSearchMatchesDOIAcrossPrefixes(t *testing.T) {
	searcher, store := newTestSearcher(t)
	existing := testsupport.MustInsert(t, store, records.NewRecord{
		Key:   "B",
		Title: "Stored Paper",
		DOI:   "https://doi.org/10.1000/xyz",
	})
	fresh := testsupport.MustInsert(t, store, records.NewRecord{
		Key:   "A",
		Title: "New Paper",
		DOI:   "10.1000/xyz",
	})

	out := searcher.Search(context.Background(), identify.Extract(fresh), fresh.Key())
	if len(out) != 1 {
		t.Fatalf("expected one candidate, got %d", len(out))
	}
	if out[0].Record.Key() != existing.Key() {
		t.Fatalf("expected candidate B, got %s", out[0].Record.Key())
	}
	if out[0].Score != 100 || out[0].Confidence != ConfidenceHigh {
		t.Fatalf("unexpected candidate: %+v", out[0])
	}
	if out[0].Reason != "Exact DOI match" {
		t.Fatalf("unexpected reason: %q", out[0].Reason)
	}
}

func TestSearchDOIRejectsSupersetMatch(t *testing.T) {
	searcher, store := newTestSearcher(t)
	testsupport.MustInsert(t, store, records.NewRecord{
		Key: "B", Title: "Other Paper", DOI: "10.1000/xyz123",
	})
	fresh := testsupport.MustInsert(t, store, records.NewRecord{
		Key: "A", Title: "New Paper", DOI: "10.1000/xyz",
	})

	set := identify.IdentifierSet{DOI: identify.Extract(fresh).DOI}
	if out := searcher.Search(context.Background(), set, fresh.Key()); len(out) != 0 {
		t.Fatalf("containment hit must fail re-validation, got %+v", out)
	}
}

func TestSearchPMIDRevalidatesContainment(t *testing.T) {
	searcher, store := newTestSearcher(t)
	testsupport.MustInsert(t, store, records.NewRecord{
		Key: "LONG", Title: "Longer PMID", Extra: "PMID: 123456789",
	})
	match := testsupport.MustInsert(t, store, records.NewRecord{
		Key: "EXACT", Title: "Exact PMID", Extra: "PMID: 12345678",
	})
	fresh := testsupport.MustInsert(t, store, records.NewRecord{
		Key: "A", Title: "New Paper", Extra: "PMID: 12345678",
	})

	set := identify.IdentifierSet{PMID: "12345678"}
	out := searcher.Search(context.Background(), set, fresh.Key())
	if len(out) != 1 {
		t.Fatalf("expected one re-validated candidate, got %d", len(out))
	}
	if out[0].Record.Key() != match.Key() || out[0].Score != 98 {
		t.Fatalf("unexpected candidate: %+v", out[0])
	}
}

func TestSearchURLKeepsNormalizedEqualityOnly(t *testing.T) {
	searcher, store := newTestSearcher(t)
	match := testsupport.MustInsert(t, store, records.NewRecord{
		Key: "B", Title: "Tracked", URL: "https://www.example.com/paper/?utm_source=feed",
	})
	testsupport.MustInsert(t, store, records.NewRecord{
		Key: "C", Title: "Same host, other page", URL: "https://example.com/other",
	})
	fresh := testsupport.MustInsert(t, store, records.NewRecord{
		Key: "A", Title: "New Paper", URL: "https://example.com/paper",
	})

	set := identify.Extract(fresh)
	set.Title = ""
	set.NormalizedTitle = ""

	out := searcher.Search(context.Background(), set, fresh.Key())
	if len(out) != 1 {
		t.Fatalf("expected one URL candidate, got %d", len(out))
	}
	if out[0].Record.Key() != match.Key() || out[0].Score != 88 || out[0].Confidence != ConfidenceHigh {
		t.Fatalf("unexpected candidate: %+v", out[0])
	}
}

func TestSearchFuzzyScoresReviewTier(t *testing.T) {
	searcher, store := newTestSearcher(t)
	match := testsupport.MustInsert(t, store, records.NewRecord{
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

	out := searcher.Search(context.Background(), identify.Extract(fresh), fresh.Key())
	if len(out) != 1 {
		t.Fatalf("expected one fuzzy candidate, got %d", len(out))
	}
	got := out[0]
	if got.Record.Key() != match.Key() {
		t.Fatalf("expected candidate C, got %s", got.Record.Key())
	}
	// title 95 * 0.5 + author 100 * 0.3 + year 0 * 0.2 = 77.5 -> 78
	if got.Score != 78 || got.Confidence != ConfidenceMedium {
		t.Fatalf("unexpected candidate: %+v", got)
	}
	if !strings.Contains(got.Reason, "Similar title/author/year") {
		t.Fatalf("unexpected reason: %q", got.Reason)
	}
}

func TestSearchTitleFallbackWhenAuthorMissing(t *testing.T) {
	searcher, store := newTestSearcher(t)
	match := testsupport.MustInsert(t, store, records.NewRecord{
		Key: "B", Title: "Deep Learning Basics!",
	})
	fresh := testsupport.MustInsert(t, store, records.NewRecord{
		Key: "A", Title: "Deep Learning Basics",
	})

	out := searcher.Search(context.Background(), identify.Extract(fresh), fresh.Key())
	if len(out) != 1 {
		t.Fatalf("expected one title candidate, got %d", len(out))
	}
	if out[0].Record.Key() != match.Key() || out[0].Score != 95 {
		t.Fatalf("unexpected candidate: %+v", out[0])
	}
}

func TestSearchNoSignalsYieldsNothing(t *testing.T) {
	searcher, store := newTestSearcher(t)
	fresh := testsupport.MustInsert(t, store, records.NewRecord{Key: "A"})

	if out := searcher.Search(context.Background(), identify.Extract(fresh), fresh.Key()); len(out) != 0 {
		t.Fatalf("expected no candidates, got %+v", out)
	}
}

func TestSearchAggregatesMultiStrategyHits(t *testing.T) {
	searcher, store := newTestSearcher(t)
	existing := testsupport.MustInsert(t, store, records.NewRecord{
		Key:   "B",
		Title: "Deep Learning Basics",
		DOI:   "10.1000/xyz",
	})
	fresh := testsupport.MustInsert(t, store, records.NewRecord{
		Key:   "A",
		Title: "Deep Learning Basics",
		DOI:   "10.1000/xyz",
	})

	out := searcher.Search(context.Background(), identify.Extract(fresh), fresh.Key())
	if len(out) != 1 {
		t.Fatalf("same record must aggregate to one candidate, got %d", len(out))
	}
	got := out[0]
	if got.Record.Key() != existing.Key() || got.Score != 100 {
		t.Fatalf("unexpected candidate: %+v", got)
	}
	if !strings.Contains(got.Reason, "Exact DOI match") || !strings.Contains(got.Reason, " + ") {
		t.Fatalf("expected combined provenance, got %q", got.Reason)
	}
}
