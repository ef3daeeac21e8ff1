package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"bibdup/internal/identify"
	"bibdup/internal/logging"
	"bibdup/internal/records"
	"bibdup/internal/similarity"
)

// Searcher runs every applicable candidate search strategy for one record.
// Strategies are fail-soft: an error in one is logged and yields an empty
// list without affecting its siblings.
type Searcher struct {
	store  records.Library
	logger *slog.Logger
	policy Policy
}

// NewSearcher builds a Searcher over the given library store.
func NewSearcher(store records.Library, logger *slog.Logger, policy Policy) *Searcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Searcher{
		store:  store,
		logger: logging.NewComponentLogger(logger, "search"),
		policy: policy.normalized(),
	}
}

type strategy struct {
	name string
	run  func(ctx context.Context, set identify.IdentifierSet, selfKey string) ([]Candidate, error)
}

func (s *Searcher) strategies(set identify.IdentifierSet) []strategy {
	out := make([]strategy, 0, 7)
	if set.DOI != "" {
		out = append(out, strategy{name: "doi", run: s.searchDOI})
	}
	if set.ISBN != "" {
		out = append(out, strategy{name: "isbn", run: s.searchISBN})
	}
	if set.PMID != "" {
		out = append(out, strategy{name: "pmid", run: s.searchPMID})
	}
	if set.PMCID != "" {
		out = append(out, strategy{name: "pmcid", run: s.searchPMCID})
	}
	if set.ArXivID != "" {
		out = append(out, strategy{name: "arxiv", run: s.searchArXiv})
	}
	if set.NormalizedURL != "" {
		out = append(out, strategy{name: "url", run: s.searchURL})
	}
	switch {
	case set.Title != "" && set.FirstAuthor != "" && set.Year != 0:
		out = append(out, strategy{name: "fuzzy", run: s.searchFuzzy})
	case set.Title != "":
		out = append(out, strategy{name: "title", run: s.searchTitleOnly})
	}
	return out
}

// Search runs all applicable strategies concurrently and returns the
// aggregated candidate list, sorted by score descending and truncated to the
// policy's candidate bound. Results land in per-strategy slots so the
// aggregation order is deterministic regardless of completion order.
func (s *Searcher) Search(ctx context.Context, set identify.IdentifierSet, selfKey string) []Candidate {
	strats := s.strategies(set)
	if len(strats) == 0 {
		return nil
	}

	slots := make([][]Candidate, len(strats))
	var wg sync.WaitGroup
	for i, strat := range strats {
		wg.Add(1)
		go func(i int, strat strategy) {
			defer wg.Done()
			found, err := strat.run(ctx, set, selfKey)
			if err != nil {
				s.logger.Warn("candidate search strategy failed",
					logging.String(logging.FieldStrategy, strat.name),
					logging.String(logging.FieldRecordKey, selfKey),
					logging.Error(err))
				return
			}
			slots[i] = found
		}(i, strat)
	}
	wg.Wait()

	var all []Candidate
	for _, found := range slots {
		all = append(all, found...)
	}
	aggregated := aggregate(all, s.policy.MaxCandidates)

	s.logger.Debug("candidate search complete",
		logging.String(logging.FieldRecordKey, selfKey),
		logging.Int("strategies", len(strats)),
		logging.Int("candidates", len(aggregated)))
	return aggregated
}

func (s *Searcher) searchDOI(ctx context.Context, set identify.IdentifierSet, selfKey string) ([]Candidate, error) {
	found, err := s.store.Search(ctx, records.Query{
		Conditions: []records.Condition{{Field: records.FieldDOI, Op: records.OpContains, Value: set.DOI}},
		ExcludeKey: selfKey,
	})
	if err != nil {
		return nil, err
	}
	var out []Candidate
	for _, rec := range found {
		if !strings.EqualFold(identify.Extract(rec).DOI, set.DOI) {
			continue
		}
		out = append(out, s.candidate(rec, s.policy.DOIScore, "Exact DOI match"))
	}
	return out, nil
}

func (s *Searcher) searchISBN(ctx context.Context, set identify.IdentifierSet, selfKey string) ([]Candidate, error) {
	found, err := s.store.Search(ctx, records.Query{
		Conditions: []records.Condition{{Field: records.FieldISBN, Op: records.OpContains, Value: set.ISBN}},
		ExcludeKey: selfKey,
	})
	if err != nil {
		return nil, err
	}
	var out []Candidate
	for _, rec := range found {
		if identify.Extract(rec).ISBN != set.ISBN {
			continue
		}
		out = append(out, s.candidate(rec, s.policy.ISBNScore, "Exact ISBN match"))
	}
	return out, nil
}

// Free-text identifiers live in the extra field, so a containment hit must be
// re-validated against the extracted identifier to avoid matching unrelated
// substrings.
func (s *Searcher) searchPMID(ctx context.Context, set identify.IdentifierSet, selfKey string) ([]Candidate, error) {
	found, err := s.store.Search(ctx, records.Query{
		Conditions: []records.Condition{{Field: records.FieldExtra, Op: records.OpContains, Value: set.PMID}},
		ExcludeKey: selfKey,
	})
	if err != nil {
		return nil, err
	}
	var out []Candidate
	for _, rec := range found {
		if identify.Extract(rec).PMID != set.PMID {
			continue
		}
		out = append(out, s.candidate(rec, s.policy.PMIDScore, "PMID match"))
	}
	return out, nil
}

func (s *Searcher) searchPMCID(ctx context.Context, set identify.IdentifierSet, selfKey string) ([]Candidate, error) {
	digits := strings.TrimPrefix(set.PMCID, "PMC")
	found, err := s.store.Search(ctx, records.Query{
		Conditions: []records.Condition{{Field: records.FieldExtra, Op: records.OpContains, Value: digits}},
		ExcludeKey: selfKey,
	})
	if err != nil {
		return nil, err
	}
	var out []Candidate
	for _, rec := range found {
		if identify.Extract(rec).PMCID != set.PMCID {
			continue
		}
		out = append(out, s.candidate(rec, s.policy.PMCIDScore, "PMCID match"))
	}
	return out, nil
}

func (s *Searcher) searchArXiv(ctx context.Context, set identify.IdentifierSet, selfKey string) ([]Candidate, error) {
	var out []Candidate
	seen := make(map[string]struct{}, 2)
	for _, field := range []string{records.FieldExtra, records.FieldURL} {
		found, err := s.store.Search(ctx, records.Query{
			Conditions: []records.Condition{{Field: field, Op: records.OpContains, Value: set.ArXivID}},
			ExcludeKey: selfKey,
		})
		if err != nil {
			return nil, err
		}
		for _, rec := range found {
			if _, ok := seen[rec.Key()]; ok {
				continue
			}
			if !strings.EqualFold(identify.Extract(rec).ArXivID, set.ArXivID) {
				continue
			}
			seen[rec.Key()] = struct{}{}
			out = append(out, s.candidate(rec, s.policy.ArXivScore, "ArXiv ID match"))
		}
	}
	return out, nil
}

// searchURL narrows by host first, which the store can serve cheaply, then
// keeps only candidates whose normalized URL is exactly equal.
func (s *Searcher) searchURL(ctx context.Context, set identify.IdentifierSet, selfKey string) ([]Candidate, error) {
	host := urlHost(set.NormalizedURL)
	if host == "" {
		return nil, nil
	}
	found, err := s.store.Search(ctx, records.Query{
		Conditions: []records.Condition{{Field: records.FieldURL, Op: records.OpContains, Value: host}},
		ExcludeKey: selfKey,
	})
	if err != nil {
		return nil, err
	}
	var out []Candidate
	for _, rec := range found {
		if identify.NormalizeURL(rec.Field(records.FieldURL)) != set.NormalizedURL {
			continue
		}
		out = append(out, s.candidate(rec, s.policy.URLScore, "Same normalized URL"))
	}
	return out, nil
}

func (s *Searcher) searchFuzzy(ctx context.Context, set identify.IdentifierSet, selfKey string) ([]Candidate, error) {
	found, err := s.store.Search(ctx, records.Query{
		Conditions: []records.Condition{{Field: records.FieldCreator, Op: records.OpContains, Value: set.FirstAuthor}},
		ExcludeKey: selfKey,
		Limit:      s.policy.FuzzyAuthorLimit,
	})
	if err != nil {
		return nil, err
	}
	var out []Candidate
	for _, rec := range found {
		score := similarity.Combined(set, identify.Extract(rec))
		if score < s.policy.FlagThreshold {
			continue
		}
		reason := fmt.Sprintf("Similar title/author/year (%d%% match)", score)
		out = append(out, s.candidate(rec, score, reason))
	}
	return out, nil
}

// searchTitleOnly runs when author or year is missing. The first three title
// words form a cheap containment filter before full title scoring.
func (s *Searcher) searchTitleOnly(ctx context.Context, set identify.IdentifierSet, selfKey string) ([]Candidate, error) {
	prefix := identify.TitlePrefixWords(set.Title, 3)
	if prefix == "" {
		return nil, nil
	}
	found, err := s.store.Search(ctx, records.Query{
		Conditions: []records.Condition{{Field: records.FieldTitle, Op: records.OpContains, Value: prefix}},
		ExcludeKey: selfKey,
		Limit:      s.policy.TitleFallbackLimit,
	})
	if err != nil {
		return nil, err
	}
	var out []Candidate
	for _, rec := range found {
		score := similarity.TitleScore(set.Title, rec.Field(records.FieldTitle))
		if score < s.policy.FlagThreshold {
			continue
		}
		reason := fmt.Sprintf("Similar title (%d%% match)", score)
		out = append(out, s.candidate(rec, score, reason))
	}
	return out, nil
}

func (s *Searcher) candidate(rec records.Record, score int, reason string) Candidate {
	return Candidate{
		Record:     rec,
		Score:      score,
		Reason:     reason,
		Confidence: s.policy.confidence(score),
	}
}

func urlHost(normalized string) string {
	parsed, err := url.Parse(normalized)
	if err != nil {
		return ""
	}
	return parsed.Host
}
