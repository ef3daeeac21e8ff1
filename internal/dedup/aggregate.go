package dedup

import "sort"

// aggregate merges candidates found by multiple strategies for the same
// underlying record. The highest score wins and the reasons of every
// contributing strategy are concatenated with " + " so provenance survives
// aggregation. The result is sorted by score descending with a stable sort,
// so ties keep discovery order, and truncated to max entries.
func aggregate(candidates []Candidate, max int) []Candidate {
	if len(candidates) == 0 {
		return nil
	}

	byKey := make(map[string]int, len(candidates))
	merged := make([]Candidate, 0, len(candidates))
	for _, cand := range candidates {
		key := cand.Record.Key()
		idx, ok := byKey[key]
		if !ok {
			byKey[key] = len(merged)
			merged = append(merged, cand)
			continue
		}
		existing := &merged[idx]
		existing.Reason = existing.Reason + " + " + cand.Reason
		if cand.Score > existing.Score {
			existing.Score = cand.Score
			existing.Confidence = cand.Confidence
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	if max > 0 && len(merged) > max {
		merged = merged[:max]
	}
	return merged
}
