package similarity

import (
	"math"
	"strings"

	"bibdup/internal/identify"
)

// TitleScore maps the fuzzy similarity of two titles into a 0..100 score.
// Exactly equal normalized titles score 95, deliberately below the range
// reserved for identifier matches. Lower similarities fall through fixed
// bands so weak matches cannot reach the flagging threshold.
func TitleScore(t1, t2 string) int {
	if strings.TrimSpace(t1) == "" || strings.TrimSpace(t2) == "" {
		return 0
	}

	n1 := identify.NormalizeTitle(t1)
	n2 := identify.NormalizeTitle(t2)
	if n1 == n2 {
		return 95
	}

	sim := LevenshteinSimilarity(n1, n2)
	switch {
	case sim >= 0.95:
		return 90
	case sim >= 0.90:
		return 85
	case sim >= 0.80:
		return 75
	case sim >= 0.70:
		return 65
	default:
		return int(math.Round(sim * 60))
	}
}

// AuthorScore compares two author names after lowercasing and trimming.
// Containment scores 95 so "Smith" matches "Smith, J." without an edit
// distance penalty.
func AuthorScore(a1, a2 string) int {
	n1 := strings.ToLower(strings.TrimSpace(a1))
	n2 := strings.ToLower(strings.TrimSpace(a2))

	if n1 == n2 {
		return 100
	}
	if n1 != "" && n2 != "" && (strings.Contains(n1, n2) || strings.Contains(n2, n1)) {
		return 95
	}
	return int(math.Round(LevenshteinSimilarity(n1, n2) * 100))
}

// yearScore rewards exact publication year matches and tolerates off-by-one
// differences from ambiguous date metadata.
func yearScore(y1, y2 int) int {
	switch diff := y1 - y2; {
	case diff == 0:
		return 100
	case diff == 1 || diff == -1:
		return 80
	default:
		return 0
	}
}

// Combined weights title, author, and year similarity into one 0..100 score.
// A factor missing on either side is dropped from both the sum and the weight
// denominator, so records with sparse metadata are scored on what they do
// share. Returns 0 when no factor is computable.
func Combined(a, b identify.IdentifierSet) int {
	const (
		titleWeight  = 0.5
		authorWeight = 0.3
		yearWeight   = 0.2
	)

	var sum, weights float64

	if a.Title != "" && b.Title != "" {
		sum += float64(TitleScore(a.Title, b.Title)) * titleWeight
		weights += titleWeight
	}
	if a.FirstAuthor != "" && b.FirstAuthor != "" {
		sum += float64(AuthorScore(a.FirstAuthor, b.FirstAuthor)) * authorWeight
		weights += authorWeight
	}
	if a.Year != 0 && b.Year != 0 {
		sum += float64(yearScore(a.Year, b.Year)) * yearWeight
		weights += yearWeight
	}

	if weights == 0 {
		return 0
	}
	return int(math.Round(sum / weights))
}
