package similarity

// LevenshteinDistance returns the edit distance between two strings, counting
// insertions, deletions, and substitutions at cost 1 each. It operates on
// runes so multibyte characters count as single edits.
func LevenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	column := make([]int, len(ra)+1)
	for y := 1; y <= len(ra); y++ {
		column[y] = y
	}

	for x := 1; x <= len(rb); x++ {
		column[0] = x
		lastDiag := x - 1
		for y := 1; y <= len(ra); y++ {
			oldDiag := column[y]
			cost := 0
			if ra[y-1] != rb[x-1] {
				cost = 1
			}
			column[y] = minOf(column[y]+1, column[y-1]+1, lastDiag+cost)
			lastDiag = oldDiag
		}
	}

	return column[len(ra)]
}

// LevenshteinSimilarity maps edit distance into [0,1]:
// (maxLen - distance) / maxLen. Two empty strings are identical by
// convention and score 1.0.
func LevenshteinSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1.0
	}
	distance := LevenshteinDistance(a, b)
	return float64(maxLen-distance) / float64(maxLen)
}

func minOf(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
