// Package similarity provides the pure string and metadata similarity
// primitives used to score duplicate candidates: Levenshtein distance, banded
// title and author scores, and the weighted combination over title, author,
// and publication year.
package similarity
