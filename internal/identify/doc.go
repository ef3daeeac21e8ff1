// Package identify derives matching signals from bibliographic records.
//
// Extract reads structured identifier fields first (DOI, ISBN, ISSN), then
// scans the free-text extra annotation and URL for PMID, PMCID, and ArXiv
// identifiers. It also computes a normalized URL and title so downstream
// comparisons are stable under tracking parameters, casing, punctuation, and
// whitespace differences. Extraction never fails; a signal that cannot be
// derived is simply absent from the IdentifierSet.
package identify
