// Package dedup implements duplicate resolution for newly ingested
// bibliographic records. For each record it extracts identifiers, runs
// independent candidate search strategies against the library store,
// aggregates the scored candidates, and applies a tiered policy: high
// confidence matches are auto-merged by deleting the new record, mid tier
// matches are flagged for review, and everything below the flag threshold is
// ignored. Failures at any stage degrade the affected record instead of
// aborting the batch.
package dedup
