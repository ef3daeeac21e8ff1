// Package services defines shared utilities consumed by the dedup engine and
// the record store.
//
// Key responsibilities:
//   - Context helpers that stamp batch identifiers and record keys for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent categories (timeout vs transaction vs general).
//
// Use these helpers when wiring new engine logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
