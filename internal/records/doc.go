// Package records provides the library record store consumed by the dedup
// engine.
//
// The engine depends only on the Record and Library interfaces; the concrete
// Store is a SQLite implementation (modernc.org/sqlite, WAL mode) holding
// records, their creators, and owning collections. Searches are bounded and
// deterministic, attachments/notes and deleted rows are always filtered out,
// and deletion is a soft mark so record keys remain resolvable after a merge.
package records
