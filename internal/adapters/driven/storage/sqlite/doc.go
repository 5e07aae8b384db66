// Package sqlite provides the local SQLite implementation of the storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. One database connection backs several port interfaces:
//
//   - DocumentStore: documents, chunks and the chunk_articles join table
//   - SearchEngine: keyword search over the chunks_fts FTS5 table
//   - VectorIndex: brute-force cosine search over stored embeddings
//   - SchedulerStore: scheduled task state and run history
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.lexrag/data/lexrag.db
//
// # Thread Safety
//
// All operations are thread-safe. The store relies on SQLite WAL mode and a
// busy timeout for concurrent writers.
package sqlite
