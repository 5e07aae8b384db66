// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Normaliser / NormaliserRegistry: turn raw bytes into documents
//   - PostProcessorPipeline: chunk documents (article-aware for statutes)
//   - DocumentStore: document and chunk persistence with metadata filters
//   - SearchEngine: keyword search over chunks (SQLite FTS5, MongoDB $text)
//   - ConfigStore: application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - VectorIndex: similarity search. Only enabled when EmbeddingService is configured.
//   - EmbeddingService: generates vector embeddings. Without it, search is keyword-only.
//   - LLMService: answers questions and analyses contracts. Without it, ask returns sources only.
//   - Scraper: fetches diplomas from the Diário da República.
//   - TaskQueue: background ingestion through Redis.
//   - SchedulerStore: persists periodic task history.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
