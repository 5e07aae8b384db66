package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyDocument indicates a document has no text to chunk or embed.
	ErrEmptyDocument = errors.New("empty document")

	// ErrUnsupportedFormat indicates no normaliser handles the MIME type.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrInvalidDocumentNumber indicates a diploma number not in N/YYYY form.
	ErrInvalidDocumentNumber = errors.New("invalid document number")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Answer generation and contract analysis are disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Vector search and ingestion are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrSearchUnavailable indicates the keyword search engine is not configured.
	ErrSearchUnavailable = errors.New("search engine unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrStoreUnavailable indicates the document store could not be opened.
	ErrStoreUnavailable = errors.New("document store unavailable")

	// ErrQueueUnavailable indicates the ingestion queue is not configured.
	ErrQueueUnavailable = errors.New("ingestion queue unavailable")

	// ErrRateLimited indicates an upstream API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
