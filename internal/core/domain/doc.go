// Package domain defines the core business entities for lexrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: a legal document (lei, decreto-lei, portaria, contract...)
//   - Chunk: an embeddable unit of a document with typed provenance metadata
//   - ChunkMeta: the closed set of chunk kinds (articles, preamble, fallback, character)
//   - RawDocument: opaque bytes from a connector or scraper
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
