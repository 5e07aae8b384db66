package domain

import "time"

// Document represents a legal document stored for retrieval.
type Document struct {
	// ID is the deterministic identifier derived from content and legal identity.
	ID string

	// Source records where the document came from.
	Source DocumentSource

	// URI is the original location (file path, diploma URL, etc).
	URI string

	// Title is the diploma title or file name.
	Title string

	// Content is the normalised text used for chunking.
	Content string

	// Type is the legal document type and drives the chunking strategy.
	Type DocumentType

	// Number is the diploma number in N/YYYY form, empty when unknown.
	Number string

	// PublicationDate is the publication date in YYYY-MM-DD form, empty when unknown.
	PublicationDate string

	// Metadata contains extensible key-value pairs (summary, mime_type, dropped_articles...).
	Metadata map[string]any

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last re-ingested.
	UpdatedAt time.Time
}

// Chunk represents an embeddable unit of a document.
type Chunk struct {
	// ID uniquely identifies this chunk.
	ID string

	// DocumentID links to the parent document.
	DocumentID string

	// Content is the chunk text submitted for embedding.
	Content string

	// Position is the chunk_index within the document (0-based, emission order).
	Position int

	// StartChar is the offset into the virtual concatenation of the document's chunks.
	StartChar int

	// EndChar is StartChar plus the chunk length in characters.
	EndChar int

	// Embedding is the vector representation (nil until embedded).
	Embedding []float32

	// Meta describes which structural units the chunk carries.
	Meta ChunkMeta

	// LawReferences lists diplomas cited in the chunk text (e.g. "Lei n.º 23/2023").
	LawReferences []string
}

// Kind returns the chunk kind, treating a missing Meta as fallback.
func (c *Chunk) Kind() ChunkKind {
	if c.Meta == nil {
		return ChunkKindFallback
	}
	return c.Meta.Kind()
}

// DocumentSource records the origin of a document.
type DocumentSource string

// Known document sources.
const (
	SourceDiarioRepublica DocumentSource = "diario_republica"
	SourceUpload          DocumentSource = "upload"
	SourceManual          DocumentSource = "manual"
	SourceScraper         DocumentSource = "scraper"
)

// IsValid returns true if the source is recognised.
func (s DocumentSource) IsValid() bool {
	switch s {
	case SourceDiarioRepublica, SourceUpload, SourceManual, SourceScraper:
		return true
	default:
		return false
	}
}
