package driven

import (
	"context"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// Normaliser transforms raw documents into indexed form.
// Each normaliser handles specific MIME types (e.g., PDF, HTML).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	// "*/*" matches any type.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Specific MIME normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise transforms a raw document into a document with Content set.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Chunking is handled by the PostProcessor pipeline.
type NormaliseResult struct {
	// Document is the normalised document with Content field populated.
	Document domain.Document
}
