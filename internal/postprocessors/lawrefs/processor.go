// Package lawrefs annotates chunks with the diplomas they cite.
package lawrefs

import (
	"context"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/legal"
)

// MetaLawReferences is the document metadata key holding every reference.
const MetaLawReferences = "law_references"

// Processor sets Chunk.LawReferences from the chunk text.
// It implements the PostProcessor interface.
type Processor struct{}

// Verify interface compliance.
var _ driven.PostProcessor = (*Processor)(nil)

// New creates a law reference processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "law_references"
}

// Process annotates chunks in place and records the document-wide list.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var all []string
	for i := range chunks {
		refs := legal.LawReferenceStrings(chunks[i].Content)
		chunks[i].LawReferences = refs
		for _, r := range refs {
			if !seen[r] {
				seen[r] = true
				all = append(all, r)
			}
		}
	}

	if len(all) > 0 {
		if doc.Metadata == nil {
			doc.Metadata = make(map[string]any)
		}
		doc.Metadata[MetaLawReferences] = all
	}
	return chunks, nil
}
