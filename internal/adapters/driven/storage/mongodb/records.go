package mongodb

import (
	"fmt"
	"time"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// documentRecord is the BSON shape of a document.
type documentRecord struct {
	ID              string         `bson:"_id"`
	Source          string         `bson:"source"`
	URI             string         `bson:"uri"`
	Title           string         `bson:"title"`
	Content         string         `bson:"content"`
	DocumentType    string         `bson:"document_type"`
	Number          string         `bson:"number,omitempty"`
	PublicationDate string         `bson:"publication_date,omitempty"`
	Metadata        map[string]any `bson:"metadata,omitempty"`
	CreatedAt       time.Time      `bson:"created_at"`
	UpdatedAt       time.Time      `bson:"updated_at"`
}

// chunkRecord is the BSON shape of a chunk in the vectors collection.
// SearchText is only set while the chunk is keyword-indexed.
type chunkRecord struct {
	ID             string    `bson:"_id"`
	DocumentID     string    `bson:"document_id"`
	DocumentType   string    `bson:"document_type"`
	Content        string    `bson:"content"`
	SearchText     string    `bson:"search_text,omitempty"`
	Position       int       `bson:"position"`
	StartChar      int       `bson:"start_char"`
	EndChar        int       `bson:"end_char"`
	ChunkType      string    `bson:"chunk_type"`
	ArticleNumbers []string  `bson:"article_numbers"`
	LawReferences  []string  `bson:"law_references,omitempty"`
	Embedding      []float32 `bson:"embedding,omitempty"`
}

func toDocumentRecord(doc *domain.Document) documentRecord {
	docType := doc.Type
	if docType == "" {
		docType = domain.DocumentTypeOther
	}
	return documentRecord{
		ID:              doc.ID,
		Source:          string(doc.Source),
		URI:             doc.URI,
		Title:           doc.Title,
		Content:         doc.Content,
		DocumentType:    string(docType),
		Number:          doc.Number,
		PublicationDate: doc.PublicationDate,
		Metadata:        doc.Metadata,
		CreatedAt:       doc.CreatedAt.UTC(),
		UpdatedAt:       doc.UpdatedAt.UTC(),
	}
}

func (r documentRecord) toDomain() domain.Document {
	return domain.Document{
		ID:              r.ID,
		Source:          domain.DocumentSource(r.Source),
		URI:             r.URI,
		Title:           r.Title,
		Content:         r.Content,
		Type:            domain.DocumentType(r.DocumentType),
		Number:          r.Number,
		PublicationDate: r.PublicationDate,
		Metadata:        r.Metadata,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func toChunkRecord(c *domain.Chunk, docType domain.DocumentType) chunkRecord {
	numbers := []string{}
	if c.Meta != nil {
		if n := c.Meta.ArticleNumbers(); len(n) > 0 {
			numbers = n
		}
	}
	return chunkRecord{
		ID:             c.ID,
		DocumentID:     c.DocumentID,
		DocumentType:   string(docType),
		Content:        c.Content,
		Position:       c.Position,
		StartChar:      c.StartChar,
		EndChar:        c.EndChar,
		ChunkType:      string(c.Kind()),
		ArticleNumbers: numbers,
		LawReferences:  c.LawReferences,
		Embedding:      c.Embedding,
	}
}

func (r chunkRecord) toDomain() (domain.Chunk, error) {
	meta, err := domain.NewChunkMeta(domain.ChunkKind(r.ChunkType), r.ArticleNumbers)
	if err != nil {
		return domain.Chunk{}, fmt.Errorf("decoding chunk %s: %w", r.ID, err)
	}
	return domain.Chunk{
		ID:            r.ID,
		DocumentID:    r.DocumentID,
		Content:       r.Content,
		Position:      r.Position,
		StartChar:     r.StartChar,
		EndChar:       r.EndChar,
		Embedding:     r.Embedding,
		Meta:          meta,
		LawReferences: r.LawReferences,
	}, nil
}
