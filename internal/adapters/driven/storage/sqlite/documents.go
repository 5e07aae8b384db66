package sqlite

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

// documentStore keeps documents, chunks and the chunk_articles join table.
// Deleting a document cascades to its chunks, their articles and FTS rows.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, source, uri, title, content, document_type, number,
	publication_date, metadata, created_at, updated_at`

const chunkColumns = `c.id, c.document_id, c.content, c.position, c.start_char, c.end_char,
	c.chunk_type, c.article_numbers, c.law_references, c.embedding`

const upsertDocument = `
	INSERT INTO documents (` + documentColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		source = excluded.source,
		uri = excluded.uri,
		title = excluded.title,
		content = excluded.content,
		document_type = excluded.document_type,
		number = excluded.number,
		publication_date = excluded.publication_date,
		metadata = excluded.metadata,
		updated_at = excluded.updated_at`

const upsertChunk = `
	INSERT INTO chunks (id, document_id, content, position, start_char, end_char,
		chunk_type, article_numbers, law_references, embedding)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		document_id = excluded.document_id,
		content = excluded.content,
		position = excluded.position,
		start_char = excluded.start_char,
		end_char = excluded.end_char,
		chunk_type = excluded.chunk_type,
		article_numbers = excluded.article_numbers,
		law_references = excluded.law_references,
		embedding = excluded.embedding`

// SaveDocument inserts or replaces a document; created_at survives updates.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	if _, err := s.store.db.ExecContext(ctx, upsertDocument,
		doc.ID, string(doc.Source), doc.URI, doc.Title, doc.Content,
		string(cmp.Or(doc.Type, domain.DocumentTypeOther)),
		doc.Number, doc.PublicationDate, string(meta),
		formatNullableTime(doc.CreatedAt), formatNullableTime(doc.UpdatedAt)); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// SaveChunks upserts chunks and rewrites their article membership, all in
// one transaction.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	return s.store.inTx(ctx, func(tx *sql.Tx) error {
		chunkStmt, err := tx.PrepareContext(ctx, upsertChunk)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer chunkStmt.Close()

		articleStmt, err := tx.PrepareContext(ctx,
			"INSERT OR IGNORE INTO chunk_articles (chunk_id, article_number) VALUES (?, ?)")
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer articleStmt.Close()

		for i := range chunks {
			c := &chunks[i]
			if c.ID == "" || c.DocumentID == "" {
				return fmt.Errorf("saving chunk %d: %w", i, domain.ErrInvalidInput)
			}

			var numbers []string
			if c.Meta != nil {
				numbers = c.Meta.ArticleNumbers()
			}
			if _, err := chunkStmt.ExecContext(ctx, c.ID, c.DocumentID, c.Content,
				c.Position, c.StartChar, c.EndChar, string(c.Kind()),
				jsonStrings(numbers), jsonStrings(c.LawReferences),
				float32SliceToBytes(c.Embedding)); err != nil {
				return fmt.Errorf("saving chunk: %w", err)
			}

			if _, err := tx.ExecContext(ctx, "DELETE FROM chunk_articles WHERE chunk_id = ?", c.ID); err != nil {
				return fmt.Errorf("clearing chunk articles: %w", err)
			}
			for _, n := range numbers {
				if _, err := articleStmt.ExecContext(ctx, c.ID, n); err != nil {
					return fmt.Errorf("saving chunk article: %w", err)
				}
			}
		}
		return nil
	})
}

func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return scanDocument(s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id))
}

// GetChunks returns a document's chunks in position order.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks c WHERE c.document_id = ? ORDER BY c.position", documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	return collect(rows, scanChunk)
}

func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	return scanChunk(s.store.db.QueryRowContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks c WHERE c.id = ?", id))
}

// FindChunks returns chunks matching the filter, ordered by document and
// position. A limit of zero or less returns every match.
func (s *documentStore) FindChunks(
	ctx context.Context, filter domain.ChunkFilter, limit int,
) ([]domain.Chunk, error) {
	where, args := chunkFilterClause(filter)
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+chunkColumns+`
		FROM chunks c JOIN documents d ON d.id = c.document_id
		`+where+`
		ORDER BY c.document_id, c.position
		LIMIT ?`, append(args, sqlLimit(limit))...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	return collect(rows, scanChunk)
}

func (s *documentStore) DeleteChunks(ctx context.Context, documentID string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ListDocuments returns documents, most recently published first. An empty
// docType lists every type; a limit of zero or less lists all.
func (s *documentStore) ListDocuments(
	ctx context.Context, docType domain.DocumentType, limit int,
) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE (?1 = '' OR document_type = ?1)
		ORDER BY publication_date DESC, created_at DESC, id
		LIMIT ?2`, string(docType), sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	return collect(rows, scanDocument)
}
