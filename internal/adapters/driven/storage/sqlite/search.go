package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

// ==================== Search Engine ====================

// searchEngine implements driven.SearchEngine over the chunks_fts FTS5 table.
type searchEngine struct {
	store *Store
}

var _ driven.SearchEngine = (*searchEngine)(nil)

var ftsTokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Index adds or replaces a chunk in the full-text index.
func (e *searchEngine) Index(ctx context.Context, chunk domain.Chunk) error {
	if chunk.ID == "" {
		return domain.ErrInvalidInput
	}

	return e.store.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks_fts WHERE chunk_id = ?", chunk.ID); err != nil {
			return fmt.Errorf("clearing fts entry: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO chunks_fts (chunk_id, content) VALUES (?, ?)", chunk.ID, chunk.Content); err != nil {
			return fmt.Errorf("indexing chunk: %w", err)
		}
		return nil
	})
}

// Delete removes a chunk from the full-text index.
func (e *searchEngine) Delete(ctx context.Context, chunkID string) error {
	if _, err := e.store.db.ExecContext(ctx, "DELETE FROM chunks_fts WHERE chunk_id = ?", chunkID); err != nil {
		return fmt.Errorf("deleting fts entry: %w", err)
	}
	return nil
}

// Search ranks indexed chunks against the query with BM25.
// Any query term may match. Scores are negated BM25 so higher is better.
func (e *searchEngine) Search(
	ctx context.Context,
	query string,
	limit int,
	filter domain.ChunkFilter,
) ([]driven.SearchHit, error) {
	match := ftsQuery(query)
	if match == "" || limit <= 0 {
		return nil, nil
	}

	conds, args := chunkFilterConditions(filter)
	where := "chunks_fts MATCH ?"
	if len(conds) > 0 {
		where += " AND " + strings.Join(conds, " AND ")
	}
	args = append([]any{match}, args...)
	args = append(args, limit)

	rows, err := e.store.db.QueryContext(ctx, `
		SELECT chunks_fts.chunk_id, bm25(chunks_fts) AS rank
		FROM chunks_fts
		JOIN chunks c ON c.id = chunks_fts.chunk_id
		JOIN documents d ON d.id = c.document_id
		WHERE `+where+`
		ORDER BY rank, chunks_fts.chunk_id
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var hits []driven.SearchHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var hit driven.SearchHit
		var rank float64
		if err := rows.Scan(&hit.ChunkID, &rank); err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}
		hit.Score = -rank
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search hits: %w", err)
	}

	return hits, nil
}

// Close is a no-op; the owning Store closes the database.
func (e *searchEngine) Close() error {
	return nil
}

// ftsQuery turns free text into an FTS5 expression of quoted terms joined by OR.
// Punctuation such as "n.º" or "/" never reaches the FTS5 parser.
func ftsQuery(query string) string {
	tokens := ftsTokenPattern.FindAllString(query, -1)
	if len(tokens) == 0 {
		return ""
	}
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = `"` + t + `"`
	}
	return strings.Join(quoted, " OR ")
}
