package sqlite

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// timeLayout is a fixed-width UTC layout so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// collect drains and closes rows, scanning each with scan.
func collect[T any](rows *sql.Rows, scan func(rowScanner) (*T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}

// sqlLimit maps "no limit" to SQLite's LIMIT -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

// chunkFilterClause builds a WHERE clause over chunks c joined to documents d.
func chunkFilterClause(filter domain.ChunkFilter) (string, []any) {
	conds, args := chunkFilterConditions(filter)
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// chunkFilterConditions returns the filter as SQL conditions over c and d.
func chunkFilterConditions(filter domain.ChunkFilter) (conds []string, args []any) {
	add := func(cond string, vals ...any) {
		conds = append(conds, cond)
		args = append(args, vals...)
	}

	if filter.DocumentID != "" {
		add("c.document_id = ?", filter.DocumentID)
	}
	if n := len(filter.DocumentTypes); n > 0 {
		types := make([]any, n)
		for i, t := range filter.DocumentTypes {
			types[i] = string(t)
		}
		add("d.document_type IN (?"+strings.Repeat(", ?", n-1)+")", types...)
	}
	if filter.ArticleNumber != "" {
		add("EXISTS (SELECT 1 FROM chunk_articles ca WHERE ca.chunk_id = c.id AND ca.article_number = ?)",
			filter.ArticleNumber)
	}
	if filter.Kind != "" {
		add("c.chunk_type = ?", string(filter.Kind))
	}
	return conds, args
}

// float32SliceToBytes packs a vector as little-endian float32s.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, 0, 4*len(floats))
	for _, f := range floats {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice unpacks a vector written by float32SliceToBytes.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) < 4 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return floats
}

// jsonStrings encodes a string list as a JSON array, never null.
func jsonStrings(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(values) // a []string always marshals
	return string(b)
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc                   domain.Document
		source, docType, meta string
		createdAt, updatedAt  sql.NullString
	)
	if err := row.Scan(&doc.ID, &source, &doc.URI, &doc.Title, &doc.Content, &docType,
		&doc.Number, &doc.PublicationDate, &meta, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Source = domain.DocumentSource(source)
	doc.Type = domain.DocumentType(docType)
	doc.CreatedAt = parseNullableTime(createdAt)
	doc.UpdatedAt = parseNullableTime(updatedAt)
	if meta != "" && meta != "null" {
		if err := json.Unmarshal([]byte(meta), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}
	}
	return &doc, nil
}

// scanChunk scans a row selected with chunkColumns. Article numbers are
// validated against the chunk kind by domain.NewChunkMeta.
func scanChunk(row rowScanner) (*domain.Chunk, error) {
	var (
		chunk               domain.Chunk
		kind, numbers, refs string
		embedding           []byte
	)
	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content, &chunk.Position,
		&chunk.StartChar, &chunk.EndChar, &kind, &numbers, &refs, &embedding); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	var articles []string
	if err := json.Unmarshal([]byte(numbers), &articles); err != nil {
		return nil, fmt.Errorf("unmarshalling article numbers: %w", err)
	}
	meta, err := domain.NewChunkMeta(domain.ChunkKind(kind), articles)
	if err != nil {
		return nil, fmt.Errorf("decoding chunk %s: %w", chunk.ID, err)
	}
	chunk.Meta = meta

	if err := json.Unmarshal([]byte(refs), &chunk.LawReferences); err != nil {
		return nil, fmt.Errorf("unmarshalling law references: %w", err)
	}
	if len(chunk.LawReferences) == 0 {
		chunk.LawReferences = nil
	}
	chunk.Embedding = bytesToFloat32Slice(embedding)
	return &chunk, nil
}

// formatNullableTime renders t in timeLayout, or nil for the zero time.
func formatNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

// parseNullableTime returns the zero time for NULL or unparsable values.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

// nullString stores the empty string as NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
