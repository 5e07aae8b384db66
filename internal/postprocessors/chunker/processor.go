// Package chunker provides an overlapping fixed-size text chunking processor
// for documents without article structure (contracts, notices, dispatches).
package chunker

import (
	"cmp"
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// Window defaults, in characters.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// snapRatio is the share of a window that must be kept for the window to be
// shortened to a sentence or line boundary.
const snapRatio = 0.5

// Processor is the "chunker" post-processor. Overlap is always smaller
// than the chunk size.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures a Processor. Out-of-range values are ignored.
type Option func(*Processor)

// WithChunkSize sets the window length; it must be positive.
func WithChunkSize(size int) Option {
	return func(p *Processor) { p.chunkSize = cmp.Or(max(size, 0), p.chunkSize) }
}

// WithOverlap sets how many characters consecutive windows share.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New builds a processor. An overlap that does not fit the window falls
// back to a quarter of it.
func New(opts ...Option) *Processor {
	p := &Processor{chunkSize: DefaultChunkSize, overlap: DefaultChunkOverlap}
	for _, opt := range opts {
		opt(p)
	}
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}
	return p
}

// Name returns the pipeline name of the processor.
func (p *Processor) Name() string { return "chunker" }

// Span is a window of text located by rune offsets into the source.
type Span struct {
	Text  string
	Start int
	End   int
}

// Split cuts text into overlapping windows. A non-final window ends after
// its last '.' or newline when that keeps more than half of the window.
// Windows are trimmed and blank windows are skipped. The final window ends
// at the end of the text.
func (p *Processor) Split(text string) []Span {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	spans := make([]Span, 0, n/(p.chunkSize-p.overlap)+1)
	start := 0
	for start < n {
		end := start + p.chunkSize
		if end >= n {
			end = n
		} else if split := lastBoundary(runes[start:end]); float64(split) > snapRatio*float64(p.chunkSize) {
			end = start + split + 1
		}

		window := string(runes[start:end])
		trimmed := strings.TrimSpace(window)
		if trimmed != "" {
			lead := utf8.RuneCountInString(window[:strings.Index(window, trimmed)])
			spans = append(spans, Span{
				Text:  trimmed,
				Start: start + lead,
				End:   start + lead + utf8.RuneCountInString(trimmed),
			})
		}

		if end == n {
			break
		}
		next := end - p.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return spans
}

// Process replaces any incoming chunks with character windows over the
// document content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	spans := p.Split(doc.Content)
	if len(spans) == 0 {
		return nil, nil
	}
	chunks := make([]domain.Chunk, 0, len(spans))
	for i, s := range spans {
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Content:    s.Text,
			Position:   i,
			StartChar:  s.Start,
			EndChar:    s.End,
			Meta:       domain.CharacterMeta{},
		})
	}
	return chunks, nil
}

func lastBoundary(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' || window[i] == '\n' {
			return i
		}
	}
	return -1
}
