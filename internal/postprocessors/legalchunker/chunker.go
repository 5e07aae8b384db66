// Package legalchunker splits Portuguese legal documents along their article
// structure.
//
// A document decomposes into optional preamble chunks followed by chunks of
// whole articles packed up to a size limit. Text without recognisable
// articles is cut into plain windows instead. Chunking never fails: any
// string input yields a (possibly empty) sequence of chunks.
//
// Chunker is stateless after construction and safe for concurrent use.
package legalchunker

import (
	"unicode/utf8"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// DefaultMaxChunkSize is the default size bound for multi-article chunks.
const DefaultMaxChunkSize = 1000

// DefaultMinChunkSize is the default shortest preamble worth keeping.
const DefaultMinChunkSize = 200

// chunkGap is the blank line assumed between consecutive chunks when
// computing StartChar and EndChar.
const chunkGap = 2

// Chunk is one piece of a chunked document. Sizes and offsets are in
// characters (runes).
type Chunk struct {
	// Text is the chunk content.
	Text string

	// CharCount is the length of Text.
	CharCount int

	// Index is the 0-based position in emission order.
	Index int

	// StartChar and EndChar locate the chunk in the concatenation of all
	// chunks joined by blank lines.
	StartChar int
	EndChar   int

	// Meta describes what the chunk holds.
	Meta domain.ChunkMeta
}

// Result is the outcome of chunking one document.
type Result struct {
	// Chunks in emission order: preamble chunks first.
	Chunks []Chunk

	// Articles is the number of non-empty articles found.
	Articles int

	// DroppedArticles counts articles discarded for blank content.
	DroppedArticles int

	// Fallback reports that no articles were found and the text was windowed.
	Fallback bool
}

// Chunker is the article-aware chunking engine.
type Chunker struct {
	maxSize int
	minSize int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithMaxChunkSize sets the size bound in characters.
func WithMaxChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.maxSize = size
		}
	}
}

// WithMinChunkSize sets the shortest preamble kept, in characters.
func WithMinChunkSize(size int) Option {
	return func(c *Chunker) {
		if size >= 0 {
			c.minSize = size
		}
	}
}

// NewChunker creates a chunking engine.
func NewChunker(opts ...Option) *Chunker {
	c := &Chunker{
		maxSize: DefaultMaxChunkSize,
		minSize: DefaultMinChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxChunkSize returns the configured size bound.
func (c *Chunker) MaxChunkSize() int { return c.maxSize }

// MinChunkSize returns the configured preamble threshold.
func (c *Chunker) MinChunkSize() int { return c.minSize }

// Chunk splits text into chunks.
//
// When articles are found, a preamble longer than the minimum size is
// emitted first (windowed when longer than the maximum), followed by the
// packed articles. When none are found, the whole text is windowed and no
// separate preamble chunk is produced, so no text is emitted twice.
func (c *Chunker) Chunk(text string) Result {
	ex := extract(text)
	res := Result{
		Articles:        len(ex.articles),
		DroppedArticles: ex.dropped,
	}

	var chunks []Chunk
	if len(ex.articles) == 0 {
		res.Fallback = true
		chunks = fallback(text, c.maxSize, domain.FallbackMeta{})
	} else {
		if n := utf8.RuneCountInString(ex.preamble); n > c.minSize {
			if n > c.maxSize {
				chunks = fallback(ex.preamble, c.maxSize, domain.PreambleMeta{})
			} else {
				chunks = []Chunk{{Text: ex.preamble, CharCount: n, Meta: domain.PreambleMeta{}}}
			}
		}
		chunks = append(chunks, pack(ex.articles, c.maxSize)...)
	}

	position := 0
	for i := range chunks {
		chunks[i].Index = i
		chunks[i].StartChar = position
		chunks[i].EndChar = position + chunks[i].CharCount
		position = chunks[i].EndChar + chunkGap
	}
	res.Chunks = chunks
	return res
}

// Articles returns the non-empty articles of text in order.
func (c *Chunker) Articles(text string) []Article {
	return extract(text).articles
}
