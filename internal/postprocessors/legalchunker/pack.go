package legalchunker

import (
	"strings"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// articleSeparator joins articles inside one chunk.
const articleSeparator = "\n\n"

const separatorLen = len(articleSeparator)

// pack groups consecutive articles greedily so that every multi-article
// chunk stays within maxSize characters, separators included. An article
// larger than maxSize is emitted alone and never split.
func pack(articles []Article, maxSize int) []Chunk {
	var (
		chunks  []Chunk
		current []Article
		size    int
	)

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, articlesChunk(current))
			current = nil
			size = 0
		}
	}

	for _, a := range articles {
		switch {
		case a.CharCount > maxSize:
			flush()
			chunks = append(chunks, articlesChunk([]Article{a}))
		case len(current) > 0 && size+separatorLen+a.CharCount > maxSize:
			flush()
			current = []Article{a}
			size = a.CharCount
		case len(current) == 0:
			current = []Article{a}
			size = a.CharCount
		default:
			current = append(current, a)
			size += separatorLen + a.CharCount
		}
	}
	flush()
	return chunks
}

func articlesChunk(articles []Article) Chunk {
	texts := make([]string, len(articles))
	numbers := make([]string, len(articles))
	size := 0
	for i, a := range articles {
		texts[i] = a.FullText
		numbers[i] = a.Number
		size += a.CharCount
	}
	return Chunk{
		Text:      strings.Join(texts, articleSeparator),
		CharCount: size + separatorLen*(len(articles)-1),
		Meta:      domain.ArticlesMeta{Numbers: numbers},
	}
}
