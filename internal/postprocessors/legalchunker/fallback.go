package legalchunker

import (
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// snapRatio is the share of a window that must be kept for a window to be
// shortened to a sentence or line boundary.
const snapRatio = 0.7

// fallback cuts text into windows of at most maxSize characters. A non-final
// window ends after its last '.' or newline when that keeps more than
// snapRatio of the window, unless the rest of the text would then need more
// than ceil(len/maxSize) windows overall. Each window starts where the
// previous ended, so no text is lost. Windows that are blank after trimming
// are skipped.
func fallback(text string, maxSize int, meta domain.ChunkMeta) []Chunk {
	runes := []rune(text)
	budget := (len(runes) + maxSize - 1) / maxSize
	var chunks []Chunk

	for start, window := 0, 1; start < len(runes); window++ {
		end := start + maxSize
		if end >= len(runes) {
			end = len(runes)
		} else if split := lastBoundary(runes[start:end]); float64(split) > snapRatio*float64(maxSize) &&
			len(runes)-(start+split+1) <= (budget-window)*maxSize {
			end = start + split + 1
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			chunks = append(chunks, Chunk{
				Text:      piece,
				CharCount: utf8.RuneCountInString(piece),
				Meta:      meta,
			})
		}
		start = end
	}
	return chunks
}

// lastBoundary returns the index of the last '.' or '\n', or -1.
func lastBoundary(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' || window[i] == '\n' {
			return i
		}
	}
	return -1
}
