package services

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/lexrag/internal/legal"
)

const (
	maxHighlights      = 3
	maxHighlightLength = 200
	minHighlightTerm   = 3
)

// generateHighlights returns up to three sentences of content that contain
// a query term, each cut to maxHighlightLength runes. Terms shorter than
// three runes are ignored; nil means no term was long enough.
func generateHighlights(content, query string) []string {
	terms := highlightTerms(query)
	if len(terms) == 0 {
		return nil
	}

	var out []string
	for _, sentence := range splitSentences(content) {
		lower := strings.ToLower(sentence)
		if !slices.ContainsFunc(terms, func(t string) bool { return strings.Contains(lower, t) }) {
			continue
		}
		if utf8.RuneCountInString(sentence) > maxHighlightLength {
			sentence = legal.Truncate(sentence, maxHighlightLength) + "..."
		}
		if out = append(out, sentence); len(out) == maxHighlights {
			break
		}
	}
	return out
}

func highlightTerms(query string) []string {
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(query)) {
		f = strings.Trim(f, `.,;:!?"'()`)
		if utf8.RuneCountInString(f) >= minHighlightTerm {
			terms = append(terms, f)
		}
	}
	return terms
}

// splitSentences breaks content after '!', '?' and newlines, and after a
// period followed by whitespace or the end, so "n.º 23/2023" and
// "Artigo 1.º" stay whole.
func splitSentences(content string) []string {
	var out []string
	start := 0
	emit := func(end int) {
		if s := strings.TrimSpace(content[start:end]); s != "" {
			out = append(out, s)
		}
		start = end
	}

	for i, r := range content {
		_, size := utf8.DecodeRuneInString(content[i:])
		next := i + size
		switch r {
		case '!', '?', '\n':
			emit(next)
		case '.':
			if rest, _ := utf8.DecodeRuneInString(content[next:]); next == len(content) || unicode.IsSpace(rest) {
				emit(next)
			}
		}
	}
	emit(len(content))
	return out
}
