package legalchunker

import (
	"strings"
	"unicode/utf8"
)

// Article is one article of a legal document.
type Article struct {
	// Number is the label as written, e.g. "Artigo 1.º".
	Number string

	// Title is the heading line after the label. May be empty.
	Title string

	// Content is the body up to the next structural marker.
	Content string

	// FullText is number, title (if any) and content, one per line.
	FullText string

	// CharCount is the length of FullText in characters.
	CharCount int
}

func newArticle(number, title, content string) Article {
	var b strings.Builder
	b.WriteString(number)
	if title != "" {
		b.WriteString("\n")
		b.WriteString(title)
	}
	b.WriteString("\n")
	b.WriteString(content)
	full := b.String()
	return Article{
		Number:    number,
		Title:     title,
		Content:   content,
		FullText:  full,
		CharCount: utf8.RuneCountInString(full),
	}
}

// extraction is the structural decomposition of a text.
type extraction struct {
	preamble string
	articles []Article
	dropped  int
}

// extract splits text into its preamble and articles. The preamble is the
// text before the first marker of any kind; with no markers it is the whole
// text. An untitled article whose single line was read as its title keeps
// that line as content when it ends like a sentence. Articles whose content
// is still blank are dropped and counted.
func extract(text string) extraction {
	markers := tokenize(text)
	if len(markers) == 0 {
		return extraction{preamble: text}
	}

	ex := extraction{preamble: strings.TrimSpace(text[:markers[0].Start])}
	for i, mk := range markers {
		if mk.Kind != MarkerArticle {
			continue
		}
		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1].Start
		}
		title, content := mk.Title, strings.TrimSpace(text[mk.End:end])
		if content == "" && isSentence(title) {
			title, content = "", title
		}
		if content == "" {
			ex.dropped++
			continue
		}
		ex.articles = append(ex.articles, newArticle(strings.TrimSpace(mk.Number), title, content))
	}
	return ex
}

// isSentence reports whether line ends with terminal punctuation. Article
// headings such as "Objeto" or "Entrada em vigor" never do.
func isSentence(line string) bool {
	return strings.HasSuffix(line, ".") || strings.HasSuffix(line, ";") || strings.HasSuffix(line, ":")
}
