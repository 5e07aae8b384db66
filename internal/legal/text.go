package legal

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxEmbeddingChars is the longest text sent to an embedding model.
const MaxEmbeddingChars = 8000

var (
	zeroWidth     = strings.NewReplacer("\u200b", "", "\u200c", "", "\u200d", "", "\ufeff", "")
	horizontalWS  = regexp.MustCompile(`[ \t\f\v\p{Zs}]+`)
	excessNewline = regexp.MustCompile(`\n{3,}`)
	anyWS         = regexp.MustCompile(`\s+`)
)

// CleanText normalises line endings and Unicode (NFC), removes zero-width
// characters, collapses runs of spaces and blank lines, and trims.
// Line structure is kept since article markers depend on it.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = norm.NFC.String(text)
	text = zeroWidth.Replace(text)
	text = horizontalWS.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = excessNewline.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// PrepareForEmbedding collapses all whitespace to single spaces and truncates
// to MaxEmbeddingChars characters, appending "..." when truncated.
func PrepareForEmbedding(text string) string {
	text = strings.TrimSpace(anyWS.ReplaceAllString(text, " "))
	if utf8.RuneCountInString(text) <= MaxEmbeddingChars {
		return text
	}
	return string([]rune(text)[:MaxEmbeddingChars]) + "..."
}

// Truncate returns the first n characters of text.
func Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n])
}
