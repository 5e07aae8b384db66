package legalchunker

import (
	"regexp"
	"strings"
)

// MarkerKind distinguishes article headings from chapter-like headings.
type MarkerKind int

const (
	// MarkerArticle opens an article ("Artigo 1.º", "Art. 2.º", "ARTIGO I").
	MarkerArticle MarkerKind = iota

	// MarkerChapter is a CAPÍTULO, TÍTULO or SECÇÃO heading. It only ends
	// the previous article and never becomes an article itself.
	MarkerChapter
)

// Marker is a structural heading found in the text.
// Start and End are byte offsets of the heading. For articles the heading
// includes the title line.
type Marker struct {
	Kind   MarkerKind
	Number string
	Title  string
	Start  int
	End    int
}

// Building blocks of the structural pattern. Roman numerals are matched
// case-sensitively so words such as "mil" or "civil" are never numerals.
const (
	roman        = `(?-i:[IVXLCDM]+)`
	arabic       = `\d+\.?º(?:-[A-Z])?`
	articleLabel = `((?:Artigo|Art\.)[ \t]+(?:` + arabic + `|` + roman + `|único))`
	chapterLabel = `((?:CAPÍTULO|TÍTULO|SUBSECÇÃO|SECÇÃO)[ \t]+` + roman + `)`
)

// Every alternative has exactly two groups (label, title), so alternative k
// owns groups 2k+1 and 2k+2. At a given offset the first matching
// alternative wins.
//
// Chapter headings stop at the end of their line, CRLF included: the line
// after them is either a heading title or the next article, and must stay
// visible to the article alternatives.
var structuralPattern = regexp.MustCompile(`(?im)` +
	// CAPÍTULO I
	`^[ \t]*` + chapterLabel + `([ \t]*)\r?$` +
	// === ARTIGO 1.º === \n Título
	`|^[ \t]*===[ \t]*` + articleLabel + `[ \t]*===\s*\n([^\n]*)` +
	// Artigo 1.º \n Título
	`|^[ \t]*` + articleLabel + `\s*\n([^\n]*)` +
	// Artigo 1.º - Título
	`|^[ \t]*` + articleLabel + `[ \t]*[-–—][ \t]*([^\n]*)`)

const chapterAlternatives = 1

// tokenize returns every structural marker in textual order in one pass.
func tokenize(text string) []Marker {
	matches := structuralPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	markers := make([]Marker, 0, len(matches))
	for _, m := range matches {
		for alt := 0; 2*alt+2 < len(m)/2; alt++ {
			numIdx := 2 * (2*alt + 1)
			if m[numIdx] < 0 {
				continue
			}
			marker := Marker{
				Kind:   MarkerArticle,
				Number: text[m[numIdx]:m[numIdx+1]],
				Start:  m[0],
				End:    m[1],
			}
			if alt < chapterAlternatives {
				marker.Kind = MarkerChapter
			} else if titleIdx := numIdx + 2; m[titleIdx] >= 0 {
				marker.Title = strings.TrimSpace(text[m[titleIdx]:m[titleIdx+1]])
			}
			markers = append(markers, marker)
			break
		}
	}

	for i := range markers {
		if markers[i].Kind == MarkerChapter {
			markers[i].Title = chapterTitle(text, markers, i)
		}
	}
	return markers
}

// chapterTitle is the first non-blank line between a chapter heading and the
// next marker.
func chapterTitle(text string, markers []Marker, i int) string {
	end := len(text)
	if i+1 < len(markers) {
		end = markers[i+1].Start
	}
	for _, line := range strings.Split(text[markers[i].End:end], "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
