// Package markdown provides a Normaliser for Markdown documents, such as
// consolidated diplomas kept in version control. Heading markers are
// removed so "## Artigo 1.º" becomes an article heading at line start.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/normalisers/internal/docbuild"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser strips Markdown formatting.
type Normaliser struct{}

// New creates the Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the Markdown MIME types.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise strips the formatting. The title is the scraper hint, the
// first H1 or the file name.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	source := docbuild.UnixNewlines(string(raw.Content))
	title := docbuild.Title(raw, firstHeading(source))
	return docbuild.Result(raw, title, stripMarkdown(source), "markdown"), nil
}

// firstHeading returns the text of the first "# " heading.
func firstHeading(content string) string {
	for line := range strings.SplitSeq(content, "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

var (
	codeFence     = regexp.MustCompile("(?m)^```[^\n]*$")
	images        = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings      = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]+`)
	strong        = regexp.MustCompile(`(\*\*|__)([^*_\n]+)(\*\*|__)`)
	emphasis      = regexp.MustCompile(`\*([^*\n]+)\*`)
	inlineCode    = regexp.MustCompile("`([^`\n]+)`")
	blockquote    = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	horizontal    = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	bullets       = regexp.MustCompile(`(?m)^[ \t]*[*+][ \t]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes formatting while keeping legal numbering
// ("1 - ", "a) ", "2.") and code fence contents, which are often quoted
// legal text.
func stripMarkdown(content string) string {
	content = codeFence.ReplaceAllString(content, "")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = strong.ReplaceAllString(content, "$2")
	content = emphasis.ReplaceAllString(content, "$1")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = blockquote.ReplaceAllString(content, "")
	content = horizontal.ReplaceAllString(content, "")
	content = bullets.ReplaceAllString(content, "")
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
