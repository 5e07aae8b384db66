package html

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/normalisers/internal/docbuild"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts an HTML document to a normalised document.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	page, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := docbuild.Title(raw,
		cleanTitle(page.Find("title").First().Text()),
		cleanTitle(page.Find("h1").First().Text()))
	return docbuild.Result(raw, title, ExtractText(page.Selection), "html"), nil
}

// noise is removed before text extraction.
const noise = "script, style, noscript, svg, head, nav, footer, iframe, form"

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"main": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "td": true, "th": true, "tr": true, "ul": true,
}

var (
	inlineSpace = regexp.MustCompile(`[\s\x{00a0}]+`)
	lineSpace   = regexp.MustCompile(`[ \t]+`)
)

// ExtractText returns the readable text of a selection, one block element
// per line. Noise elements are removed from the selection first.
func ExtractText(sel *goquery.Selection) string {
	sel.Find(noise).Remove()

	var b strings.Builder
	var walk func(*xhtml.Node)
	walk = func(node *xhtml.Node) {
		switch node.Type {
		case xhtml.TextNode:
			b.WriteString(inlineSpace.ReplaceAllString(node.Data, " "))
			return
		case xhtml.ElementNode:
			if node.Data == "br" {
				b.WriteString("\n")
				return
			}
		}
		block := node.Type == xhtml.ElementNode && blockElements[node.Data]
		if block {
			b.WriteString("\n")
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if block {
			b.WriteString("\n")
		}
	}
	for _, node := range sel.Nodes {
		walk(node)
	}

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		line = strings.TrimSpace(lineSpace.ReplaceAllString(line, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func cleanTitle(s string) string {
	return strings.TrimSpace(inlineSpace.ReplaceAllString(s, " "))
}
