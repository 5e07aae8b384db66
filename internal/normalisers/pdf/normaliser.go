// Package pdf provides a Normaliser for PDF documents such as Diário da
// República series I issues. Page text is extracted with ledongthuc/pdf and
// pages are joined by blank lines.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/logger"
	"github.com/custodia-labs/lexrag/internal/normalisers/internal/docbuild"
)

// maxSize caps the bytes read into memory.
const maxSize = 200 << 20

var log = logger.With("pdf")

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the text of every page.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if len(raw.Content) > maxSize {
		return nil, fmt.Errorf("pdf of %d bytes: %w", len(raw.Content), domain.ErrUnsupportedFormat)
	}

	content, pages, err := extractText(ctx, raw.Content)
	if err != nil {
		return nil, err
	}

	res := docbuild.Result(raw, extractTitle(raw, content), content, "pdf")
	res.Document.Metadata["pages"] = pages
	return res, nil
}

// extractText returns the joined page text and the page count. Pages that
// fail to decode are skipped with a warning.
func extractText(ctx context.Context, content []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", domain.ErrInvalidInput)
	}

	total := reader.NumPage()
	texts := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Warn("page %d: %v", i, err)
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "\n\n"), total, nil
}

// extractTitle prefers the scraper hint, then the first line of text.
func extractTitle(raw *domain.RawDocument, content string) string {
	return docbuild.Title(raw, docbuild.FirstLine(content))
}
