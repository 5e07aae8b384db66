// Package plaintext is the fallback Normaliser for any text/* document no
// other normaliser claims.
package plaintext

import (
	"context"
	"unicode/utf8"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/normalisers/internal/docbuild"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser passes UTF-8 text through with Unix line endings.
type Normaliser struct{}

// New creates the plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes claims text/plain and, as a fallback, every text/* type.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain", "text/*"}
}

// Priority is the lowest of the built-in normalisers.
func (n *Normaliser) Priority() int {
	return 5
}

// Normalise rejects content that is not valid UTF-8. The title is the
// scraper hint or the file name.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if !utf8.Valid(raw.Content) {
		return nil, domain.ErrUnsupportedFormat
	}
	return docbuild.Result(raw, docbuild.Title(raw), docbuild.UnixNewlines(string(raw.Content)), ""), nil
}
