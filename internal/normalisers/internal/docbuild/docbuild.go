// Package docbuild assembles the document every normaliser returns, so the
// per-format packages only extract text and a title.
package docbuild

import (
	"maps"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

// Metadata keys set on every normalised document.
const (
	MetaMIMEType = "mime_type"
	MetaFormat   = "format"
)

// Result wraps a document built from raw. The raw metadata is copied, never
// shared. An empty format is left out of the metadata.
func Result(raw *domain.RawDocument, title, content, format string) *driven.NormaliseResult {
	meta := maps.Clone(raw.Metadata)
	if meta == nil {
		meta = make(map[string]any, 2)
	}
	meta[MetaMIMEType] = raw.MIMEType
	if format != "" {
		meta[MetaFormat] = format
	}

	now := time.Now()
	return &driven.NormaliseResult{Document: domain.Document{
		Source:    raw.Source,
		URI:       raw.URI,
		Title:     title,
		Content:   content,
		Metadata:  meta,
		CreatedAt: now,
		UpdatedAt: now,
	}}
}

// Title picks the scraper's title hint, then the first non-blank candidate,
// then a title derived from the file name.
func Title(raw *domain.RawDocument, candidates ...string) string {
	if hint := raw.Hint(domain.HintTitle); hint != "" {
		return hint
	}
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return FromURI(raw.URI)
}

// FromURI turns "/docs/lei_23-2023.txt" into "lei 23 2023".
func FromURI(uri string) string {
	name := filepath.Base(uri)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}

// FirstLine returns the first non-blank line of text, trimmed.
func FirstLine(text string) string {
	for line := range strings.SplitSeq(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// UnixNewlines converts CRLF and lone CR line endings to LF.
func UnixNewlines(s string) string {
	return strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(s)
}
