package normalisers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/normalisers/docx"
	"github.com/custodia-labs/lexrag/internal/normalisers/html"
	"github.com/custodia-labs/lexrag/internal/normalisers/markdown"
	"github.com/custodia-labs/lexrag/internal/normalisers/pdf"
	"github.com/custodia-labs/lexrag/internal/normalisers/plaintext"
)

// Verify interface compliance.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry selects a normaliser by MIME type and priority.
// It is safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry creates a registry with the built-in normalisers.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// RegisterDefaults registers the built-in normalisers.
func RegisterDefaults(r *Registry) {
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(pdf.New())
	r.Register(docx.New())
}

// Register adds a normaliser. Normalisers with equal priority keep their
// registration order.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, n)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// Normalise dispatches raw to the best matching normaliser.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	n := r.lookup(raw.MIMEType)
	if n == nil {
		return nil, fmt.Errorf("normalise %q: %w", raw.MIMEType, domain.ErrUnsupportedFormat)
	}
	return n.Normalise(ctx, raw)
}

// Supports reports whether some normaliser accepts the MIME type.
func (r *Registry) Supports(mimeType string) bool {
	return r.lookup(mimeType) != nil
}

// SupportedMIMETypes returns the concrete MIME types handled, sorted.
// Wildcard patterns are not listed.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var types []string
	for _, n := range r.normalisers {
		for _, t := range n.SupportedMIMETypes() {
			if strings.Contains(t, "*") || seen[t] {
				continue
			}
			seen[t] = true
			types = append(types, t)
		}
	}
	sort.Strings(types)
	return types
}

func (r *Registry) lookup(mimeType string) driven.Normaliser {
	mimeType = baseMIME(mimeType)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.normalisers {
		for _, pattern := range n.SupportedMIMETypes() {
			if matchMIME(pattern, mimeType) {
				return n
			}
		}
	}
	return nil
}

// baseMIME drops parameters such as "; charset=utf-8" and lowercases.
func baseMIME(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// matchMIME supports exact types, "type/*" and "*/*".
func matchMIME(pattern, mimeType string) bool {
	switch {
	case pattern == "*/*":
		return true
	case strings.HasSuffix(pattern, "/*"):
		return strings.HasPrefix(mimeType, strings.TrimSuffix(pattern, "*"))
	default:
		return pattern == mimeType
	}
}
