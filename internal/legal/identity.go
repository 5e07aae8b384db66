package legal

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

var (
	documentNumberPattern = regexp.MustCompile(`^\d+/\d{4}$`)
	titleNumberPattern    = regexp.MustCompile(`(?i)n\.?\s*[ºo°]\s*(\d+(?:-[a-z])?/\d{4})`)
)

// IdentityFields are the metadata mixed into a document ID.
type IdentityFields struct {
	Number          string
	PublicationDate string
	Source          string
}

// GenerateDocumentID derives a stable 16 hex character ID from the text and
// the identifying metadata. Equal inputs always give equal IDs.
func GenerateDocumentID(text string, f IdentityFields) string {
	var b strings.Builder
	b.WriteString(text)
	if f.Number != "" {
		b.WriteString("|document_number:" + f.Number)
	}
	if f.PublicationDate != "" {
		b.WriteString("|publication_date:" + f.PublicationDate)
	}
	if f.Source != "" {
		b.WriteString("|source:" + f.Source)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:16]
}

// ValidateDocumentNumber checks numbered diploma types use the N/YYYY form.
// Types without a numbering convention accept anything.
func ValidateDocumentNumber(docType domain.DocumentType, number string) bool {
	switch docType {
	case domain.DocumentTypeLei, domain.DocumentTypeDecretoLei, domain.DocumentTypeDecreto,
		domain.DocumentTypePortaria, domain.DocumentTypeDespacho:
		return documentNumberPattern.MatchString(number)
	default:
		return true
	}
}

// ExtractDocumentNumber finds "n.º N/YYYY" in a title and returns "N/YYYY".
func ExtractDocumentNumber(title string) string {
	m := titleNumberPattern.FindStringSubmatch(title)
	if m == nil {
		return ""
	}
	return m[1]
}

// Prefixes are checked in order; longer names come before the names they contain.
var typePrefixes = []struct {
	prefix string
	t      domain.DocumentType
}{
	{"decreto-lei", domain.DocumentTypeDecretoLei},
	{"decreto lei", domain.DocumentTypeDecretoLei},
	{"decreto regulamentar", domain.DocumentTypeDecreto},
	{"decreto", domain.DocumentTypeDecreto},
	{"lei orgânica", domain.DocumentTypeLei},
	{"lei", domain.DocumentTypeLei},
	{"portaria", domain.DocumentTypePortaria},
	{"despacho", domain.DocumentTypeDespacho},
	{"resolução", domain.DocumentTypeResolucao},
	{"resolucao", domain.DocumentTypeResolucao},
	{"regulamento", domain.DocumentTypeRegulamento},
	{"aviso", domain.DocumentTypeAviso},
	{"deliberação", domain.DocumentTypeDeliberacao},
	{"deliberacao", domain.DocumentTypeDeliberacao},
	{"contrato", domain.DocumentTypeContract},
}

// DetectDocumentType infers the document type from a title such as
// "Decreto-Lei n.º 10/2024". Unknown titles give DocumentTypeOther.
func DetectDocumentType(title string) domain.DocumentType {
	t := strings.ToLower(strings.TrimSpace(title))
	for _, p := range typePrefixes {
		if !strings.HasPrefix(t, p.prefix) {
			continue
		}
		rest := t[len(p.prefix):]
		if rest == "" || !isLetter(rest[0]) {
			return p.t
		}
	}
	if strings.Contains(t, "contrato") {
		return domain.DocumentTypeContract
	}
	return domain.DocumentTypeOther
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || b >= 0x80
}
