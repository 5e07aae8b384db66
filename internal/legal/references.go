package legal

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// LawReference is a citation of another diploma found in text.
type LawReference struct {
	// Type is the cited diploma type.
	Type domain.DocumentType

	// Number is the cited number, e.g. "10/2024".
	Number string

	// Original is the matched text.
	Original string

	// Position is the byte offset of the match.
	Position int
}

// String returns the canonical form, e.g. "Decreto-Lei n.º 10/2024".
func (r LawReference) String() string {
	label := r.Type.Label()
	if r.Type == domain.DocumentTypeResolucao {
		label = "Resolução do Conselho de Ministros"
	}
	return label + " n.º " + r.Number
}

// Alternatives are ordered so that "Decreto-Lei" wins over the "Lei" it contains.
var referencePattern = regexp.MustCompile(
	`(?i)\b(decreto-lei|decreto|lei|portaria|despacho|resolução(?:\s+do\s+conselho\s+de\s+ministros)?)` +
		`\s+n\.?\s*[ºo°]?\s*(\d+(?:-[a-z])?(?:[/-]\d+)?)`)

// ExtractLawReferences returns the law references in text in order of
// appearance. Repeated citations of the same diploma are returned once.
func ExtractLawReferences(text string) []LawReference {
	matches := referencePattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	refs := make([]LawReference, 0, len(matches))
	for _, m := range matches {
		ref := LawReference{
			Type:     referenceType(text[m[2]:m[3]]),
			Number:   text[m[4]:m[5]],
			Original: text[m[0]:m[1]],
			Position: m[0],
		}
		key := ref.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		refs = append(refs, ref)
	}
	return refs
}

// LawReferenceStrings returns the canonical forms of the references in text.
func LawReferenceStrings(text string) []string {
	refs := ExtractLawReferences(text)
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.String()
	}
	return out
}

func referenceType(word string) domain.DocumentType {
	w := strings.ToLower(word)
	switch {
	case w == "decreto-lei":
		return domain.DocumentTypeDecretoLei
	case w == "decreto":
		return domain.DocumentTypeDecreto
	case w == "lei":
		return domain.DocumentTypeLei
	case w == "portaria":
		return domain.DocumentTypePortaria
	case w == "despacho":
		return domain.DocumentTypeDespacho
	default:
		return domain.DocumentTypeResolucao
	}
}
