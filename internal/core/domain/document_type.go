package domain

import (
	"fmt"
	"strings"
)

// DocumentType identifies the kind of legal instrument.
type DocumentType string

// Known document types.
const (
	DocumentTypeLei         DocumentType = "lei"
	DocumentTypeDecretoLei  DocumentType = "decreto_lei"
	DocumentTypeDecreto     DocumentType = "decreto"
	DocumentTypePortaria    DocumentType = "portaria"
	DocumentTypeDespacho    DocumentType = "despacho"
	DocumentTypeResolucao   DocumentType = "resolucao"
	DocumentTypeRegulamento DocumentType = "regulamento"
	DocumentTypeAviso       DocumentType = "aviso"
	DocumentTypeDeliberacao DocumentType = "deliberacao"
	DocumentTypeContract    DocumentType = "contract"
	DocumentTypeOther       DocumentType = "other"
)

// AllDocumentTypes returns every known document type.
func AllDocumentTypes() []DocumentType {
	return []DocumentType{
		DocumentTypeLei,
		DocumentTypeDecretoLei,
		DocumentTypeDecreto,
		DocumentTypePortaria,
		DocumentTypeDespacho,
		DocumentTypeResolucao,
		DocumentTypeRegulamento,
		DocumentTypeAviso,
		DocumentTypeDeliberacao,
		DocumentTypeContract,
		DocumentTypeOther,
	}
}

// IsValid returns true if the document type is recognised.
func (t DocumentType) IsValid() bool {
	for _, known := range AllDocumentTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// IsArticleStructured reports whether documents of this type are organised
// in articles and should go through article-aware chunking.
func (t DocumentType) IsArticleStructured() bool {
	switch t {
	case DocumentTypeLei, DocumentTypeDecretoLei, DocumentTypeDecreto,
		DocumentTypePortaria, DocumentTypeRegulamento:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t DocumentType) String() string {
	return string(t)
}

// Label returns the Portuguese display name of the type.
func (t DocumentType) Label() string {
	switch t {
	case DocumentTypeLei:
		return "Lei"
	case DocumentTypeDecretoLei:
		return "Decreto-Lei"
	case DocumentTypeDecreto:
		return "Decreto"
	case DocumentTypePortaria:
		return "Portaria"
	case DocumentTypeDespacho:
		return "Despacho"
	case DocumentTypeResolucao:
		return "Resolução"
	case DocumentTypeRegulamento:
		return "Regulamento"
	case DocumentTypeAviso:
		return "Aviso"
	case DocumentTypeDeliberacao:
		return "Deliberação"
	case DocumentTypeContract:
		return "Contrato"
	case DocumentTypeOther:
		return "Outro"
	default:
		return "Desconhecido"
	}
}

// ParseDocumentType converts user input ("decreto-lei", "Lei", "decreto_lei")
// into a DocumentType.
func ParseDocumentType(s string) (DocumentType, error) {
	normalised := strings.ToLower(strings.TrimSpace(s))
	normalised = strings.ReplaceAll(normalised, "-", "_")
	normalised = strings.ReplaceAll(normalised, " ", "_")
	if normalised == "" {
		return DocumentTypeOther, nil
	}
	t := DocumentType(normalised)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: unknown document type %q", ErrInvalidInput, s)
	}
	return t, nil
}
