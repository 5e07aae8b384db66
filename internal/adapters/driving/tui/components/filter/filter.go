// Package filter cycles the search mode and document type filters.
package filter

import "github.com/custodia-labs/lexrag/internal/core/domain"

// NextMode returns the mode after current. The empty mode stands for the
// configured default and comes first.
func NextMode(current domain.SearchMode) domain.SearchMode {
	modes := append([]domain.SearchMode{""}, domain.AllSearchModes()...)
	return modes[(indexOf(modes, current)+1)%len(modes)]
}

// NextType returns the document type after current. The empty type means
// all types and comes first.
func NextType(current domain.DocumentType) domain.DocumentType {
	types := append([]domain.DocumentType{""}, domain.AllDocumentTypes()...)
	return types[(indexOf(types, current)+1)%len(types)]
}

// Types returns t as a filter list, nil for all types.
func Types(t domain.DocumentType) []domain.DocumentType {
	if t == "" {
		return nil
	}
	return []domain.DocumentType{t}
}

func indexOf[T comparable](values []T, v T) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return -1
}
