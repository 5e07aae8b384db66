package domain

// Metadata keys a connector or scraper may set on a RawDocument to tell
// ingest what it already knows about a legal document.
const (
	HintTitle           = "title"
	HintDocumentType    = "document_type"
	HintNumber          = "number"
	HintPublicationDate = "publication_date"
	HintSummary         = "summary"
)

// RawDocument is a file or page as fetched, before normalisation.
type RawDocument struct {
	Source   DocumentSource
	URI      string // file path, URL, or stdin:/mcp: for uploads
	MIMEType string
	Content  []byte

	// Metadata carries the Hint keys plus anything connector specific.
	Metadata map[string]any
}

// Hint returns the string stored under key, or "".
func (r *RawDocument) Hint(key string) string {
	s, _ := r.Metadata[key].(string)
	return s
}

// SetHint stores value under key. Empty values are ignored.
func (r *RawDocument) SetHint(key, value string) {
	if value == "" {
		return
	}
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = value
}

// ChangeType says what happened to a watched file.
type ChangeType int

const (
	ChangeCreated ChangeType = iota
	ChangeUpdated
	ChangeDeleted
)

// RawDocumentChange is emitted by a watching connector. For deletions only
// Document.URI is meaningful.
type RawDocumentChange struct {
	Type     ChangeType
	Document RawDocument
}
