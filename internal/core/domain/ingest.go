package domain

import "time"

// IngestItem is the outcome of ingesting one raw document.
type IngestItem struct {
	// URI identifies the raw document.
	URI string

	// DocumentID is set when the document was stored.
	DocumentID string

	// Chunks is the number of chunks stored.
	Chunks int

	// Err is set when ingestion failed.
	Err error
}

// IngestReport summarises a batch ingestion.
type IngestReport struct {
	// Items holds per-document outcomes in input order.
	Items []IngestItem

	// Duration is the wall-clock time of the batch.
	Duration time.Duration
}

// Succeeded returns the number of documents stored.
func (r *IngestReport) Succeeded() int {
	n := 0
	for _, it := range r.Items {
		if it.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the number of documents that failed.
func (r *IngestReport) Failed() int {
	return len(r.Items) - r.Succeeded()
}

// TotalChunks returns the number of chunks stored across the batch.
func (r *IngestReport) TotalChunks() int {
	n := 0
	for _, it := range r.Items {
		n += it.Chunks
	}
	return n
}
