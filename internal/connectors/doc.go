// Package connectors holds the sources raw documents are read from.
// Each connector yields domain.RawDocument values for the ingest service.
package connectors
