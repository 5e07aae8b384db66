// Package html provides a Normaliser implementation for HTML documents.
// It extracts readable text with goquery, keeping block elements on their
// own lines so article headings stay at line start.
package html
