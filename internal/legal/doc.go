// Package legal holds text utilities for Portuguese legislation: cleaning,
// embedding preparation, law reference and date extraction, document
// identity and type detection.
//
// Functions here are pure and safe for concurrent use.
package legal
