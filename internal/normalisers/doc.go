// Package normalisers turns raw bytes into document text.
//
// Each sub-package handles one family of MIME types. Registry dispatches a
// raw document to the highest-priority normaliser that accepts its MIME
// type; RegisterDefaults installs every built-in normaliser.
package normalisers
