// Package migrations holds the schema for the lexrag SQLite database.
// Files are applied in name order; each NNN_name.up.sql runs once.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
