// Package mcp provides an MCP (Model Context Protocol) server adapter for lexrag.
// It lets AI assistants search Portuguese legislation, ask grounded legal
// questions and chunk legal text.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
