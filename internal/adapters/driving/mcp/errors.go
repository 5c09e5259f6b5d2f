// Package mcp provides an MCP (Model Context Protocol) server adapter for pimsearch.
// It lets AI assistants search the local mail and calendar data.
package mcp

import "errors"

// ErrMissingSearchModel is returned when the search model is not provided.
var ErrMissingSearchModel = errors.New("mcp: search model is required")
