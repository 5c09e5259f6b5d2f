// Package domain defines the core business entities for pimsearch.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SearchQuery / SearchRestriction: what a caller asks for
//   - SearchResult: the uniform answer for mail and calendar searches
//   - IndexStateInfo: the mail indexer's progress, observed by search
//   - CalendarEvent / Mail: the searchable entities
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
