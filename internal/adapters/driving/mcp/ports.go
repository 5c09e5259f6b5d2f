package mcp

import (
	"github.com/custodia-labs/pimsearch/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search runs mail and calendar searches.
	Search driving.SearchModel

	// Entities resolves result ids to mails and events.
	Entities driving.EntityService

	// Settings supplies search defaults.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchModel
	}
	// Entities and Settings are optional
	return nil
}
