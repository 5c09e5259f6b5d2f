// Package tui provides an interactive terminal user interface for pimsearch.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/pimsearch/internal/core/observable"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driving"
)

// ProgressSource hands out progress monitors and publishes their aggregate progress.
type ProgressSource interface {
	driven.ProgressTracker
	Progress() *observable.Value[float64]
}

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search runs mail and calendar searches and publishes the indexer state.
	Search driving.SearchModel

	// Entities resolves result ids to mails and events.
	Entities driving.EntityService

	// Settings supplies search defaults.
	Settings driving.SettingsService

	// Progress tracks calendar month loading during searches.
	Progress ProgressSource
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchModel
	}
	return nil
}
