package driving

import "github.com/custodia-labs/pimsearch/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Keys lists every config key Set accepts.
	Keys() []string

	// Get returns the current settings with defaults applied.
	Get() (*domain.AppSettings, error)

	// Set validates and stores one setting by its config key.
	Set(key, value string) error
}
