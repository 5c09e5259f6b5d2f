package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/pimsearch/internal/adapters/driving/tui"
	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driving"
)

// Services bundles the driving ports the commands run against.
type Services struct {
	Search   driving.SearchModel
	Indexer  driving.MailIndexer
	Calendar driving.CalendarImporter
	Entities driving.EntityService
	Settings driving.SettingsService
	Progress tui.ProgressSource

	// Close releases storage. May be nil.
	Close func() error
}

// Options carries global flags into the bootstrap function.
type Options struct {
	// Ephemeral keeps every store in memory.
	Ephemeral bool
}

// Bootstrap builds the services for one command run.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

var (
	bootstrap Bootstrap
	svc       *Services
)

// SetBootstrap installs the function that builds services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs ready-made services. Bootstrap is skipped while set.
func SetServices(s *Services) {
	svc = s
}

// Shutdown releases the services built by the bootstrap function.
func Shutdown() error {
	if svc == nil || svc.Close == nil {
		return nil
	}
	err := svc.Close()
	svc = nil
	return err
}

func ensureServices(ctx context.Context) error {
	if svc != nil || bootstrap == nil {
		return nil
	}
	s, err := bootstrap(ctx, Options{Ephemeral: ephemeral})
	if err != nil {
		return fmt.Errorf("starting pimsearch: %w", err)
	}
	svc = s
	return nil
}

func searchModel() (driving.SearchModel, error) {
	if svc == nil || svc.Search == nil {
		return nil, errors.New("search model not configured")
	}
	return svc.Search, nil
}

func mailIndexer() (driving.MailIndexer, error) {
	if svc == nil || svc.Indexer == nil {
		return nil, errors.New("mail indexer not configured")
	}
	return svc.Indexer, nil
}

func calendarImporter() (driving.CalendarImporter, error) {
	if svc == nil || svc.Calendar == nil {
		return nil, errors.New("calendar importer not configured")
	}
	return svc.Calendar, nil
}

func settingsService() (driving.SettingsService, error) {
	if svc == nil || svc.Settings == nil {
		return nil, errors.New("settings service not configured")
	}
	return svc.Settings, nil
}

// currentSettings returns the stored settings, or the defaults when no settings service is wired.
func currentSettings() (domain.AppSettings, error) {
	if svc == nil || svc.Settings == nil {
		return domain.DefaultAppSettings(), nil
	}
	settings, err := svc.Settings.Get()
	if err != nil {
		return domain.AppSettings{}, fmt.Errorf("loading settings: %w", err)
	}
	return *settings, nil
}
