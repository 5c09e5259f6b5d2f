package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"google.golang.org/api/option"

	"github.com/custodia-labs/pimsearch/internal/adapters/driven/config/file"
	"github.com/custodia-labs/pimsearch/internal/adapters/driven/index/bleve"
	"github.com/custodia-labs/pimsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pimsearch/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/pimsearch/internal/adapters/driving/cli"
	"github.com/custodia-labs/pimsearch/internal/connectors/google"
	gcal "github.com/custodia-labs/pimsearch/internal/connectors/google/calendar"
	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
	"github.com/custodia-labs/pimsearch/internal/core/services"
	"github.com/custodia-labs/pimsearch/internal/logger"
	"github.com/custodia-labs/pimsearch/internal/normalisers/eml"
	"github.com/custodia-labs/pimsearch/internal/normalisers/ics"
)

// stores groups the persistence the services are built on.
type stores struct {
	mails  driven.MailStore
	events driven.EventStore
	state  driven.IndexStateStore
	index  *bleve.Index
	close  []func() error
}

// bootstrap builds the service graph for one command run.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsSvc := services.NewSettingsService(configStore)
	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	st, err := openStores(settings.Data.Dir, opts.Ephemeral)
	if err != nil {
		return nil, err
	}
	closeAll := func() error {
		var errs []error
		for i := len(st.close) - 1; i >= 0; i-- {
			errs = append(errs, st.close[i]())
		}
		return errors.Join(errs...)
	}

	indexer := services.NewMailIndexer(st.mails, st.index, st.state, eml.New())
	indexer.SetEnabledByDefault(settings.Mail.IndexEnabled)
	if err := indexer.Init(ctx); err != nil {
		_ = closeAll()
		return nil, fmt.Errorf("initialising mail index: %w", err)
	}

	repo := services.NewCalendarEventsRepository(st.events)
	var source driven.EventSource
	if src := googleSource(ctx, settings.Google); src != nil {
		repo.SetSource(src)
		source = src
	}
	importer := services.NewCalendarImporter(st.events, ics.New(), source, repo)

	return &cli.Services{
		Search:   services.NewSearchModel(st.index, repo, indexer.StateValue()),
		Indexer:  indexer,
		Calendar: importer,
		Entities: services.NewEntityService(st.mails, st.events),
		Settings: settingsSvc,
		Progress: services.NewProgressTracker(),
		Close:    closeAll,
	}, nil
}

// openStores opens SQLite and the on-disk index, or in-memory equivalents when ephemeral.
func openStores(dataDir string, ephemeral bool) (*stores, error) {
	if ephemeral {
		logger.Debug("Using in-memory stores")
		index, err := bleve.Open("")
		if err != nil {
			return nil, fmt.Errorf("opening mail index: %w", err)
		}
		return &stores{
			mails:  memory.NewMailStore(),
			events: memory.NewEventStore(),
			state:  memory.NewIndexStateStore(),
			index:  index,
			close:  []func() error{index.Close},
		}, nil
	}

	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".pimsearch", "data")
	}

	db, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, err
	}
	logger.Debug("Opened database at %s", db.Path())

	index, err := bleve.Open(filepath.Join(dataDir, "mail.bleve"))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening mail index: %w", err)
	}

	return &stores{
		mails:  db.MailStore(),
		events: db.EventStore(),
		state:  db.IndexStateStore(),
		index:  index,
		close:  []func() error{db.Close, index.Close},
	}, nil
}

// googleSource returns the Google Calendar source, or nil when it is not set up.
func googleSource(ctx context.Context, gs domain.GoogleSettings) driven.EventSource {
	if !gs.IsConfigured() {
		return nil
	}
	ts, err := google.NewTokenSource(ctx, gs)
	if err != nil {
		logger.Debug("Google Calendar unavailable: %v", err)
		return nil
	}
	svc, err := google.NewCalendarService(ctx, option.WithTokenSource(ts))
	if err != nil {
		logger.Warn("Creating Google Calendar client: %v", err)
		return nil
	}
	return gcal.New(svc, gcal.Config{CalendarID: gs.CalendarID})
}
