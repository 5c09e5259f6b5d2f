// Package calendar implements an EventSource backed by Google Calendar v3.
package calendar

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/custodia-labs/pimsearch/internal/connectors/google"
	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
	"github.com/custodia-labs/pimsearch/internal/logger"
)

// Source fetches events from one Google calendar.
type Source struct {
	svc     *calendar.Service
	cfg     Config
	limiter *google.RateLimiter
}

var _ driven.EventSource = (*Source)(nil)

// New creates a source reading cfg.CalendarID through svc.
func New(svc *calendar.Service, cfg Config) *Source {
	if cfg.CalendarID == "" {
		cfg.CalendarID = DefaultConfig().CalendarID
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultConfig().PageSize
	}
	return &Source{
		svc:     svc,
		cfg:     cfg,
		limiter: google.NewRateLimiter(google.DefaultCalendarRateLimit),
	}
}

// Name identifies the source in logs and status output.
func (s *Source) Name() string {
	return "google-calendar:" + s.cfg.CalendarID
}

// FetchEvents returns the events overlapping [from, to). Series are returned
// once as their master event with the repeat rule attached.
func (s *Source) FetchEvents(ctx context.Context, from, to time.Time) ([]domain.CalendarEvent, error) {
	var (
		events    []domain.CalendarEvent
		pageToken string
	)

	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		call := s.svc.Events.List(s.cfg.CalendarID).
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			SingleEvents(false).
			ShowDeleted(false).
			MaxResults(s.cfg.PageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		page, err := call.Do()
		if err != nil {
			if google.IsRateLimited(err) {
				s.limiter.RecordRateLimitError(0)
			}
			return nil, fmt.Errorf("listing events of %s: %w", s.cfg.CalendarID, google.WrapError(err))
		}

		for _, item := range page.Items {
			if !shouldImport(item) {
				continue
			}
			event, err := eventToDomain(item, s.cfg.listID())
			if err != nil {
				logger.Warn("Skipping Google event: %v", err)
				continue
			}
			events = append(events, *event)
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	logger.Debug("Fetched %d events from %s for %s..%s", len(events), s.Name(),
		from.Format(time.DateOnly), to.Format(time.DateOnly))
	return events, nil
}
