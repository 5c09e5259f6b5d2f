package google

import (
	"context"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// NewCalendarService creates a Google Calendar API service.
// Pass option.WithTokenSource for real use.
func NewCalendarService(ctx context.Context, opts ...option.ClientOption) (*calendar.Service, error) {
	return calendar.NewService(ctx, opts...)
}
