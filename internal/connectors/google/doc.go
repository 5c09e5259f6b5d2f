// Package google provides shared infrastructure for the Google Calendar
// connector:
//   - OAuth2 configuration and a token source persisted to a token file
//   - Service factory for the Calendar v3 client
//   - Error mapping from googleapi errors to domain errors (401, 403, 404, 410, 429)
//   - Rate limiting to respect Google API quotas
//
// # Usage
//
//	ts, err := google.NewTokenSource(ctx, settings.Google)
//	svc, err := google.NewCalendarService(ctx, option.WithTokenSource(ts))
//
// # OAuth2 Scopes
//
// Only https://www.googleapis.com/auth/calendar.readonly is requested.
package google
