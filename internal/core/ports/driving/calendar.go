package driving

import (
	"context"
	"time"
)

// CalendarImporter brings calendar events into the local store.
type CalendarImporter interface {
	// ImportFile parses an .ics file into calendar listID. Returns the number of events stored.
	ImportFile(ctx context.Context, path, listID string) (int, error)

	// SyncRange pulls [from, to) from the remote source. Returns the number of events stored.
	SyncRange(ctx context.Context, from, to time.Time) (int, error)
}
