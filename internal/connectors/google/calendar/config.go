package calendar

// Config holds Google Calendar connector configuration.
type Config struct {
	// CalendarID selects the calendar to read. "primary" is the user's main calendar.
	CalendarID string
	// ListID is the list id given to fetched events. Defaults to CalendarID.
	ListID string
	// PageSize is the page size for API requests.
	PageSize int64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		CalendarID: "primary",
		PageSize:   250,
	}
}

func (c Config) listID() string {
	if c.ListID != "" {
		return c.ListID
	}
	return c.CalendarID
}
