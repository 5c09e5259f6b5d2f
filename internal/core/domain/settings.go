package domain

import (
	"fmt"
	"time"
)

// Defaults applied when a setting is missing from the config file.
const (
	DefaultMaxResults         = 50
	DefaultMinSuggestionCount = 0
	DefaultCalendarMonths     = 3
	DefaultMailFolder         = "inbox"
	DefaultCalendarListID     = "calendar"
)

// AppSettings holds the complete application configuration.
type AppSettings struct {
	Data   DataSettings
	Search SearchSettings
	Mail   MailSettings
	Google GoogleSettings
}

// DataSettings locates on-disk state.
type DataSettings struct {
	// Dir holds the SQLite database and the mail index. Empty means ~/.pimsearch/data.
	Dir string
}

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	// MaxResults caps mail hits per search. 0 means unbounded.
	MaxResults int

	// MinSuggestionCount enables prefix matching of the last word when above 0.
	MinSuggestionCount int

	// CalendarMonths is the default calendar search window in months, starting with the current one.
	CalendarMonths int
}

// MailSettings holds mail indexing configuration.
type MailSettings struct {
	IndexEnabled bool

	// Maildir is the directory watched for new .eml files.
	Maildir string

	// DefaultFolder is the list id given to imported mail.
	DefaultFolder string
}

// GoogleSettings configures the optional Google Calendar source.
type GoogleSettings struct {
	ClientID     string
	ClientSecret string
	TokenFile    string
	CalendarID   string
}

// IsConfigured returns true if Google Calendar sync can run.
func (g GoogleSettings) IsConfigured() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.TokenFile != ""
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Search: SearchSettings{
			MaxResults:         DefaultMaxResults,
			MinSuggestionCount: DefaultMinSuggestionCount,
			CalendarMonths:     DefaultCalendarMonths,
		},
		Mail: MailSettings{
			IndexEnabled:  true,
			DefaultFolder: DefaultMailFolder,
		},
		Google: GoogleSettings{
			CalendarID: "primary",
		},
	}
}

// Validate checks the settings for values no component can work with.
func (s AppSettings) Validate() error {
	if s.Search.MaxResults < 0 {
		return fmt.Errorf("%w: search.max_results must not be negative", ErrInvalidInput)
	}
	if s.Search.MinSuggestionCount < 0 {
		return fmt.Errorf("%w: search.min_suggestion_count must not be negative", ErrInvalidInput)
	}
	if s.Search.CalendarMonths < 1 {
		return fmt.Errorf("%w: search.calendar_months must be at least 1", ErrInvalidInput)
	}
	if s.Mail.DefaultFolder == "" {
		return fmt.Errorf("%w: mail.default_folder must not be empty", ErrInvalidInput)
	}
	return nil
}

// CalendarWindow returns the default calendar search range around now:
// from the start of the current month through the end of the last month of the window.
func (s SearchSettings) CalendarWindow(now time.Time) (start, end time.Time) {
	months := s.CalendarMonths
	if months < 1 {
		months = DefaultCalendarMonths
	}
	start = StartOfMonth(now)
	end = start.AddDate(0, months, 0).Add(-time.Millisecond)
	return start, end
}
