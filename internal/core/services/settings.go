package services

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyDataDir            = "data.dir"
	KeyMaxResults         = "search.max_results"
	KeyMinSuggestionCount = "search.min_suggestion_count"
	KeyCalendarMonths     = "search.calendar_months"
	KeyMailIndexEnabled   = "mail.index_enabled"
	KeyMaildir            = "mail.maildir"
	KeyMailDefaultFolder  = "mail.default_folder"
	KeyGoogleClientID     = "google.client_id"
	KeyGoogleClientSecret = "google.client_secret"
	KeyGoogleTokenFile    = "google.token_file"
	KeyGoogleCalendarID   = "google.calendar_id"
)

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindBool
)

// settingKinds lists every key Set accepts and how its value is parsed.
var settingKinds = map[string]settingKind{
	KeyDataDir:            kindString,
	KeyMaxResults:         kindInt,
	KeyMinSuggestionCount: kindInt,
	KeyCalendarMonths:     kindInt,
	KeyMailIndexEnabled:   kindBool,
	KeyMaildir:            kindString,
	KeyMailDefaultFolder:  kindString,
	KeyGoogleClientID:     kindString,
	KeyGoogleClientSecret: kindString,
	KeyGoogleTokenFile:    kindString,
	KeyGoogleCalendarID:   kindString,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
	}
}

// Keys returns every setting key in sorted order.
func (s *SettingsService) Keys() []string {
	return slices.Sorted(maps.Keys(settingKinds))
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.read()
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Set validates and stores one setting.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var typed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		typed = n
	case kindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		typed = b
	default:
		typed = value
	}

	candidate := s.read()
	apply(candidate, key, typed)
	if err := candidate.Validate(); err != nil {
		return err
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *SettingsService) read() *domain.AppSettings {
	defaults := domain.DefaultAppSettings()

	return &domain.AppSettings{
		Data: domain.DataSettings{
			Dir: s.getString(KeyDataDir, defaults.Data.Dir),
		},
		Search: domain.SearchSettings{
			MaxResults:         s.getInt(KeyMaxResults, defaults.Search.MaxResults),
			MinSuggestionCount: s.getInt(KeyMinSuggestionCount, defaults.Search.MinSuggestionCount),
			CalendarMonths:     s.getInt(KeyCalendarMonths, defaults.Search.CalendarMonths),
		},
		Mail: domain.MailSettings{
			IndexEnabled:  s.getBool(KeyMailIndexEnabled, defaults.Mail.IndexEnabled),
			Maildir:       s.getString(KeyMaildir, defaults.Mail.Maildir),
			DefaultFolder: s.getString(KeyMailDefaultFolder, defaults.Mail.DefaultFolder),
		},
		Google: domain.GoogleSettings{
			ClientID:     s.configStore.GetString(KeyGoogleClientID),
			ClientSecret: s.configStore.GetString(KeyGoogleClientSecret),
			TokenFile:    s.configStore.GetString(KeyGoogleTokenFile),
			CalendarID:   s.getString(KeyGoogleCalendarID, defaults.Google.CalendarID),
		},
	}
}

// apply writes a parsed value into settings. value has the type settingKinds names.
func apply(settings *domain.AppSettings, key string, value any) {
	switch key {
	case KeyDataDir:
		settings.Data.Dir = value.(string)
	case KeyMaxResults:
		settings.Search.MaxResults = value.(int)
	case KeyMinSuggestionCount:
		settings.Search.MinSuggestionCount = value.(int)
	case KeyCalendarMonths:
		settings.Search.CalendarMonths = value.(int)
	case KeyMailIndexEnabled:
		settings.Mail.IndexEnabled = value.(bool)
	case KeyMaildir:
		settings.Mail.Maildir = value.(string)
	case KeyMailDefaultFolder:
		settings.Mail.DefaultFolder = value.(string)
	case KeyGoogleClientID:
		settings.Google.ClientID = value.(string)
	case KeyGoogleClientSecret:
		settings.Google.ClientSecret = value.(string)
	case KeyGoogleTokenFile:
		settings.Google.TokenFile = value.(string)
	case KeyGoogleCalendarID:
		settings.Google.CalendarID = value.(string)
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}
