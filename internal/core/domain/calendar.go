package domain

import "time"

// RepeatFrequency is how often a repeating event recurs.
type RepeatFrequency string

// Supported repeat frequencies.
const (
	RepeatDaily   RepeatFrequency = "daily"
	RepeatWeekly  RepeatFrequency = "weekly"
	RepeatMonthly RepeatFrequency = "monthly"
	RepeatYearly  RepeatFrequency = "yearly"
)

// IsValid returns true if the frequency is recognised.
func (f RepeatFrequency) IsValid() bool {
	switch f {
	case RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatYearly:
		return true
	default:
		return false
	}
}

// RepeatRule describes how an event series recurs.
type RepeatRule struct {
	Frequency RepeatFrequency `json:"frequency"`

	// Interval is the step between occurrences in units of Frequency. Values below 1 mean 1.
	Interval int `json:"interval"`

	// EndTime is the last moment an occurrence may start. Nil repeats forever.
	EndTime *time.Time `json:"end_time,omitempty"`
}

// CalendarEvent is a single calendar entry. Instances of a series share the
// progenitor's ID.
type CalendarEvent struct {
	ID          IdTuple     `json:"id"`
	UID         string      `json:"uid"`
	Summary     string      `json:"summary"`
	Description string      `json:"description"`
	Location    string      `json:"location"`
	StartTime   time.Time   `json:"start_time"`
	EndTime     time.Time   `json:"end_time"`
	AllDay      bool        `json:"all_day"`
	RepeatRule  *RepeatRule `json:"repeat_rule,omitempty"`
}

// MayOccurWithin reports whether e has an occurrence that could fall in
// [from, to). Single events must overlap the range; a series must start
// before to and not end before from.
func (e *CalendarEvent) MayOccurWithin(from, to time.Time) bool {
	if !e.StartTime.Before(to) {
		return false
	}
	if e.RepeatRule != nil {
		return e.RepeatRule.EndTime == nil || !e.RepeatRule.EndTime.Before(from)
	}
	if !e.EndTime.After(e.StartTime) {
		return !e.StartTime.Before(from)
	}
	return e.EndTime.After(from)
}

// DayEvents holds the events occurring on one day.
type DayEvents struct {
	// DayStart is the start of the day in epoch milliseconds.
	DayStart int64
	Events   []CalendarEvent
}

// DaysToEvents is an ordered day-to-events mapping. Consumers must keep the
// order they receive.
type DaysToEvents []DayEvents

// StartOfDay truncates t to midnight in its location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfMonth truncates t to the first day of its month in its location.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last millisecond of t's day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}
