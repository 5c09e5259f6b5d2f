// Package ics parses iCalendar (RFC 5545) files into calendar events.
//
// Supported: VEVENT with SUMMARY, DESCRIPTION, LOCATION, UID, DTSTART, DTEND
// and DURATION (day/hour/minute/second parts), TZID parameters, all-day
// dates, and RRULE with FREQ, INTERVAL, UNTIL and COUNT. Other RRULE parts
// are ignored. Overridden instances (RECURRENCE-ID) are skipped.
package ics

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
	"github.com/custodia-labs/pimsearch/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.EventNormaliser = (*Normaliser)(nil)

// Normaliser handles ICS (iCalendar) files.
type Normaliser struct {
	location *time.Location
}

// New creates a new ICS normaliser. Floating times and dates are read in
// the local time zone.
func New() *Normaliser {
	return &Normaliser{location: time.Local}
}

// SetLocation sets the zone used for floating times and all-day dates.
func (n *Normaliser) SetLocation(loc *time.Location) {
	n.location = loc
}

// property is one content line: NAME;PARAM=VALUE:value.
type property struct {
	name   string
	params map[string]string
	value  string
}

// Normalise parses every VEVENT in content into events of calendar listID.
func (n *Normaliser) Normalise(_ context.Context, content []byte, uri, listID string) ([]domain.CalendarEvent, error) {
	lines := unfoldLines(content)
	if len(lines) == 0 || !strings.EqualFold(strings.TrimSpace(lines[0]), "BEGIN:VCALENDAR") {
		return nil, fmt.Errorf("%w: %s is not an iCalendar file", domain.ErrInvalidInput, uri)
	}

	events := []domain.CalendarEvent{}
	var current []property
	inEvent := false
	depth := 0

	for _, line := range lines {
		prop, ok := parseLine(line)
		if !ok {
			continue
		}

		switch {
		case prop.name == "BEGIN" && strings.EqualFold(prop.value, "VEVENT"):
			inEvent = true
			depth = 0
			current = current[:0]
		case prop.name == "BEGIN" && inEvent:
			depth++ // VALARM and friends
		case prop.name == "END" && inEvent && depth > 0:
			depth--
		case prop.name == "END" && strings.EqualFold(prop.value, "VEVENT"):
			inEvent = false
			event, err := n.buildEvent(current, listID)
			if err != nil {
				logger.Warn("Skipping event in %s: %v", uri, err)
				continue
			}
			if event != nil {
				events = append(events, *event)
			}
		case inEvent && depth == 0:
			current = append(current, prop)
		}
	}

	logger.Debug("Parsed %d events from %s", len(events), uri)
	return events, nil
}

func (n *Normaliser) buildEvent(props []property, listID string) (*domain.CalendarEvent, error) {
	var (
		event           domain.CalendarEvent
		start, end      *property
		duration, rrule string
	)

	for i := range props {
		p := &props[i]
		switch p.name {
		case "UID":
			event.UID = p.value
		case "SUMMARY":
			event.Summary = decodeValue(p.value)
		case "DESCRIPTION":
			event.Description = decodeValue(p.value)
		case "LOCATION":
			event.Location = decodeValue(p.value)
		case "DTSTART":
			start = p
		case "DTEND":
			end = p
		case "DURATION":
			duration = p.value
		case "RRULE":
			rrule = p.value
		case "RECURRENCE-ID":
			logger.Debug("Skipping overridden instance of %s", event.UID)
			return nil, nil
		}
	}

	if start == nil {
		return nil, fmt.Errorf("%w: event %q has no DTSTART", domain.ErrInvalidInput, event.Summary)
	}

	var err error
	event.StartTime, event.AllDay, err = n.parseDateTime(start)
	if err != nil {
		return nil, err
	}

	switch {
	case end != nil:
		event.EndTime, _, err = n.parseDateTime(end)
		if err != nil {
			return nil, err
		}
	case duration != "":
		d, err := parseDuration(duration)
		if err != nil {
			return nil, err
		}
		event.EndTime = event.StartTime.Add(d)
	case event.AllDay:
		event.EndTime = event.StartTime.AddDate(0, 0, 1)
	default:
		event.EndTime = event.StartTime
	}

	if rrule != "" {
		event.RepeatRule, err = ParseRRule(rrule, event.StartTime)
		if err != nil {
			return nil, err
		}
	}

	event.ID = domain.IdTuple{ListID: listID, ElementID: elementID(listID, event.UID)}
	return &event, nil
}

// elementID is stable for events carrying a UID, so re-imports replace them.
func elementID(listID, uid string) string {
	if uid == "" {
		return uuid.New().String()
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(listID+"/"+uid)).String()
}

// parseDateTime reads DATE and DATE-TIME values, honouring TZID.
func (n *Normaliser) parseDateTime(p *property) (time.Time, bool, error) {
	return parseDateTimeIn(p, n.location)
}

// parseDateTimeIn reads p with floating values in loc.
func parseDateTimeIn(p *property, loc *time.Location) (time.Time, bool, error) {
	value := p.value
	if p.params["VALUE"] == "DATE" || len(value) == 8 {
		t, err := time.ParseInLocation("20060102", value, loc)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("%w: bad date %q: %w", domain.ErrInvalidInput, value, err)
		}
		return t, true, nil
	}

	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse("20060102T150405Z", value)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("%w: bad date-time %q: %w", domain.ErrInvalidInput, value, err)
		}
		return t, false, nil
	}

	if tzid := p.params["TZID"]; tzid != "" {
		if l, err := time.LoadLocation(strings.Trim(tzid, `"`)); err == nil {
			loc = l
		} else {
			logger.Debug("Unknown TZID %q, using %s", tzid, loc)
		}
	}
	t, err := time.ParseInLocation("20060102T150405", value, loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: bad date-time %q: %w", domain.ErrInvalidInput, value, err)
	}
	return t, false, nil
}

// ParseRRule converts an RRULE value into a repeat rule for a series
// starting at start. A floating UNTIL is read in start's zone. COUNT is
// turned into the start time of the last occurrence.
func ParseRRule(value string, start time.Time) (*domain.RepeatRule, error) {
	rule := &domain.RepeatRule{Interval: 1}
	count := 0

	for _, part := range strings.Split(strings.TrimPrefix(value, "RRULE:"), ";") {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch strings.ToUpper(key) {
		case "FREQ":
			rule.Frequency = domain.RepeatFrequency(strings.ToLower(val))
		case "INTERVAL":
			if v, err := strconv.Atoi(val); err == nil && v > 0 {
				rule.Interval = v
			}
		case "COUNT":
			if v, err := strconv.Atoi(val); err == nil && v > 0 {
				count = v
			}
		case "UNTIL":
			until, _, err := parseDateTimeIn(&property{value: val}, start.Location())
			if err != nil {
				return nil, err
			}
			rule.EndTime = &until
		default:
			logger.Debug("Ignoring RRULE part %s", part)
		}
	}

	if !rule.Frequency.IsValid() {
		return nil, fmt.Errorf("%w: unsupported RRULE %q", domain.ErrInvalidInput, value)
	}

	if count > 0 && rule.EndTime == nil {
		last := advance(start, rule.Frequency, (count-1)*rule.Interval)
		rule.EndTime = &last
	}
	return rule, nil
}

func advance(t time.Time, freq domain.RepeatFrequency, steps int) time.Time {
	switch freq {
	case domain.RepeatDaily:
		return t.AddDate(0, 0, steps)
	case domain.RepeatWeekly:
		return t.AddDate(0, 0, 7*steps)
	case domain.RepeatMonthly:
		return t.AddDate(0, steps, 0)
	default:
		return t.AddDate(steps, 0, 0)
	}
}

// parseDuration reads the day, week, hour, minute and second parts of an
// RFC 5545 duration such as P1DT2H or PT30M.
func parseDuration(value string) (time.Duration, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(value, "+"), "P")
	if s == value || s == "" {
		return 0, fmt.Errorf("%w: bad duration %q", domain.ErrInvalidInput, value)
	}

	var total time.Duration
	num := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num = num*10 + int(r-'0')
		case r == 'T':
		case r == 'W':
			total += time.Duration(num) * 7 * 24 * time.Hour
			num = 0
		case r == 'D':
			total += time.Duration(num) * 24 * time.Hour
			num = 0
		case r == 'H':
			total += time.Duration(num) * time.Hour
			num = 0
		case r == 'M':
			total += time.Duration(num) * time.Minute
			num = 0
		case r == 'S':
			total += time.Duration(num) * time.Second
			num = 0
		default:
			return 0, fmt.Errorf("%w: bad duration %q", domain.ErrInvalidInput, value)
		}
	}
	return total, nil
}

// unfoldLines joins continuation lines (leading space or tab) onto the
// previous line.
func unfoldLines(content []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if (line[0] == ' ' || line[0] == '\t') && len(lines) > 0 {
			lines[len(lines)-1] += line[1:]
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// parseLine splits a content line into name, parameters and value.
// Colons inside quoted parameter values do not end the name part.
func parseLine(line string) (property, bool) {
	inQuote := false
	split := -1
	for i, r := range line {
		if r == '"' {
			inQuote = !inQuote
		}
		if r == ':' && !inQuote {
			split = i
			break
		}
	}
	if split < 0 {
		return property{}, false
	}

	head, value := line[:split], line[split+1:]
	parts := strings.Split(head, ";")
	prop := property{
		name:   strings.ToUpper(parts[0]),
		params: make(map[string]string, len(parts)-1),
		value:  value,
	}
	for _, p := range parts[1:] {
		if k, v, ok := strings.Cut(p, "="); ok {
			prop.params[strings.ToUpper(k)] = v
		}
	}
	return prop, true
}

// decodeValue resolves RFC 5545 text escapes.
func decodeValue(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if escaped {
			switch r {
			case 'n', 'N':
				b.WriteRune('\n')
			default:
				b.WriteRune(r)
			}
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
