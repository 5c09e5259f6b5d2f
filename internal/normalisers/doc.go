// Package normalisers holds the parsers that turn raw files into domain
// entities. Each sub-package handles one format:
//
//   - eml: RFC 5322 messages into domain.Mail
//   - ics: iCalendar files into domain.CalendarEvent
//   - html: visible text of HTML bodies, used by eml
//
// Normalisers are stateless apart from configuration and safe for
// concurrent use.
package normalisers
