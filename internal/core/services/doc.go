// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// SearchModel is the centre of the package: it coalesces equal searches and
// routes them either to the calendar scan over CalendarEventsRepository or to
// the mail index.
//
// Services are pure Go with no CGO dependencies.
package services
