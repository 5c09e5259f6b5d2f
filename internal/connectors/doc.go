// Package connectors holds the sources that feed mail and calendar data into
// the core services:
//
//   - maildir: watches a directory tree of messages and imports new files
//   - google/calendar: reads events from Google Calendar as a driven.EventSource
package connectors
