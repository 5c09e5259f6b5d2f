// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - IndexSearch: Full-text search over indexed mail (bleve)
//   - MailIndex: Writes mail into that index
//   - MailStore: Mail persistence
//   - EventStore: Calendar event persistence
//   - IndexStateStore: Persistence of the indexer watermark
//   - ProgressTracker: Progress reporting for long-running loads
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EventSource: Remote calendar (Google Calendar). Without it, only imported events are searched.
//
// # Import Rules
//
//   - Can Import: domain and observable packages only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
