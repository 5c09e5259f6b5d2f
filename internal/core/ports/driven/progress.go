package driven

// MonitorHandle identifies a registered progress monitor.
type MonitorHandle int

// ProgressMonitor receives progress for one unit of long-running work.
type ProgressMonitor interface {
	// WorkDone reports n more units as finished.
	WorkDone(n int)

	// Completed marks all work as finished.
	Completed()
}

// ProgressTracker hands out progress monitors.
type ProgressTracker interface {
	// RegisterMonitorSync registers a monitor expecting totalWork units.
	RegisterMonitorSync(totalWork int) MonitorHandle

	// GetMonitor returns the monitor for handle, if still registered.
	GetMonitor(handle MonitorHandle) (ProgressMonitor, bool)
}
