package services

import (
	"sync"

	"github.com/custodia-labs/pimsearch/internal/core/observable"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
)

// Ensure ProgressTracker implements the interface.
var _ driven.ProgressTracker = (*ProgressTracker)(nil)

// ProgressTracker aggregates the progress of all registered monitors into a
// single percentage.
type ProgressTracker struct {
	mu       sync.Mutex
	next     driven.MonitorHandle
	monitors map[driven.MonitorHandle]*ProgressMonitor
	progress *observable.Value[float64]
}

// NewProgressTracker creates a tracker with no monitors.
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{
		monitors: make(map[driven.MonitorHandle]*ProgressMonitor),
		progress: observable.New(0.0),
	}
}

// Progress publishes the aggregate progress in percent. It is 0 when idle.
func (t *ProgressTracker) Progress() *observable.Value[float64] {
	return t.progress
}

// RegisterMonitorSync registers a monitor for totalWork units.
func (t *ProgressTracker) RegisterMonitorSync(totalWork int) driven.MonitorHandle {
	t.mu.Lock()
	t.next++
	handle := t.next
	t.monitors[handle] = &ProgressMonitor{tracker: t, handle: handle, total: max(totalWork, 0)}
	t.mu.Unlock()

	t.publish()
	return handle
}

// GetMonitor returns the monitor registered under handle.
// Completed monitors are no longer returned.
func (t *ProgressTracker) GetMonitor(handle driven.MonitorHandle) (driven.ProgressMonitor, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.monitors[handle]
	if !ok {
		return nil, false
	}
	return m, true
}

// ActiveMonitors returns the number of monitors not yet completed.
func (t *ProgressTracker) ActiveMonitors() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.monitors)
}

func (t *ProgressTracker) publish() {
	t.mu.Lock()
	var total, done int
	for _, m := range t.monitors {
		total += m.total
		done += m.done
	}
	t.mu.Unlock()

	percent := 0.0
	if total > 0 {
		percent = float64(done) / float64(total) * 100
	}
	t.progress.Set(percent)
}

func (t *ProgressTracker) remove(handle driven.MonitorHandle) {
	t.mu.Lock()
	delete(t.monitors, handle)
	t.mu.Unlock()
	t.publish()
}

// ProgressMonitor tracks one piece of work registered with a ProgressTracker.
type ProgressMonitor struct {
	tracker *ProgressTracker
	handle  driven.MonitorHandle

	// total and done are guarded by tracker.mu.
	total int
	done  int
}

// WorkDone reports n more units of work as finished.
func (m *ProgressMonitor) WorkDone(n int) {
	m.tracker.mu.Lock()
	m.done = min(m.done+n, m.total)
	m.tracker.mu.Unlock()
	m.tracker.publish()
}

// Completed finishes the monitor and unregisters it.
func (m *ProgressMonitor) Completed() {
	m.tracker.remove(m.handle)
}

// noopProgressTracker accepts monitors and discards their progress.
type noopProgressTracker struct{}

func (noopProgressTracker) RegisterMonitorSync(int) driven.MonitorHandle { return 0 }

func (noopProgressTracker) GetMonitor(driven.MonitorHandle) (driven.ProgressMonitor, bool) {
	return noopMonitor{}, true
}

type noopMonitor struct{}

func (noopMonitor) WorkDone(int) {}
func (noopMonitor) Completed()   {}
