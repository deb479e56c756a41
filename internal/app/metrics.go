// Package app provides the main application structure and coordination.
package app

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks sync activity over the lifetime of the engine. All
// recording methods are safe for concurrent use.
type Metrics struct {
	// Pull handling
	pullCount   atomic.Uint64
	fullPulls   atomic.Uint64
	pullTotalNs atomic.Int64
	pullMaxNs   atomic.Int64

	// Apply handling
	applyCount   atomic.Uint64
	applyTotalNs atomic.Int64
	applyMaxNs   atomic.Int64

	// Protocol health
	desyncCount atomic.Uint64

	// Watcher activity
	changeCount    atomic.Uint64
	notifyFailures atomic.Uint64
	watchErrors    atomic.Uint64

	// Start time for uptime calculation
	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordPull records one served pull. full marks a pull that was
// encoded without a shared baseline.
func (m *Metrics) RecordPull(full bool, d time.Duration) {
	ns := d.Nanoseconds()

	m.pullCount.Add(1)
	m.pullTotalNs.Add(ns)
	if full {
		m.fullPulls.Add(1)
	}
	storeMax(&m.pullMaxNs, ns)
}

// RecordApply records one applied delta.
func (m *Metrics) RecordApply(d time.Duration) {
	ns := d.Nanoseconds()

	m.applyCount.Add(1)
	m.applyTotalNs.Add(ns)
	storeMax(&m.applyMaxNs, ns)
}

// RecordDesync records a request refused for a baseline mismatch.
func (m *Metrics) RecordDesync() {
	m.desyncCount.Add(1)
}

// RecordChange records a watcher change forwarded to the host.
func (m *Metrics) RecordChange() {
	m.changeCount.Add(1)
}

// RecordNotifyFailure records a change notification that could not be
// delivered.
func (m *Metrics) RecordNotifyFailure() {
	m.notifyFailures.Add(1)
}

// RecordWatchError records an error reported by the file watcher.
func (m *Metrics) RecordWatchError() {
	m.watchErrors.Add(1)
}

// storeMax raises a to ns if ns is larger (atomic compare-and-swap loop).
func storeMax(a *atomic.Int64, ns int64) {
	for {
		old := a.Load()
		if ns <= old {
			return
		}
		if a.CompareAndSwap(old, ns) {
			return
		}
	}
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	pullCount := m.pullCount.Load()
	applyCount := m.applyCount.Load()

	var avgPullNs int64
	if pullCount > 0 {
		avgPullNs = m.pullTotalNs.Load() / int64(pullCount)
	}

	var avgApplyNs int64
	if applyCount > 0 {
		avgApplyNs = m.applyTotalNs.Load() / int64(applyCount)
	}

	return MetricsSnapshot{
		Uptime:         time.Since(m.startTime),
		PullCount:      pullCount,
		FullPulls:      m.fullPulls.Load(),
		AvgPullNs:      avgPullNs,
		MaxPullNs:      m.pullMaxNs.Load(),
		ApplyCount:     applyCount,
		AvgApplyNs:     avgApplyNs,
		MaxApplyNs:     m.applyMaxNs.Load(),
		DesyncCount:    m.desyncCount.Load(),
		ChangeCount:    m.changeCount.Load(),
		NotifyFailures: m.notifyFailures.Load(),
		WatchErrors:    m.watchErrors.Load(),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.pullCount.Store(0)
	m.fullPulls.Store(0)
	m.pullTotalNs.Store(0)
	m.pullMaxNs.Store(0)
	m.applyCount.Store(0)
	m.applyTotalNs.Store(0)
	m.applyMaxNs.Store(0)
	m.desyncCount.Store(0)
	m.changeCount.Store(0)
	m.notifyFailures.Store(0)
	m.watchErrors.Store(0)
	m.startTime = time.Now()
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime         time.Duration
	PullCount      uint64
	FullPulls      uint64
	AvgPullNs      int64
	MaxPullNs      int64
	ApplyCount     uint64
	AvgApplyNs     int64
	MaxApplyNs     int64
	DesyncCount    uint64
	ChangeCount    uint64
	NotifyFailures uint64
	WatchErrors    uint64
}

// DeltaRate returns the percentage of pulls served as deltas rather
// than full encodes.
func (s MetricsSnapshot) DeltaRate() float64 {
	if s.PullCount == 0 {
		return 0
	}
	return float64(s.PullCount-s.FullPulls) / float64(s.PullCount) * 100
}

// AvgPullMs returns the average pull time in milliseconds.
func (s MetricsSnapshot) AvgPullMs() float64 {
	return float64(s.AvgPullNs) / 1e6
}

// AvgApplyMs returns the average apply time in milliseconds.
func (s MetricsSnapshot) AvgApplyMs() float64 {
	return float64(s.AvgApplyNs) / 1e6
}

// appMetrics is the application-wide metrics instance.
var (
	appMetrics     *Metrics
	appMetricsOnce sync.Once
)

// GetMetrics returns the application metrics.
func GetMetrics() *Metrics {
	appMetricsOnce.Do(func() {
		if appMetrics == nil {
			appMetrics = NewMetrics()
		}
	})
	return appMetrics
}

// SetMetrics sets the application-wide metrics.
func SetMetrics(m *Metrics) {
	appMetrics = m
}

// Metrics returns the application's metrics instance.
func (app *Application) Metrics() *Metrics {
	if app.metrics == nil {
		return GetMetrics()
	}
	return app.metrics
}
