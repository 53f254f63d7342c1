// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
// For production observability, consider integrating with Prometheus or similar.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// Transport metrics
	transportOpensTotal  atomic.Int64
	transportOpenErrors  atomic.Int64
	transportLatencyNano atomic.Int64

	// Device task metrics
	deviceOpsTotal  atomic.Int64
	deviceOpsErrors atomic.Int64

	// Pairing probe metrics
	probesTotal  atomic.Int64
	probesFailed atomic.Int64

	// Status history metrics
	statusCodesRecorded atomic.Int64
	statusCodesDropped  atomic.Int64
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordTransportOpen records a transport open attempt with its duration
// and success status.
func (m *Metrics) RecordTransportOpen(duration time.Duration, err error) {
	m.transportOpensTotal.Add(1)
	m.transportLatencyNano.Add(duration.Nanoseconds())
	if err != nil {
		m.transportOpenErrors.Add(1)
	}
}

// RecordDeviceOp records a device task sequence.
func (m *Metrics) RecordDeviceOp(err error) {
	m.deviceOpsTotal.Add(1)
	if err != nil {
		m.deviceOpsErrors.Add(1)
	}
}

// RecordProbe records a pairing probe and its outcome.
func (m *Metrics) RecordProbe(paired bool) {
	m.probesTotal.Add(1)
	if !paired {
		m.probesFailed.Add(1)
	}
}

// RecordStatusCode records a new status history entry. dropped indicates
// the oldest entry was evicted to stay within the history bound.
func (m *Metrics) RecordStatusCode(dropped bool) {
	m.statusCodesRecorded.Add(1)
	if dropped {
		m.statusCodesDropped.Add(1)
	}
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	TransportOpensTotal  int64
	TransportOpenErrors  int64
	TransportLatencyNano int64
	DeviceOpsTotal       int64
	DeviceOpsErrors      int64
	ProbesTotal          int64
	ProbesFailed         int64
	StatusCodesRecorded  int64
	StatusCodesDropped   int64
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		TransportOpensTotal:  m.transportOpensTotal.Load(),
		TransportOpenErrors:  m.transportOpenErrors.Load(),
		TransportLatencyNano: m.transportLatencyNano.Load(),
		DeviceOpsTotal:       m.deviceOpsTotal.Load(),
		DeviceOpsErrors:      m.deviceOpsErrors.Load(),
		ProbesTotal:          m.probesTotal.Load(),
		ProbesFailed:         m.probesFailed.Load(),
		StatusCodesRecorded:  m.statusCodesRecorded.Load(),
		StatusCodesDropped:   m.statusCodesDropped.Load(),
	}
}

// TransportOpenLatencyAvgMs returns the average transport open latency in
// milliseconds. Returns 0 if no opens have been recorded.
func (m *Metrics) TransportOpenLatencyAvgMs() float64 {
	opens := m.transportOpensTotal.Load()
	if opens == 0 {
		return 0
	}
	return float64(m.transportLatencyNano.Load()) / float64(opens) / 1e6
}

// Reset resets all metrics to zero.
// Useful for testing.
func (m *Metrics) Reset() {
	m.transportOpensTotal.Store(0)
	m.transportOpenErrors.Store(0)
	m.transportLatencyNano.Store(0)
	m.deviceOpsTotal.Store(0)
	m.deviceOpsErrors.Store(0)
	m.probesTotal.Store(0)
	m.probesFailed.Store(0)
	m.statusCodesRecorded.Store(0)
	m.statusCodesDropped.Store(0)
}
