package kernel

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the RPC call-latency histogram buckets in
// nanoseconds, covering 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks performance and operational statistics for a kernel's RPC
// client or server side, and for its scheduler.
type Metrics struct {
	// RPC call counters, keyed by RPCType via CallsByType[msgType].
	CallsByType [14]atomic.Uint64 // indexed by wire.RPCType value, 0 unused
	CallErrors  atomic.Uint64

	// Scheduler counters.
	ThreadsSpawned   atomic.Uint64
	ThreadsCompleted atomic.Uint64
	DispatchTicks    atomic.Uint64

	// Performance tracking.
	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64

	// Latency histogram buckets (cumulative counts).
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	// Lifecycle.
	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a new metrics instance with its start time set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordCall records one completed RPC call of the given wire type.
func (m *Metrics) RecordCall(msgType uint8, latencyNs uint64, success bool) {
	if int(msgType) < len(m.CallsByType) {
		m.CallsByType[msgType].Add(1)
	}
	if !success {
		m.CallErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordSpawn records a scheduler thread spawn.
func (m *Metrics) RecordSpawn() {
	m.ThreadsSpawned.Add(1)
}

// RecordThreadCompleted records a scheduler thread completion.
func (m *Metrics) RecordThreadCompleted() {
	m.ThreadsCompleted.Add(1)
}

// RecordDispatchTick records one iteration of the scheduler's dispatch loop.
func (m *Metrics) RecordDispatchTick() {
	m.DispatchTicks.Add(1)
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop marks the metrics instance as stopped (uptime calculations freeze).
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time snapshot of Metrics.
type MetricsSnapshot struct {
	CallsByType [14]uint64
	CallErrors  uint64
	TotalCalls  uint64

	ThreadsSpawned   uint64
	ThreadsCompleted uint64
	DispatchTicks    uint64

	AvgLatencyNs uint64
	UptimeNs     uint64
	ErrorRate    float64

	LatencyHistogram [numLatencyBuckets]uint64
	LatencyP50Ns     uint64
	LatencyP99Ns     uint64
}

// Snapshot produces a consistent point-in-time view of the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var snap MetricsSnapshot
	for i := range m.CallsByType {
		snap.CallsByType[i] = m.CallsByType[i].Load()
	}
	snap.CallErrors = m.CallErrors.Load()
	snap.ThreadsSpawned = m.ThreadsSpawned.Load()
	snap.ThreadsCompleted = m.ThreadsCompleted.Load()
	snap.DispatchTicks = m.DispatchTicks.Load()

	opCount := m.OpCount.Load()
	snap.TotalCalls = opCount
	if opCount > 0 {
		snap.AvgLatencyNs = m.TotalLatencyNs.Load() / opCount
	}

	start := m.StartTime.Load()
	stop := m.StopTime.Load()
	if stop > 0 {
		snap.UptimeNs = uint64(stop - start)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - start)
	}

	if snap.TotalCalls > 0 {
		snap.ErrorRate = float64(snap.CallErrors) / float64(snap.TotalCalls) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}
	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile (0.0-1.0)
// using linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}

	targetCount := uint64(float64(totalOps) * percentile)
	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}
	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset zeroes all counters, useful for tests.
func (m *Metrics) Reset() {
	for i := range m.CallsByType {
		m.CallsByType[i].Store(0)
	}
	m.CallErrors.Store(0)
	m.ThreadsSpawned.Store(0)
	m.ThreadsCompleted.Store(0)
	m.DispatchTicks.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable metrics collection for both RPC calls and
// scheduler activity.
type Observer interface {
	ObserveCall(msgType uint8, latencyNs uint64, success bool)
	ObserveSpawn()
	ObserveThreadCompleted()
	ObserveDispatchTick()
}

// NoOpObserver is a no-op implementation of Observer.
type NoOpObserver struct{}

func (NoOpObserver) ObserveCall(uint8, uint64, bool) {}
func (NoOpObserver) ObserveSpawn()                   {}
func (NoOpObserver) ObserveThreadCompleted()          {}
func (NoOpObserver) ObserveDispatchTick()            {}

// MetricsObserver implements Observer by recording into a *Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveCall(msgType uint8, latencyNs uint64, success bool) {
	o.metrics.RecordCall(msgType, latencyNs, success)
}

func (o *MetricsObserver) ObserveSpawn() { o.metrics.RecordSpawn() }

func (o *MetricsObserver) ObserveThreadCompleted() { o.metrics.RecordThreadCompleted() }

func (o *MetricsObserver) ObserveDispatchTick() { o.metrics.RecordDispatchTick() }

var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
