package kernel

import (
	"testing"
	"time"
)

func TestMetricsRecordCallUpdatesCountersAndHistogram(t *testing.T) {
	m := NewMetrics()

	m.RecordCall(5, 50_000, true)
	m.RecordCall(5, 2_000_000, false)

	snap := m.Snapshot()
	if snap.CallsByType[5] != 2 {
		t.Errorf("CallsByType[5] = %d, want 2", snap.CallsByType[5])
	}
	if snap.TotalCalls != 2 {
		t.Errorf("TotalCalls = %d, want 2", snap.TotalCalls)
	}
	if snap.CallErrors != 1 {
		t.Errorf("CallErrors = %d, want 1", snap.CallErrors)
	}
	if snap.ErrorRate < 49.9 || snap.ErrorRate > 50.1 {
		t.Errorf("ErrorRate = %v, want ~50.0", snap.ErrorRate)
	}
	// 50us lands in the 100us bucket and above, 2ms in the 10ms bucket
	// and above; buckets hold cumulative counts.
	wantHist := [numLatencyBuckets]uint64{0, 0, 1, 1, 2, 2, 2, 2}
	if snap.LatencyHistogram != wantHist {
		t.Errorf("LatencyHistogram = %v, want %v", snap.LatencyHistogram, wantHist)
	}
}

func TestMetricsRecordCallIgnoresOutOfRangeType(t *testing.T) {
	m := NewMetrics()
	m.RecordCall(255, 1000, true)

	snap := m.Snapshot()
	if snap.TotalCalls != 1 {
		t.Errorf("TotalCalls = %d, want 1", snap.TotalCalls)
	}
}

func TestMetricsSchedulerCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordSpawn()
	m.RecordSpawn()
	m.RecordThreadCompleted()
	m.RecordDispatchTick()

	snap := m.Snapshot()
	if snap.ThreadsSpawned != 2 {
		t.Errorf("ThreadsSpawned = %d, want 2", snap.ThreadsSpawned)
	}
	if snap.ThreadsCompleted != 1 {
		t.Errorf("ThreadsCompleted = %d, want 1", snap.ThreadsCompleted)
	}
	if snap.DispatchTicks != 1 {
		t.Errorf("DispatchTicks = %d, want 1", snap.DispatchTicks)
	}
}

func TestMetricsAvgLatency(t *testing.T) {
	m := NewMetrics()
	m.RecordCall(1, 1_000, true)
	m.RecordCall(1, 3_000, true)

	snap := m.Snapshot()
	if snap.AvgLatencyNs != 2_000 {
		t.Errorf("AvgLatencyNs = %d, want 2000", snap.AvgLatencyNs)
	}
}

func TestMetricsUptimeAdvancesUntilStop(t *testing.T) {
	m := NewMetrics()
	time.Sleep(time.Millisecond)
	m.Stop()
	snap := m.Snapshot()
	if snap.UptimeNs == 0 {
		t.Error("expected UptimeNs > 0")
	}

	stopped := m.StopTime.Load()
	time.Sleep(time.Millisecond)
	snap2 := m.Snapshot()
	if m.StopTime.Load() != stopped {
		t.Error("StopTime should not advance after Stop")
	}
	if snap2.UptimeNs != snap.UptimeNs {
		t.Errorf("UptimeNs changed after Stop: %d -> %d", snap.UptimeNs, snap2.UptimeNs)
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.RecordCall(1, 1_000, false)
	m.RecordSpawn()
	m.Reset()

	snap := m.Snapshot()
	if snap.TotalCalls != 0 {
		t.Errorf("TotalCalls = %d, want 0", snap.TotalCalls)
	}
	if snap.ThreadsSpawned != 0 {
		t.Errorf("ThreadsSpawned = %d, want 0", snap.ThreadsSpawned)
	}
	if snap.CallErrors != 0 {
		t.Errorf("CallErrors = %d, want 0", snap.CallErrors)
	}
}

func TestMetricsObserverDelegates(t *testing.T) {
	m := NewMetrics()
	obs := NewMetricsObserver(m)

	obs.ObserveCall(3, 500, true)
	obs.ObserveSpawn()
	obs.ObserveThreadCompleted()
	obs.ObserveDispatchTick()

	snap := m.Snapshot()
	if snap.CallsByType[3] != 1 {
		t.Errorf("CallsByType[3] = %d, want 1", snap.CallsByType[3])
	}
	if snap.ThreadsSpawned != 1 {
		t.Errorf("ThreadsSpawned = %d, want 1", snap.ThreadsSpawned)
	}
	if snap.ThreadsCompleted != 1 {
		t.Errorf("ThreadsCompleted = %d, want 1", snap.ThreadsCompleted)
	}
	if snap.DispatchTicks != 1 {
		t.Errorf("DispatchTicks = %d, want 1", snap.DispatchTicks)
	}
}

func TestNoOpObserverDoesNothing(t *testing.T) {
	var obs NoOpObserver
	obs.ObserveCall(1, 1, true)
	obs.ObserveSpawn()
	obs.ObserveThreadCompleted()
	obs.ObserveDispatchTick()
}
