package app

import (
	"testing"
	"time"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()
	if m == nil {
		t.Fatal("NewMetrics() returned nil")
	}

	snapshot := m.Snapshot()
	if snapshot.PullCount != 0 {
		t.Errorf("expected 0 pulls, got %d", snapshot.PullCount)
	}
	if snapshot.ApplyCount != 0 {
		t.Errorf("expected 0 applies, got %d", snapshot.ApplyCount)
	}
}

func TestMetrics_RecordPull(t *testing.T) {
	m := NewMetrics()

	m.RecordPull(true, 10*time.Millisecond)
	m.RecordPull(false, 20*time.Millisecond)
	m.RecordPull(false, 6*time.Millisecond)

	snapshot := m.Snapshot()
	if snapshot.PullCount != 3 {
		t.Errorf("expected 3 pulls, got %d", snapshot.PullCount)
	}
	if snapshot.FullPulls != 1 {
		t.Errorf("expected 1 full pull, got %d", snapshot.FullPulls)
	}
	if snapshot.AvgPullNs != int64(12*time.Millisecond) {
		t.Errorf("expected avg 12ms, got %d ns", snapshot.AvgPullNs)
	}
	if snapshot.MaxPullNs != int64(20*time.Millisecond) {
		t.Errorf("expected max 20ms, got %d ns", snapshot.MaxPullNs)
	}
}

func TestMetrics_RecordApply(t *testing.T) {
	m := NewMetrics()

	m.RecordApply(4 * time.Millisecond)
	m.RecordApply(8 * time.Millisecond)

	snapshot := m.Snapshot()
	if snapshot.ApplyCount != 2 {
		t.Errorf("expected 2 applies, got %d", snapshot.ApplyCount)
	}
	if snapshot.AvgApplyNs != int64(6*time.Millisecond) {
		t.Errorf("expected avg 6ms, got %d ns", snapshot.AvgApplyNs)
	}
	if snapshot.MaxApplyNs != int64(8*time.Millisecond) {
		t.Errorf("expected max 8ms, got %d ns", snapshot.MaxApplyNs)
	}
}

func TestMetrics_RecordDesync(t *testing.T) {
	m := NewMetrics()

	m.RecordDesync()
	m.RecordDesync()

	if got := m.Snapshot().DesyncCount; got != 2 {
		t.Errorf("expected 2 desyncs, got %d", got)
	}
}

func TestMetrics_WatcherCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordChange()
	m.RecordChange()
	m.RecordChange()
	m.RecordNotifyFailure()
	m.RecordWatchError()

	snapshot := m.Snapshot()
	if snapshot.ChangeCount != 3 {
		t.Errorf("expected 3 changes, got %d", snapshot.ChangeCount)
	}
	if snapshot.NotifyFailures != 1 {
		t.Errorf("expected 1 notify failure, got %d", snapshot.NotifyFailures)
	}
	if snapshot.WatchErrors != 1 {
		t.Errorf("expected 1 watch error, got %d", snapshot.WatchErrors)
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := NewMetrics()

	m.RecordPull(true, time.Millisecond)
	m.RecordApply(time.Millisecond)
	m.RecordDesync()
	m.RecordChange()
	m.Reset()

	snapshot := m.Snapshot()
	if snapshot.PullCount != 0 || snapshot.ApplyCount != 0 {
		t.Errorf("expected zeroed counters, got %+v", snapshot)
	}
	if snapshot.DesyncCount != 0 || snapshot.ChangeCount != 0 {
		t.Errorf("expected zeroed counters, got %+v", snapshot)
	}
	if snapshot.MaxPullNs != 0 {
		t.Errorf("expected zeroed max, got %d", snapshot.MaxPullNs)
	}
}

func TestMetricsSnapshot_DeltaRate(t *testing.T) {
	m := NewMetrics()

	if rate := m.Snapshot().DeltaRate(); rate != 0 {
		t.Errorf("expected 0 rate with no pulls, got %f", rate)
	}

	m.RecordPull(true, time.Millisecond)
	m.RecordPull(false, time.Millisecond)
	m.RecordPull(false, time.Millisecond)
	m.RecordPull(false, time.Millisecond)

	if rate := m.Snapshot().DeltaRate(); rate != 75 {
		t.Errorf("expected 75%% delta rate, got %f", rate)
	}
}

func TestGetMetrics(t *testing.T) {
	m := GetMetrics()
	if m == nil {
		t.Fatal("GetMetrics() returned nil")
	}
	if m2 := GetMetrics(); m != m2 {
		t.Error("expected GetMetrics() to return same instance")
	}
}
