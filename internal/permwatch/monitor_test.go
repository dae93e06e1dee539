package permwatch

import (
	"testing"
	"time"

	"github.com/hoyin666/AntiNuke360/internal/config"
)

func TestRecordFailureTriggersAtLimit(t *testing.T) {
	var alerts, detaches []uint64
	m := NewMonitor(
		func(g uint64) { alerts = append(alerts, g) },
		func(g uint64) { detaches = append(detaches, g) },
	)
	now := time.Unix(1_700_000_000, 0)
	m.clock = func() time.Time { return now }

	for i := 0; i < config.PermFailureLimit-1; i++ {
		m.RecordFailure(5)
	}
	if len(alerts) != 0 {
		t.Fatalf("alert fired after %d failures, limit is %d", config.PermFailureLimit-1, config.PermFailureLimit)
	}

	m.RecordFailure(5)
	if len(alerts) != 1 || alerts[0] != 5 {
		t.Fatalf("alerts = %v, want exactly one for guild 5", alerts)
	}
	if len(detaches) != 1 || detaches[0] != 5 {
		t.Fatalf("detaches = %v, want exactly one for guild 5", detaches)
	}
}

func TestRecordFailureWindowClearedAfterTrigger(t *testing.T) {
	var alerts []uint64
	m := NewMonitor(func(g uint64) { alerts = append(alerts, g) }, nil)
	now := time.Unix(1_700_000_000, 0)
	m.clock = func() time.Time { return now }

	for i := 0; i < config.PermFailureLimit; i++ {
		m.RecordFailure(5)
	}
	// The next failure starts a fresh window instead of re-triggering.
	m.RecordFailure(5)
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, trigger must not double-fire", len(alerts))
	}
}

func TestRecordFailurePrunesOldEntries(t *testing.T) {
	var alerts []uint64
	m := NewMonitor(func(g uint64) { alerts = append(alerts, g) }, nil)
	now := time.Unix(1_700_000_000, 0)
	m.clock = func() time.Time { return now }

	for i := 0; i < config.PermFailureLimit-1; i++ {
		m.RecordFailure(5)
	}

	// The early failures age out of the window.
	now = now.Add(config.PermFailureWindow + time.Second)
	m.RecordFailure(5)
	if len(alerts) != 0 {
		t.Fatal("stale failures must not count toward the limit")
	}
}

func TestFailureWindowsIndependentPerGuild(t *testing.T) {
	var alerts []uint64
	m := NewMonitor(func(g uint64) { alerts = append(alerts, g) }, nil)
	now := time.Unix(1_700_000_000, 0)
	m.clock = func() time.Time { return now }

	for i := 0; i < config.PermFailureLimit-1; i++ {
		m.RecordFailure(5)
		m.RecordFailure(6)
	}
	m.RecordFailure(6)

	if len(alerts) != 1 || alerts[0] != 6 {
		t.Fatalf("alerts = %v, want only guild 6", alerts)
	}
}

func TestForgetDropsWindow(t *testing.T) {
	var alerts []uint64
	m := NewMonitor(func(g uint64) { alerts = append(alerts, g) }, nil)
	now := time.Unix(1_700_000_000, 0)
	m.clock = func() time.Time { return now }

	for i := 0; i < config.PermFailureLimit-1; i++ {
		m.RecordFailure(5)
	}
	m.Forget(5)
	m.RecordFailure(5)

	if len(alerts) != 0 {
		t.Fatal("Forget must clear accumulated failures")
	}
}
