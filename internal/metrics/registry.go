package metrics

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Registry holds the process-wide protection counters. All counters are
// monotonic and lock-free.
type Registry struct {
	startTime time.Time

	EventsTracked     atomic.Uint64
	RateLimitTrips    atomic.Uint64
	BansIssued        atomic.Uint64
	DenyListHits      atomic.Uint64
	SnapshotsCaptured atomic.Uint64
	RestoresRun       atomic.Uint64
	Escalations       atomic.Uint64
	PermFailures      atomic.Uint64
}

var globalRegistry = &Registry{startTime: time.Now()}

func GetRegistry() *Registry {
	return globalRegistry
}

func (r *Registry) Uptime() time.Duration {
	return time.Since(r.startTime)
}

// Export renders the counters in a line-oriented text format.
func (r *Registry) Export() string {
	return fmt.Sprintf(
		"uptime_seconds %d\n"+
			"events_tracked_total %d\n"+
			"ratelimit_trips_total %d\n"+
			"bans_issued_total %d\n"+
			"denylist_hits_total %d\n"+
			"snapshots_captured_total %d\n"+
			"restores_run_total %d\n"+
			"escalations_total %d\n"+
			"permission_failures_total %d\n",
		int64(r.Uptime().Seconds()),
		r.EventsTracked.Load(),
		r.RateLimitTrips.Load(),
		r.BansIssued.Load(),
		r.DenyListHits.Load(),
		r.SnapshotsCaptured.Load(),
		r.RestoresRun.Load(),
		r.Escalations.Load(),
		r.PermFailures.Load(),
	)
}
