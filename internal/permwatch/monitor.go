package permwatch

import (
	"sync"
	"time"

	"github.com/hoyin666/AntiNuke360/internal/config"
	"github.com/hoyin666/AntiNuke360/internal/logging"
)

// Monitor watches authorization-failure bursts per guild. Reaching the
// failure limit inside the rolling window triggers a one-time alert and
// detaches the bot from the guild. The alert and detach actions are
// injected so the monitor stays free of transport concerns.
type Monitor struct {
	mu       sync.Mutex
	failures map[uint64][]int64
	clock    func() time.Time

	alert  func(guildID uint64)
	detach func(guildID uint64)
}

var globalMonitor *Monitor

func InitMonitor(alert, detach func(guildID uint64)) {
	globalMonitor = NewMonitor(alert, detach)
}

func GetMonitor() *Monitor {
	return globalMonitor
}

func NewMonitor(alert, detach func(guildID uint64)) *Monitor {
	return &Monitor{
		failures: make(map[uint64][]int64),
		clock:    time.Now,
		alert:    alert,
		detach:   detach,
	}
}

// RecordFailure appends a failure timestamp and fires alert-then-detach
// when the rolling window fills. The window is cleared immediately
// afterwards so the trigger cannot double-fire.
func (m *Monitor) RecordFailure(guildID uint64) {
	now := m.clock().Unix()
	cutoff := now - int64(config.PermFailureWindow.Seconds())

	m.mu.Lock()
	window := m.failures[guildID]
	window = append(window, now)
	pruned := window[:0]
	for _, ts := range window {
		if ts > cutoff {
			pruned = append(pruned, ts)
		}
	}
	triggered := len(pruned) >= config.PermFailureLimit
	if triggered {
		delete(m.failures, guildID)
	} else {
		m.failures[guildID] = pruned
	}
	m.mu.Unlock()

	if !triggered {
		return
	}

	logging.Warn("[PERMISSION] Guild %d hit %d authorization failures in %s, detaching",
		guildID, config.PermFailureLimit, config.PermFailureWindow)
	if m.alert != nil {
		m.alert(guildID)
	}
	if m.detach != nil {
		m.detach(guildID)
	}
}

// Forget drops the failure window when the bot leaves a guild.
func (m *Monitor) Forget(guildID uint64) {
	m.mu.Lock()
	delete(m.failures, guildID)
	m.mu.Unlock()
}
