package guard

import (
	"sync"
	"time"

	"github.com/hoyin666/AntiNuke360/internal/config"
	"github.com/hoyin666/AntiNuke360/internal/state"
)

type Outcome uint8

const (
	OutcomeOK Outcome = iota
	OutcomeExempt
	OutcomeDenylisted
	OutcomeExceeded
)

// ringCapacity bounds each action window. It only needs to hold one
// more timestamp than the largest profile maximum.
const ringCapacity = config.TempExemptMaxActions + 1

// window is a fixed-size ring of event timestamps (unix nanos), oldest
// at head.
type window struct {
	buf   [ringCapacity]int64
	head  int
	count int
}

func (w *window) append(ts int64) {
	if w.count == ringCapacity {
		w.head = (w.head + 1) % ringCapacity
		w.count--
	}
	w.buf[(w.head+w.count)%ringCapacity] = ts
	w.count++
}

// prune drops entries older than the cutoff. Invariant afterwards: the
// window never contains a timestamp before cutoff.
func (w *window) prune(cutoff int64) {
	for w.count > 0 && w.buf[w.head] < cutoff {
		w.head = (w.head + 1) % ringCapacity
		w.count--
	}
}

type windowKey struct {
	guildID uint64
	actorID uint64
	action  Action
}

const trackerShards = 16

type trackerShard struct {
	mu      sync.Mutex
	windows map[windowKey]*window
}

// Tracker maintains sliding-window counters per (guild, actor, action).
// Windows are sharded by key so handlers for different actors rarely
// contend on the same lock.
type Tracker struct {
	resolver *Resolver
	shards   [trackerShards]trackerShard
	clock    func() time.Time
}

func NewTracker(resolver *Resolver) *Tracker {
	t := &Tracker{
		resolver: resolver,
		clock:    time.Now,
	}
	for i := range t.shards {
		t.shards[i].windows = make(map[windowKey]*window)
	}
	return t
}

func (t *Tracker) shard(k windowKey) *trackerShard {
	h := k.guildID ^ (k.actorID * 0x9E3779B97F4A7C15) ^ uint64(k.action)
	return &t.shards[h%trackerShards]
}

// Record classifies the actor and, unless exempt or deny-listed, counts
// the event against the applicable profile. OutcomeExceeded fires on the
// (max+1)-th in-window event, strictly greater than the maximum.
func (t *Tracker) Record(ws *state.Workspace, actorID uint64, action Action) Outcome {
	res := t.resolver.Classify(ws, actorID)
	switch res.Verdict {
	case VerdictExempt:
		return OutcomeExempt
	case VerdictDenylisted:
		return OutcomeDenylisted
	}

	maxActions := config.MaxActions
	windowSec := int64(config.WindowSeconds)
	if res.TempExempt && action.Sensitive() {
		maxActions = config.TempExemptMaxActions
		windowSec = int64(config.TempExemptWindowSeconds)
	}

	now := t.clock().UnixNano()
	cutoff := now - windowSec*int64(time.Second)

	k := windowKey{guildID: ws.ID, actorID: actorID, action: action}
	s := t.shard(k)

	s.mu.Lock()
	w, ok := s.windows[k]
	if !ok {
		w = &window{}
		s.windows[k] = w
	}
	w.append(now)
	w.prune(cutoff)
	count := w.count
	s.mu.Unlock()

	if count > maxActions {
		return OutcomeExceeded
	}
	return OutcomeOK
}

// ClearGuild drops every window belonging to a guild, used when the bot
// leaves or rejoins it.
func (t *Tracker) ClearGuild(guildID uint64) {
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.Lock()
		for k := range s.windows {
			if k.guildID == guildID {
				delete(s.windows, k)
			}
		}
		s.mu.Unlock()
	}
}
