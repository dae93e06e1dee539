package guard

import (
	"testing"
	"time"

	"github.com/hoyin666/AntiNuke360/internal/config"
	"github.com/hoyin666/AntiNuke360/internal/state"
)

func newTestWorkspace(t *testing.T, guildID uint64) *state.Workspace {
	t.Helper()
	return state.NewRegistry().GetOrCreate(guildID)
}

func newTestTracker(lists *state.Lists) (*Tracker, *time.Time) {
	tr := NewTracker(NewResolver(lists))
	now := time.Unix(1_700_000_000, 0)
	tr.clock = func() time.Time { return now }
	return tr, &now
}

func TestRecordExceedsOnlyPastMaximum(t *testing.T) {
	ws := newTestWorkspace(t, 1)
	tr, _ := newTestTracker(state.NewLists(nil))

	for i := 1; i <= config.MaxActions; i++ {
		if got := tr.Record(ws, 42, ActionChannelDelete); got != OutcomeOK {
			t.Fatalf("call %d: got %v, want OutcomeOK", i, got)
		}
	}
	if got := tr.Record(ws, 42, ActionChannelDelete); got != OutcomeExceeded {
		t.Fatalf("call %d: got %v, want OutcomeExceeded", config.MaxActions+1, got)
	}
}

func TestRecordWindowsAreIndependentPerAction(t *testing.T) {
	ws := newTestWorkspace(t, 1)
	tr, _ := newTestTracker(state.NewLists(nil))

	for i := 0; i < config.MaxActions; i++ {
		tr.Record(ws, 42, ActionChannelDelete)
	}
	// A different action type starts from a clean window.
	if got := tr.Record(ws, 42, ActionRoleCreate); got != OutcomeOK {
		t.Fatalf("got %v, want OutcomeOK for a fresh action window", got)
	}
	// A different actor does too.
	if got := tr.Record(ws, 43, ActionChannelDelete); got != OutcomeOK {
		t.Fatalf("got %v, want OutcomeOK for a fresh actor", got)
	}
}

func TestRecordPrunesExpiredEvents(t *testing.T) {
	ws := newTestWorkspace(t, 1)
	tr, now := newTestTracker(state.NewLists(nil))

	for i := 0; i < config.MaxActions; i++ {
		tr.Record(ws, 42, ActionChannelDelete)
	}

	// Past the window everything expires, so the counter starts over.
	*now = now.Add(time.Duration(config.WindowSeconds+1) * time.Second)
	if got := tr.Record(ws, 42, ActionChannelDelete); got != OutcomeOK {
		t.Fatalf("got %v, want OutcomeOK after the window expired", got)
	}
}

func TestRecordOwnerIsExempt(t *testing.T) {
	ws := newTestWorkspace(t, 1)
	ws.SetOwner(7)
	tr, _ := newTestTracker(state.NewLists(nil))

	for i := 0; i < config.MaxActions*3; i++ {
		if got := tr.Record(ws, 7, ActionChannelDelete); got != OutcomeExempt {
			t.Fatalf("got %v, want OutcomeExempt for the owner", got)
		}
	}
}

func TestRecordPermanentAndAllowListedAreExempt(t *testing.T) {
	ws := newTestWorkspace(t, 1)
	ws.AddPermanent(8)
	lists := state.NewLists(nil)
	lists.AddAllow(9, "trusted-bot", "verified")
	tr, _ := newTestTracker(lists)

	if got := tr.Record(ws, 8, ActionMemberBan); got != OutcomeExempt {
		t.Fatalf("permanent tier: got %v, want OutcomeExempt", got)
	}
	if got := tr.Record(ws, 9, ActionMemberBan); got != OutcomeExempt {
		t.Fatalf("allow list: got %v, want OutcomeExempt", got)
	}
}

func TestRecordDenylistedActor(t *testing.T) {
	ws := newTestWorkspace(t, 1)
	lists := state.NewLists(nil)
	lists.UpsertBlacklist(66, "nuker", "mass deletion", 2)
	tr, _ := newTestTracker(lists)

	if got := tr.Record(ws, 66, ActionChannelCreate); got != OutcomeDenylisted {
		t.Fatalf("got %v, want OutcomeDenylisted", got)
	}

	// The anti-kick shield suppresses the deny-list ban but keeps the
	// actor on the standard rate limit.
	ws.AddAntiKick(66)
	for i := 1; i <= config.MaxActions; i++ {
		if got := tr.Record(ws, 66, ActionChannelCreate); got != OutcomeOK {
			t.Fatalf("shielded call %d: got %v, want OutcomeOK", i, got)
		}
	}
	if got := tr.Record(ws, 66, ActionChannelCreate); got != OutcomeExceeded {
		t.Fatalf("got %v, want OutcomeExceeded for shielded actor past the limit", got)
	}
}

func TestRecordTempExemptRelaxedProfile(t *testing.T) {
	ws := newTestWorkspace(t, 1)
	tr, _ := newTestTracker(state.NewLists(nil))
	ws.AddTemporaryUntil(42, time.Now().Add(config.TempExemptTTL).Unix())

	// Sensitive actions run on the relaxed profile.
	for i := 1; i <= config.TempExemptMaxActions; i++ {
		if got := tr.Record(ws, 42, ActionChannelDelete); got != OutcomeOK {
			t.Fatalf("relaxed call %d: got %v, want OutcomeOK", i, got)
		}
	}
	if got := tr.Record(ws, 42, ActionChannelDelete); got != OutcomeExceeded {
		t.Fatalf("got %v, want OutcomeExceeded past the relaxed maximum", got)
	}
}

func TestRecordTempExemptDoesNotRelaxNonSensitive(t *testing.T) {
	ws := newTestWorkspace(t, 1)
	tr, _ := newTestTracker(state.NewLists(nil))
	ws.AddTemporaryUntil(42, time.Now().Add(config.TempExemptTTL).Unix())

	if ActionMessageBurst.Sensitive() {
		t.Fatal("message burst must not be a sensitive action")
	}
	for i := 0; i < config.MaxActions; i++ {
		tr.Record(ws, 42, ActionMessageBurst)
	}
	if got := tr.Record(ws, 42, ActionMessageBurst); got != OutcomeExceeded {
		t.Fatalf("got %v, want OutcomeExceeded on the standard profile", got)
	}
}

func TestClearGuildDropsWindows(t *testing.T) {
	ws := newTestWorkspace(t, 1)
	other := newTestWorkspace(t, 2)
	tr, _ := newTestTracker(state.NewLists(nil))

	for i := 0; i < config.MaxActions; i++ {
		tr.Record(ws, 42, ActionChannelDelete)
		tr.Record(other, 42, ActionChannelDelete)
	}
	tr.ClearGuild(1)

	if got := tr.Record(ws, 42, ActionChannelDelete); got != OutcomeOK {
		t.Fatalf("got %v, want OutcomeOK after ClearGuild", got)
	}
	if got := tr.Record(other, 42, ActionChannelDelete); got != OutcomeExceeded {
		t.Fatalf("got %v, want OutcomeExceeded for the untouched guild", got)
	}
}

func TestWindowRingPrune(t *testing.T) {
	var w window
	base := int64(1_000_000)
	for i := 0; i < ringCapacity+5; i++ {
		w.append(base + int64(i))
	}
	if w.count != ringCapacity {
		t.Fatalf("count = %d, want %d after overflow", w.count, ringCapacity)
	}

	w.prune(base + int64(ringCapacity+3))
	if w.count != 2 {
		t.Fatalf("count = %d, want 2 after prune", w.count)
	}
}
