package state

import (
	"sync"
	"testing"
	"time"
)

func TestTryMarkBannedExactlyOneWinner(t *testing.T) {
	ws := newWorkspace(1)

	const goroutines = 64
	var wg sync.WaitGroup
	wins := make(chan struct{}, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ws.TryMarkBanned(42) {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for range wins {
		won++
	}
	if won != 1 {
		t.Fatalf("%d goroutines won the ban reservation, want exactly 1", won)
	}
}

func TestUnmarkBannedReopensReservation(t *testing.T) {
	ws := newWorkspace(1)

	if !ws.TryMarkBanned(42) {
		t.Fatal("first reservation must succeed")
	}
	ws.UnmarkBanned(42)
	if !ws.TryMarkBanned(42) {
		t.Fatal("reservation must reopen after UnmarkBanned")
	}
}

func TestTryMarkNotifiedDeduplicates(t *testing.T) {
	ws := newWorkspace(1)

	if !ws.TryMarkNotified(42) {
		t.Fatal("first notification must pass")
	}
	if ws.TryMarkNotified(42) {
		t.Fatal("second notification for the same actor must be suppressed")
	}
	if !ws.TryMarkNotified(43) {
		t.Fatal("a different actor must still pass")
	}
}

func TestTemporaryActiveExpiry(t *testing.T) {
	ws := newWorkspace(1)

	ws.AddTemporaryUntil(42, time.Now().Add(time.Hour).Unix())
	if !ws.TemporaryActive(42) {
		t.Fatal("exemption inside its TTL must be active")
	}

	ws.AddTemporaryUntil(43, time.Now().Add(-time.Second).Unix())
	if ws.TemporaryActive(43) {
		t.Fatal("expired exemption must not be active")
	}
	// The expired entry is purged, not just ignored.
	_, temporary, _ := ws.Exemptions()
	if _, ok := temporary[43]; ok {
		t.Fatal("expired exemption must be purged on read")
	}
}

func TestTryStampRestorePromptCooldown(t *testing.T) {
	ws := newWorkspace(1)

	if !ws.TryStampRestorePrompt(10 * time.Minute) {
		t.Fatal("first prompt must be allowed")
	}
	if ws.TryStampRestorePrompt(10 * time.Minute) {
		t.Fatal("second prompt inside the cooldown must be suppressed")
	}

	// Simulate the cooldown elapsing.
	ws.mu.Lock()
	ws.lastRestorePrompt = time.Now().Add(-11 * time.Minute).Unix()
	ws.mu.Unlock()
	if !ws.TryStampRestorePrompt(10 * time.Minute) {
		t.Fatal("prompt must be allowed again after the cooldown")
	}
}

func TestResetSessionClearsBansAndNotifications(t *testing.T) {
	ws := newWorkspace(1)
	ws.TryMarkBanned(42)
	ws.TryMarkNotified(42)

	ws.ResetSession()

	if !ws.TryMarkBanned(42) {
		t.Fatal("ban reservation must reopen after a session reset")
	}
	if !ws.TryMarkNotified(42) {
		t.Fatal("notification dedup must reset after a session reset")
	}
}

func TestRegistryGetOrCreateReturnsSameWorkspace(t *testing.T) {
	r := NewRegistry()

	a := r.GetOrCreate(1)
	b := r.GetOrCreate(1)
	if a != b {
		t.Fatal("GetOrCreate must return the same workspace for a guild")
	}

	r.Remove(1)
	if r.Get(1) != nil {
		t.Fatal("Get must return nil after Remove")
	}
}
