package notify

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hoyin666/AntiNuke360/internal/snapshot"
	"github.com/hoyin666/AntiNuke360/internal/state"
)

type snapPersister struct {
	blobs map[uint64][]byte
}

func (s *snapPersister) SaveSnapshot(guildID uint64, blob []byte, _ int64) error {
	s.blobs[guildID] = blob
	return nil
}
func (s *snapPersister) LoadSnapshot(guildID uint64) ([]byte, error) { return s.blobs[guildID], nil }
func (s *snapPersister) DeleteSnapshot(guildID uint64) error {
	delete(s.blobs, guildID)
	return nil
}

func storeWithSnapshot(t *testing.T, guildID uint64) *snapshot.Store {
	t.Helper()
	blob, err := json.Marshal(&snapshot.Snapshot{GuildID: guildID, Timestamp: time.Now().Add(-30 * time.Second).Unix()})
	if err != nil {
		t.Fatal(err)
	}
	return snapshot.NewStore(&snapPersister{blobs: map[uint64][]byte{guildID: blob}})
}

type confirmFixture struct {
	transport *fakeTransport
	confirmer *Confirmer
	ws        *state.Workspace
	restored  chan uint64
}

func newConfirmFixture(t *testing.T) *confirmFixture {
	t.Helper()

	transport := newFakeTransport()
	transport.sendable["500"] = true
	router := NewRouter(transport, &fakeDirectory{owner: 1})

	restored := make(chan uint64, 1)
	confirmer := NewConfirmer(router, storeWithSnapshot(t, 10), func(guildID uint64) (int, int, bool, string) {
		restored <- guildID
		return 3, 5, true, ""
	})
	confirmer.timeout = 500 * time.Millisecond

	ws := state.NewRegistry().GetOrCreate(10)
	ws.SetOwner(1)
	ws.SetLogChannel(500)

	return &confirmFixture{transport: transport, confirmer: confirmer, ws: ws, restored: restored}
}

func waitForEmbeds(t *testing.T, transport *fakeTransport, channelID string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if transport.embedCount(channelID) >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("channel %s never reached %d embeds", channelID, n)
}

func TestConfirmYesTriggersRestore(t *testing.T) {
	f := newConfirmFixture(t)

	f.confirmer.PromptRestore(f.ws, "nuker")
	waitForEmbeds(t, f.transport, "500", 1)

	if !f.confirmer.HandleMessage(10, 1, "500", "Y") {
		t.Fatal("the owner's reply must be consumed")
	}

	select {
	case gid := <-f.restored:
		if gid != 10 {
			t.Fatalf("restored guild %d, want 10", gid)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("restore was never triggered")
	}

	waitForEmbeds(t, f.transport, "500", 2)
	report := f.transport.lastEmbed("500")
	if !strings.Contains(report.Description, "3") || !strings.Contains(report.Description, "5") {
		t.Fatalf("completion report %q must carry the created counts", report.Description)
	}
}

func TestPromptCarriesSnapshotLifetime(t *testing.T) {
	f := newConfirmFixture(t)

	f.confirmer.PromptRestore(f.ws, "nuker")
	waitForEmbeds(t, f.transport, "500", 1)

	// The fixture snapshot is 30 seconds old out of a 72 hour lifetime.
	prompt := f.transport.lastEmbed("500")
	if !strings.Contains(prompt.Description, "71h 59m") {
		t.Fatalf("prompt %q must state the remaining snapshot lifetime", prompt.Description)
	}
}

func TestConfirmNoSkipsRestore(t *testing.T) {
	f := newConfirmFixture(t)

	f.confirmer.PromptRestore(f.ws, "nuker")
	waitForEmbeds(t, f.transport, "500", 1)

	if !f.confirmer.HandleMessage(10, 1, "500", "n") {
		t.Fatal("the owner's decline must be consumed")
	}

	waitForEmbeds(t, f.transport, "500", 2)
	select {
	case <-f.restored:
		t.Fatal("restore must not run on decline")
	default:
	}
	notice := f.transport.lastEmbed("500")
	if !strings.Contains(notice.Description, "/restore-snapshot") {
		t.Fatalf("decline notice %q must mention the manual command", notice.Description)
	}
}

func TestConfirmTimeout(t *testing.T) {
	f := newConfirmFixture(t)

	f.confirmer.PromptRestore(f.ws, "nuker")
	waitForEmbeds(t, f.transport, "500", 1)

	// No reply at all; the prompt expires on its own.
	waitForEmbeds(t, f.transport, "500", 2)
	select {
	case <-f.restored:
		t.Fatal("restore must not run on timeout")
	default:
	}
}

func TestConfirmIgnoresWrongAuthorAndChannel(t *testing.T) {
	f := newConfirmFixture(t)

	f.confirmer.PromptRestore(f.ws, "nuker")
	waitForEmbeds(t, f.transport, "500", 1)

	if f.confirmer.HandleMessage(10, 2, "500", "y") {
		t.Fatal("a non-owner reply must be ignored")
	}
	if f.confirmer.HandleMessage(10, 1, "999", "y") {
		t.Fatal("a reply on another channel must be ignored")
	}
	if f.confirmer.HandleMessage(10, 1, "500", "maybe") {
		t.Fatal("an unrecognized reply must be ignored")
	}
}

func TestPromptRestoreCooldown(t *testing.T) {
	f := newConfirmFixture(t)

	f.confirmer.PromptRestore(f.ws, "nuker")
	waitForEmbeds(t, f.transport, "500", 1)

	// A second breach inside the cooldown stays silent.
	f.confirmer.PromptRestore(f.ws, "other")
	time.Sleep(50 * time.Millisecond)
	if f.transport.embedCount("500") != 1 {
		t.Fatal("a second prompt inside the cooldown must be suppressed")
	}
}

func TestCancelAbortsPendingPrompt(t *testing.T) {
	f := newConfirmFixture(t)
	f.confirmer.timeout = time.Hour

	f.confirmer.PromptRestore(f.ws, "nuker")
	waitForEmbeds(t, f.transport, "500", 1)

	f.confirmer.Cancel(10)

	// The cancelled prompt neither answers nor restores.
	if f.confirmer.HandleMessage(10, 1, "500", "y") {
		t.Fatal("a cancelled prompt must not consume replies")
	}
	select {
	case <-f.restored:
		t.Fatal("restore must not run after cancel")
	case <-time.After(50 * time.Millisecond):
	}
}
