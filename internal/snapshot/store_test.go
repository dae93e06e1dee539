package snapshot

import (
	"errors"
	"testing"
)

type memPersister struct {
	blobs    map[uint64][]byte
	fail     bool
	loadFail bool
}

func newMemPersister() *memPersister {
	return &memPersister{blobs: make(map[uint64][]byte)}
}

func (m *memPersister) SaveSnapshot(guildID uint64, blob []byte, updatedAt int64) error {
	if m.fail {
		return errors.New("disk full")
	}
	m.blobs[guildID] = blob
	return nil
}

func (m *memPersister) LoadSnapshot(guildID uint64) ([]byte, error) {
	if m.loadFail {
		return nil, errors.New("disk error")
	}
	return m.blobs[guildID], nil
}

func (m *memPersister) DeleteSnapshot(guildID uint64) error {
	delete(m.blobs, guildID)
	return nil
}

func TestCaptureThenLoadRoundTrip(t *testing.T) {
	store := NewStore(newMemPersister())

	captured, err := store.Capture(testGuild())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	loaded, err := store.Load(100)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("Load returned nil for a captured guild")
	}
	if loaded.GuildID != captured.GuildID || loaded.Timestamp != captured.Timestamp {
		t.Fatalf("loaded %d/%d, want %d/%d", loaded.GuildID, loaded.Timestamp, captured.GuildID, captured.Timestamp)
	}
	if len(loaded.Roles) != len(captured.Roles) || len(loaded.Channels) != len(captured.Channels) {
		t.Fatal("loaded snapshot lost structure")
	}
}

func TestLoadMissingReturnsNil(t *testing.T) {
	store := NewStore(newMemPersister())

	snap, err := store.Load(999)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap != nil {
		t.Fatal("Load of a missing guild must return nil, nil")
	}
	if snap.IsValid() {
		t.Fatal("a missing snapshot must not be valid")
	}
}

func TestCapturePersistFailure(t *testing.T) {
	p := newMemPersister()
	p.fail = true
	store := NewStore(p)

	if _, err := store.Capture(testGuild()); err == nil {
		t.Fatal("Capture must surface persister errors")
	}
}

func TestHasValid(t *testing.T) {
	p := newMemPersister()
	store := NewStore(p)

	if store.HasValid(100) {
		t.Fatal("no snapshot stored, HasValid must be false")
	}

	if _, err := store.Capture(testGuild()); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if !store.HasValid(100) {
		t.Fatal("a fresh snapshot must count as valid")
	}

	// A read failure must not masquerade as a valid snapshot.
	p.loadFail = true
	if store.HasValid(100) {
		t.Fatal("a load failure must count as no snapshot")
	}
}

func TestForgetRemovesSnapshot(t *testing.T) {
	p := newMemPersister()
	store := NewStore(p)

	if _, err := store.Capture(testGuild()); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	store.Forget(100)

	snap, err := store.Load(100)
	if err != nil || snap != nil {
		t.Fatalf("Load after Forget = (%v, %v), want (nil, nil)", snap, err)
	}
}
