package state

import "testing"

func TestUpsertBlacklistIdempotentGuildMerge(t *testing.T) {
	lists := NewLists(nil)

	entry, created := lists.UpsertBlacklist(66, "nuker", "mass deletion", 1)
	if !created {
		t.Fatal("first upsert must create the entry")
	}
	if len(entry.GuildsDetected) != 1 || entry.GuildsDetected[0] != 1 {
		t.Fatalf("GuildsDetected = %v, want [1]", entry.GuildsDetected)
	}

	// Same guild again is a no-op.
	entry, created = lists.UpsertBlacklist(66, "nuker", "mass deletion", 1)
	if created {
		t.Fatal("second upsert must not create a new entry")
	}
	if len(entry.GuildsDetected) != 1 {
		t.Fatalf("GuildsDetected = %v, duplicate guild must not be appended", entry.GuildsDetected)
	}

	// A new guild merges into the existing entry.
	entry, created = lists.UpsertBlacklist(66, "nuker", "mass deletion", 2)
	if created {
		t.Fatal("merge must not create a new entry")
	}
	if len(entry.GuildsDetected) != 2 {
		t.Fatalf("GuildsDetected = %v, want two guilds", entry.GuildsDetected)
	}
}

func TestPreloadDoesNotPersist(t *testing.T) {
	p := &recordingPersister{}
	lists := NewLists(p)

	lists.Preload(
		[]*BlacklistEntry{{ID: 66, Name: "nuker"}},
		[]*AllowEntry{{ID: 9, Name: "trusted"}},
	)

	if p.saves != 0 {
		t.Fatalf("preload wrote %d entries back to the store, want 0", p.saves)
	}
	if !lists.IsBlacklisted(66) || !lists.IsAllowed(9) {
		t.Fatal("preloaded entries must be queryable")
	}
}

func TestRemoveBlacklistDeletesFromStore(t *testing.T) {
	p := &recordingPersister{}
	lists := NewLists(p)

	lists.UpsertBlacklist(66, "nuker", "mass deletion", 1)
	if !lists.RemoveBlacklist(66) {
		t.Fatal("removal of an existing entry must report true")
	}
	if lists.RemoveBlacklist(66) {
		t.Fatal("removal of a missing entry must report false")
	}
	if p.deletes != 1 {
		t.Fatalf("store deletes = %d, want 1", p.deletes)
	}
}

type recordingPersister struct {
	saves   int
	deletes int
}

func (r *recordingPersister) SaveBlacklistEntry(*BlacklistEntry) error { r.saves++; return nil }
func (r *recordingPersister) DeleteBlacklistEntry(uint64) error        { r.deletes++; return nil }
func (r *recordingPersister) SaveAllowEntry(*AllowEntry) error         { r.saves++; return nil }
func (r *recordingPersister) DeleteAllowEntry(uint64) error            { r.deletes++; return nil }
