package state

import (
	"sync"
	"time"
)

// BlacklistEntry records an automated participant flagged destructive
// anywhere. GuildsDetected grows as the same bot is caught in more
// guilds; insertion is idempotent per bot ID.
type BlacklistEntry struct {
	ID             uint64
	Name           string
	Reason         string
	Timestamp      int64
	GuildsDetected []uint64
}

// AllowEntry is a total exemption: the actor is never counted and never
// enforced, in any guild.
type AllowEntry struct {
	ID        uint64
	Name      string
	Reason    string
	Timestamp int64
}

// ListPersister is implemented by the database layer. A nil persister
// keeps the lists purely in memory, which tests rely on.
type ListPersister interface {
	SaveBlacklistEntry(e *BlacklistEntry) error
	DeleteBlacklistEntry(id uint64) error
	SaveAllowEntry(e *AllowEntry) error
	DeleteAllowEntry(id uint64) error
}

// Lists is the process-wide deny-list / allow-list cache. A single
// process owns the backing store; writes go to the cache first and are
// persisted through the ListPersister.
type Lists struct {
	mu        sync.RWMutex
	blacklist map[uint64]*BlacklistEntry
	allowlist map[uint64]*AllowEntry
	persister ListPersister
}

var globalLists *Lists

func InitLists(persister ListPersister) {
	globalLists = NewLists(persister)
}

func NewLists(persister ListPersister) *Lists {
	return &Lists{
		blacklist: make(map[uint64]*BlacklistEntry),
		allowlist: make(map[uint64]*AllowEntry),
		persister: persister,
	}
}

func GetLists() *Lists {
	return globalLists
}

// Preload installs entries read from the store at startup without
// writing them back.
func (l *Lists) Preload(black []*BlacklistEntry, allow []*AllowEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range black {
		l.blacklist[e.ID] = e
	}
	for _, e := range allow {
		l.allowlist[e.ID] = e
	}
}

func (l *Lists) IsBlacklisted(id uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.blacklist[id]
	return ok
}

func (l *Lists) IsAllowed(id uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.allowlist[id]
	return ok
}

func (l *Lists) Blacklisted(id uint64) *BlacklistEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.blacklist[id]
}

func (l *Lists) Allowed(id uint64) *AllowEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.allowlist[id]
}

// UpsertBlacklist flags an actor, or merges the guild into the existing
// entry when the actor was already flagged elsewhere. Returns the entry
// and whether it was newly created.
func (l *Lists) UpsertBlacklist(id uint64, name, reason string, guildID uint64) (*BlacklistEntry, bool) {
	l.mu.Lock()
	entry, ok := l.blacklist[id]
	created := false
	if !ok {
		entry = &BlacklistEntry{
			ID:             id,
			Name:           name,
			Reason:         reason,
			Timestamp:      time.Now().Unix(),
			GuildsDetected: []uint64{guildID},
		}
		l.blacklist[id] = entry
		created = true
	} else {
		found := false
		for _, g := range entry.GuildsDetected {
			if g == guildID {
				found = true
				break
			}
		}
		if !found {
			entry.GuildsDetected = append(entry.GuildsDetected, guildID)
		}
	}
	l.mu.Unlock()

	if l.persister != nil {
		if err := l.persister.SaveBlacklistEntry(entry); err != nil {
			return entry, created
		}
	}
	return entry, created
}

func (l *Lists) RemoveBlacklist(id uint64) bool {
	l.mu.Lock()
	_, ok := l.blacklist[id]
	delete(l.blacklist, id)
	l.mu.Unlock()

	if ok && l.persister != nil {
		l.persister.DeleteBlacklistEntry(id)
	}
	return ok
}

func (l *Lists) AddAllow(id uint64, name, reason string) *AllowEntry {
	entry := &AllowEntry{
		ID:        id,
		Name:      name,
		Reason:    reason,
		Timestamp: time.Now().Unix(),
	}
	l.mu.Lock()
	l.allowlist[id] = entry
	l.mu.Unlock()

	if l.persister != nil {
		l.persister.SaveAllowEntry(entry)
	}
	return entry
}

func (l *Lists) RemoveAllow(id uint64) bool {
	l.mu.Lock()
	_, ok := l.allowlist[id]
	delete(l.allowlist, id)
	l.mu.Unlock()

	if ok && l.persister != nil {
		l.persister.DeleteAllowEntry(id)
	}
	return ok
}

func (l *Lists) BlacklistSize() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.blacklist)
}

func (l *Lists) AllowlistSize() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.allowlist)
}

func (l *Lists) BlacklistEntries() []*BlacklistEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*BlacklistEntry, 0, len(l.blacklist))
	for _, e := range l.blacklist {
		out = append(out, e)
	}
	return out
}

func (l *Lists) AllowEntries() []*AllowEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*AllowEntry, 0, len(l.allowlist))
	for _, e := range l.allowlist {
		out = append(out, e)
	}
	return out
}
