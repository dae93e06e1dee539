package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/logging"
)

// Persister stores snapshot blobs. Implemented by the database layer.
type Persister interface {
	SaveSnapshot(guildID uint64, blob []byte, updatedAt int64) error
	LoadSnapshot(guildID uint64) ([]byte, error)
	DeleteSnapshot(guildID uint64) error
}

// Store captures and retrieves structural baselines. Last capture wins;
// snapshots are never deleted on read.
type Store struct {
	persister Persister
}

var globalStore *Store

func InitStore(persister Persister) {
	globalStore = &Store{persister: persister}
}

func GetStore() *Store {
	return globalStore
}

func NewStore(persister Persister) *Store {
	return &Store{persister: persister}
}

// Capture builds a snapshot from the guild's current structure and
// persists it, replacing any earlier snapshot. Safe to call repeatedly.
func (s *Store) Capture(g *discordgo.Guild) (*Snapshot, error) {
	snap := Build(g)

	blob, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.persister.SaveSnapshot(snap.GuildID, blob, snap.Timestamp); err != nil {
		return nil, fmt.Errorf("failed to persist snapshot: %w", err)
	}

	logging.Info("[SNAPSHOT] Captured guild %d: %d roles, %d categories, %d channels",
		snap.GuildID, len(snap.Roles), len(snap.Categories), len(snap.Channels))
	return snap, nil
}

// Load returns the stored snapshot for a guild, or nil when none exists.
func (s *Store) Load(guildID uint64) (*Snapshot, error) {
	blob, err := s.persister.LoadSnapshot(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if blob == nil {
		return nil, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

// HasValid reports whether a usable snapshot is already stored. A load
// failure counts as no snapshot, so callers fall through to a fresh
// capture.
func (s *Store) HasValid(guildID uint64) bool {
	snap, err := s.Load(guildID)
	if err != nil {
		logging.Warn("[SNAPSHOT] Failed to check snapshot for guild %d: %v", guildID, err)
		return false
	}
	return snap.IsValid()
}

// Forget removes the stored snapshot when the bot permanently leaves a
// guild.
func (s *Store) Forget(guildID uint64) {
	if err := s.persister.DeleteSnapshot(guildID); err != nil {
		logging.Warn("[SNAPSHOT] Failed to delete snapshot for guild %d: %v", guildID, err)
	}
}
