package database

import (
	"database/sql"
	"fmt"
)

// SaveSnapshot stores the JSON blob for a guild, replacing any earlier
// snapshot. Last write wins.
func (d *Database) SaveSnapshot(guildID uint64, blob []byte, updatedAt int64) error {
	_, err := d.db.Exec(`INSERT INTO snapshots (guild_id, snapshot_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			snapshot_json = excluded.snapshot_json,
			updated_at = excluded.updated_at`,
		guildID, string(blob), updatedAt)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored blob, or nil when no snapshot exists.
func (d *Database) LoadSnapshot(guildID uint64) ([]byte, error) {
	var blob string
	err := d.db.QueryRow("SELECT snapshot_json FROM snapshots WHERE guild_id = ?", guildID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return []byte(blob), nil
}

func (d *Database) DeleteSnapshot(guildID uint64) error {
	_, err := d.db.Exec("DELETE FROM snapshots WHERE guild_id = ?", guildID)
	return err
}
