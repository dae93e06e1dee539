package database

import (
	"encoding/json"
	"fmt"

	"github.com/hoyin666/AntiNuke360/internal/state"
)

// LoadBlacklist reads every deny-list entry for preloading the in-memory
// cache at startup.
func (d *Database) LoadBlacklist() ([]*state.BlacklistEntry, error) {
	rows, err := d.db.Query("SELECT bot_id, name, reason, timestamp, guilds_detected FROM bot_blacklist")
	if err != nil {
		return nil, fmt.Errorf("failed to query blacklist: %w", err)
	}
	defer rows.Close()

	var entries []*state.BlacklistEntry
	for rows.Next() {
		var e state.BlacklistEntry
		var guildsJSON string
		if err := rows.Scan(&e.ID, &e.Name, &e.Reason, &e.Timestamp, &guildsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan blacklist row: %w", err)
		}
		if err := json.Unmarshal([]byte(guildsJSON), &e.GuildsDetected); err != nil {
			e.GuildsDetected = nil
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (d *Database) SaveBlacklistEntry(e *state.BlacklistEntry) error {
	guildsJSON, err := json.Marshal(e.GuildsDetected)
	if err != nil {
		return fmt.Errorf("failed to encode detected guilds: %w", err)
	}
	_, err = d.db.Exec(`INSERT INTO bot_blacklist (bot_id, name, reason, timestamp, guilds_detected)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(bot_id) DO UPDATE SET
			name = excluded.name,
			reason = excluded.reason,
			guilds_detected = excluded.guilds_detected`,
		e.ID, e.Name, e.Reason, e.Timestamp, string(guildsJSON))
	if err != nil {
		return fmt.Errorf("failed to save blacklist entry: %w", err)
	}
	return nil
}

func (d *Database) DeleteBlacklistEntry(id uint64) error {
	_, err := d.db.Exec("DELETE FROM bot_blacklist WHERE bot_id = ?", id)
	return err
}

func (d *Database) LoadAllowlist() ([]*state.AllowEntry, error) {
	rows, err := d.db.Query("SELECT bot_id, name, reason, timestamp FROM bot_whitelist")
	if err != nil {
		return nil, fmt.Errorf("failed to query whitelist: %w", err)
	}
	defer rows.Close()

	var entries []*state.AllowEntry
	for rows.Next() {
		var e state.AllowEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Reason, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan whitelist row: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (d *Database) SaveAllowEntry(e *state.AllowEntry) error {
	_, err := d.db.Exec(`INSERT INTO bot_whitelist (bot_id, name, reason, timestamp)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(bot_id) DO UPDATE SET
			name = excluded.name,
			reason = excluded.reason`,
		e.ID, e.Name, e.Reason, e.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save whitelist entry: %w", err)
	}
	return nil
}

func (d *Database) DeleteAllowEntry(id uint64) error {
	_, err := d.db.Exec("DELETE FROM bot_whitelist WHERE bot_id = ?", id)
	return err
}
