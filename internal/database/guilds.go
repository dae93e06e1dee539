package database

import (
	"database/sql"
	"fmt"
	"time"
)

// GuildSettings is the persisted per-guild configuration row.
type GuildSettings struct {
	GuildID          uint64
	OwnerID          uint64
	LogChannelID     uint64
	WelcomeChannelID uint64
	JoinedAt         int64
}

// EnsureGuild inserts a settings row on first contact with a guild.
func (d *Database) EnsureGuild(guildID, ownerID uint64) error {
	_, err := d.db.Exec(`INSERT INTO guild_settings (guild_id, owner_id, joined_at)
		VALUES (?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET owner_id = excluded.owner_id`,
		guildID, ownerID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to ensure guild settings: %w", err)
	}
	return nil
}

func (d *Database) LoadGuild(guildID uint64) (*GuildSettings, error) {
	var gs GuildSettings
	err := d.db.QueryRow(`SELECT guild_id, owner_id, log_channel_id, welcome_channel_id, joined_at
		FROM guild_settings WHERE guild_id = ?`, guildID).
		Scan(&gs.GuildID, &gs.OwnerID, &gs.LogChannelID, &gs.WelcomeChannelID, &gs.JoinedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load guild settings: %w", err)
	}
	return &gs, nil
}

func (d *Database) SetLogChannel(guildID, channelID uint64) error {
	_, err := d.db.Exec("UPDATE guild_settings SET log_channel_id = ? WHERE guild_id = ?", channelID, guildID)
	return err
}

func (d *Database) SetWelcomeChannel(guildID, channelID uint64) error {
	_, err := d.db.Exec("UPDATE guild_settings SET welcome_channel_id = ? WHERE guild_id = ?", channelID, guildID)
	return err
}

// RemoveGuild drops all persisted per-guild rows on permanent departure.
// The snapshot row is removed separately by the snapshot store.
func (d *Database) RemoveGuild(guildID uint64) error {
	if _, err := d.db.Exec("DELETE FROM guild_settings WHERE guild_id = ?", guildID); err != nil {
		return fmt.Errorf("failed to remove guild settings: %w", err)
	}
	if _, err := d.db.Exec("DELETE FROM exemptions WHERE guild_id = ?", guildID); err != nil {
		return fmt.Errorf("failed to remove guild exemptions: %w", err)
	}
	return nil
}

// Exemption tiers are stored one row per (guild, user, tier). Expiry is
// only meaningful for the temporary tier.
func (d *Database) SaveExemption(guildID, userID uint64, tier string, expiry int64) error {
	_, err := d.db.Exec(`INSERT INTO exemptions (guild_id, user_id, tier, expiry)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(guild_id, user_id, tier) DO UPDATE SET expiry = excluded.expiry`,
		guildID, userID, tier, expiry)
	return err
}

func (d *Database) DeleteExemption(guildID, userID uint64, tier string) error {
	_, err := d.db.Exec("DELETE FROM exemptions WHERE guild_id = ? AND user_id = ? AND tier = ?",
		guildID, userID, tier)
	return err
}

// ExemptionRow mirrors one persisted exemption entry.
type ExemptionRow struct {
	GuildID uint64
	UserID  uint64
	Tier    string
	Expiry  int64
}

func (d *Database) LoadExemptions() ([]ExemptionRow, error) {
	rows, err := d.db.Query("SELECT guild_id, user_id, tier, expiry FROM exemptions")
	if err != nil {
		return nil, fmt.Errorf("failed to query exemptions: %w", err)
	}
	defer rows.Close()

	var out []ExemptionRow
	for rows.Next() {
		var r ExemptionRow
		if err := rows.Scan(&r.GuildID, &r.UserID, &r.Tier, &r.Expiry); err != nil {
			return nil, fmt.Errorf("failed to scan exemption row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *Database) LoadAllGuilds() ([]*GuildSettings, error) {
	rows, err := d.db.Query("SELECT guild_id, owner_id, log_channel_id, welcome_channel_id, joined_at FROM guild_settings")
	if err != nil {
		return nil, fmt.Errorf("failed to query guild settings: %w", err)
	}
	defer rows.Close()

	var out []*GuildSettings
	for rows.Next() {
		var gs GuildSettings
		if err := rows.Scan(&gs.GuildID, &gs.OwnerID, &gs.LogChannelID, &gs.WelcomeChannelID, &gs.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan guild settings: %w", err)
		}
		out = append(out, &gs)
	}
	return out, rows.Err()
}
