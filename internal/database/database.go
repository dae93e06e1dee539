package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Database owns the single SQLite file backing the deny/allow lists,
// per-guild exemption tiers, guild settings and snapshot blobs. One
// process owns the file; concurrent multi-process writers are not
// supported.
type Database struct {
	db *sql.DB
}

var globalDB *Database

// Initialize opens the SQLite database in WAL mode and creates the
// schema when missing.
func Initialize(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	globalDB = &Database{db: db}

	if err := globalDB.createTables(); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

func GetDB() *Database {
	return globalDB
}

func Close() error {
	if globalDB != nil && globalDB.db != nil {
		return globalDB.db.Close()
	}
	return nil
}

func (d *Database) createTables() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS bot_blacklist (
			bot_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT '',
			timestamp INTEGER NOT NULL DEFAULT 0,
			guilds_detected TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE TABLE IF NOT EXISTS bot_whitelist (
			bot_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT '',
			timestamp INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS guild_settings (
			guild_id INTEGER PRIMARY KEY,
			owner_id INTEGER NOT NULL DEFAULT 0,
			log_channel_id INTEGER NOT NULL DEFAULT 0,
			welcome_channel_id INTEGER NOT NULL DEFAULT 0,
			joined_at INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS exemptions (
			guild_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			tier TEXT NOT NULL,
			expiry INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (guild_id, user_id, tier)
		)`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			guild_id INTEGER PRIMARY KEY,
			snapshot_json TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}

	for _, stmt := range schema {
		if _, err := d.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
