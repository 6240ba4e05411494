// Package persistence provides SQLite-based nest state storage and the
// durable choice log behind the analytics sink.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/nestsim/internal/nest"
	"github.com/talgya/nestsim/internal/tiers"
)

// DB wraps a SQLite connection for nest state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS nest_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		level INTEGER NOT NULL,
		seed_stock INTEGER NOT NULL,
		last_passive_tick_ms INTEGER NOT NULL,
		upgrade_json TEXT NOT NULL,
		assignments_json TEXT NOT NULL,
		pool_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS choices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at_ms INTEGER NOT NULL,
		label TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS nest_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_choices_at ON choices(at_ms);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveState writes the nest aggregate as the single canonical row.
func (db *DB) SaveState(st nest.State) error {
	upgradeJSON, err := json.Marshal(st.Upgrade)
	if err != nil {
		return fmt.Errorf("marshal upgrade: %w", err)
	}
	assignmentsJSON, err := json.Marshal(st.Assignments)
	if err != nil {
		return fmt.Errorf("marshal assignments: %w", err)
	}
	poolJSON, err := json.Marshal(st.Pool)
	if err != nil {
		return fmt.Errorf("marshal pool: %w", err)
	}

	_, err = db.conn.Exec(`INSERT OR REPLACE INTO nest_state
		(id, level, seed_stock, last_passive_tick_ms, upgrade_json, assignments_json, pool_json)
		VALUES (1, ?, ?, ?, ?, ?, ?)`,
		st.Level, st.SeedStock, st.LastPassiveTickMillis,
		string(upgradeJSON), string(assignmentsJSON), string(poolJSON),
	)
	if err != nil {
		return fmt.Errorf("save nest state: %w", err)
	}
	return nil
}

// LoadState reads the persisted nest aggregate.
func (db *DB) LoadState() (nest.State, error) {
	var row struct {
		Level           tiers.Level `db:"level"`
		SeedStock       int64       `db:"seed_stock"`
		LastPassiveTick int64       `db:"last_passive_tick_ms"`
		UpgradeJSON     string      `db:"upgrade_json"`
		AssignmentsJSON string      `db:"assignments_json"`
		PoolJSON        string      `db:"pool_json"`
	}
	if err := db.conn.Get(&row, "SELECT level, seed_stock, last_passive_tick_ms, upgrade_json, assignments_json, pool_json FROM nest_state WHERE id = 1"); err != nil {
		return nest.State{}, fmt.Errorf("load nest state: %w", err)
	}

	st := nest.State{
		Level:                 row.Level,
		SeedStock:             row.SeedStock,
		LastPassiveTickMillis: row.LastPassiveTick,
	}
	if err := json.Unmarshal([]byte(row.UpgradeJSON), &st.Upgrade); err != nil {
		return nest.State{}, fmt.Errorf("unmarshal upgrade: %w", err)
	}
	if err := json.Unmarshal([]byte(row.AssignmentsJSON), &st.Assignments); err != nil {
		return nest.State{}, fmt.Errorf("unmarshal assignments: %w", err)
	}
	if err := json.Unmarshal([]byte(row.PoolJSON), &st.Pool); err != nil {
		return nest.State{}, fmt.Errorf("unmarshal pool: %w", err)
	}
	return st, nil
}

// HasState reports whether a nest state row exists.
func (db *DB) HasState() bool {
	var count int
	if err := db.conn.Get(&count, "SELECT COUNT(*) FROM nest_state WHERE id = 1"); err != nil {
		return false
	}
	return count > 0
}

// IsNotFound reports whether an error from LoadState means "never saved".
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// AppendChoice records one player choice. Satisfies analytics.ChoiceWriter.
func (db *DB) AppendChoice(label string) error {
	_, err := db.conn.Exec(
		"INSERT INTO choices (at_ms, label) VALUES (?, ?)",
		time.Now().UnixMilli(), label,
	)
	return err
}

// Choice is one recorded player choice.
type Choice struct {
	ID       int64  `db:"id" json:"id"`
	AtMillis int64  `db:"at_ms" json:"at_ms"`
	Label    string `db:"label" json:"label"`
}

// RecentChoices returns the most recent N choices, newest first.
func (db *DB) RecentChoices(limit int) ([]Choice, error) {
	var choices []Choice
	err := db.conn.Select(&choices,
		"SELECT id, at_ms, label FROM choices ORDER BY id DESC LIMIT ?",
		limit,
	)
	return choices, err
}

// SaveMeta stores a key-value pair in nest metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO nest_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM nest_meta WHERE key = ?", key)
	return value, err
}
