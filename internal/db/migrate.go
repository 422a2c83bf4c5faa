package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Statements are idempotent and are
// re-run on every open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS ladders (
		account_id TEXT NOT NULL,
		slot       TEXT NOT NULL CHECK(slot IN ('draft','active')),
		revision   INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (account_id, slot)
	)`,

	`CREATE TABLE IF NOT EXISTS ladder_bands (
		account_id  TEXT NOT NULL,
		slot        TEXT NOT NULL,
		position    INTEGER NOT NULL,
		band_id     TEXT NOT NULL,
		min_revenue REAL NOT NULL,
		max_revenue REAL,
		cycle_value REAL NOT NULL,
		PRIMARY KEY (account_id, slot, position),
		FOREIGN KEY (account_id, slot) REFERENCES ladders(account_id, slot) ON DELETE CASCADE
	)`,

	`CREATE INDEX IF NOT EXISTS idx_ladder_bands_band_id ON ladder_bands(account_id, slot, band_id)`,
}
