package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: listings imported before owner tracking get a placeholder owner.
	`UPDATE items SET owner_id = 'unknown' WHERE owner_id = ''`,
	// Migration 2: blank translations are treated as missing; store them as NULL.
	`UPDATE items SET title_en = NULL WHERE trim(title_en) = ''`,
	`UPDATE items SET title_ar = NULL WHERE trim(title_ar) = ''`,
}

// Migrate ensures the schema and runs the data migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
