package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

// SettingJWTSecret is the settings key holding the token signing key.
const SettingJWTSecret = "jwt_secret"

// GetOrCreateSetting returns the value stored under key. If there is none,
// the value produced by generate is stored and returned. Concurrent callers
// always observe the first stored value.
func GetOrCreateSetting(ctx context.Context, db *sql.DB, key string, generate func() (string, error)) (string, error) {
	candidate, err := generate()
	if err != nil {
		return "", fmt.Errorf("generating %s: %w", key, err)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, key, candidate,
	); err != nil {
		return "", fmt.Errorf("storing %s: %w", key, err)
	}

	var value string
	if err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value); err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}
	return value, nil
}

// GetJWTSecret returns the persisted JWT signing key, generating a random
// 32-byte key on first use.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	return GetOrCreateSetting(ctx, db, SettingJWTSecret, func() (string, error) {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		return hex.EncodeToString(buf), nil
	})
}
