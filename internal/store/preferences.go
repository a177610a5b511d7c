package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// Default preferences written on first start. Existing values are never overwritten.
var DefaultPreferences = map[string]string{
	"voice_rate":     "200",
	"voice_volume":   "0.9",
	"default_city":   "New York",
	"news_country":   "us",
	"assistant_name": "Jarvis",
}

// SetPreference stores value under key. The last write wins.
func (s *Store) SetPreference(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("preference key must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO preferences (key, value) VALUES (?, ?)`, key, value)
	return storageErr("set preference", err)
}

// GetPreference returns the stored value, or fallback with ok=false when the key is absent.
func (s *Store) GetPreference(ctx context.Context, key, fallback string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, strings.TrimSpace(key)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, false, nil
	}
	if err != nil {
		return fallback, false, storageErr("get preference", err)
	}
	return value, true, nil
}

func (s *Store) Preferences(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM preferences ORDER BY key`)
	if err != nil {
		return nil, storageErr("list preferences", err)
	}
	defer rows.Close()

	prefs := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, storageErr("scan preference", err)
		}
		prefs[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate preferences", err)
	}
	return prefs, nil
}

// EnsureDefaults inserts each default whose key is not yet present.
func (s *Store) EnsureDefaults(ctx context.Context, defaults map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("ensure defaults", err)
	}
	for k, v := range defaults {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO preferences (key, value) VALUES (?, ?)`, k, v); err != nil {
			_ = tx.Rollback()
			return storageErr("ensure defaults", err)
		}
	}
	return storageErr("ensure defaults commit", tx.Commit())
}
