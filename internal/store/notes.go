package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type Note struct {
	ID        int64
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

func (s *Store) CreateNote(ctx context.Context, title, content string, at time.Time) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, fmt.Errorf("create note: %w", ErrEmptyTitle)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (title, content, created_at, updated_at)
		VALUES (?, ?, ?, NULL)
	`, title, content, formatTime(at))
	if err != nil {
		return 0, storageErr("create note", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("create note id", err)
	}
	return id, nil
}

// ListNotes returns notes newest first. limit <= 0 returns all of them.
func (s *Store) ListNotes(ctx context.Context, limit int) ([]Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT id, title, content, created_at, updated_at FROM notes ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list notes", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

func scanNotes(rows *sql.Rows) ([]Note, error) {
	result := make([]Note, 0)
	for rows.Next() {
		var n Note
		var createdAt string
		var updatedAt sql.NullString
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &createdAt, &updatedAt); err != nil {
			return nil, storageErr("scan note", err)
		}
		t, err := parseTime(createdAt)
		if err != nil {
			return nil, storageErr("parse note created_at", err)
		}
		n.CreatedAt = t
		if updatedAt.Valid && updatedAt.String != "" {
			if u, err := parseTime(updatedAt.String); err == nil {
				n.UpdatedAt = &u
			}
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate notes", err)
	}
	return result, nil
}
