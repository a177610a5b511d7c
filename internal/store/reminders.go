package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Reminder fires once at FireTime. Completed only ever moves from false to true.
type Reminder struct {
	ID          int64
	Title       string
	Description string
	FireTime    time.Time
	Completed   bool
}

func (s *Store) CreateReminder(ctx context.Context, title, description string, fireTime time.Time) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, fmt.Errorf("create reminder: %w", ErrEmptyTitle)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders (title, description, fire_time, completed)
		VALUES (?, ?, ?, 0)
	`, title, strings.TrimSpace(description), formatTime(fireTime))
	if err != nil {
		return 0, storageErr("create reminder", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("create reminder id", err)
	}
	return id, nil
}

// ListActive returns incomplete reminders, earliest fire time first.
func (s *Store) ListActive(ctx context.Context) ([]Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, fire_time, completed
		FROM reminders
		WHERE completed = 0
		ORDER BY fire_time ASC, id ASC
	`)
	if err != nil {
		return nil, storageErr("list reminders", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (s *Store) GetReminder(ctx context.Context, id int64) (Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, fire_time, completed
		FROM reminders WHERE id = ?
	`, id)
	if err != nil {
		return Reminder{}, storageErr("get reminder", err)
	}
	defer rows.Close()

	list, err := scanReminders(rows)
	if err != nil {
		return Reminder{}, err
	}
	if len(list) == 0 {
		return Reminder{}, fmt.Errorf("reminder %d: %w", id, ErrNotFound)
	}
	return list[0], nil
}

// CompleteReminder flips completed to true and reports whether this call did it. A
// reminder that is already completed yields false with no error.
func (s *Store) CompleteReminder(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE reminders SET completed = 1 WHERE id = ? AND completed = 0`, id)
	if err != nil {
		return false, storageErr("complete reminder", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("complete reminder rows", err)
	}
	return n == 1, nil
}

// MarkCompleted is idempotent: completing a completed reminder is a no-op.
func (s *Store) MarkCompleted(ctx context.Context, id int64) error {
	_, err := s.CompleteReminder(ctx, id)
	return err
}

func scanReminders(rows *sql.Rows) ([]Reminder, error) {
	result := make([]Reminder, 0)
	for rows.Next() {
		var r Reminder
		var fireTime string
		var completed int
		if err := rows.Scan(&r.ID, &r.Title, &r.Description, &fireTime, &completed); err != nil {
			return nil, storageErr("scan reminder", err)
		}
		t, err := parseTime(fireTime)
		if err != nil {
			return nil, storageErr("parse reminder fire time", errors.Join(fmt.Errorf("reminder %d", r.ID), err))
		}
		r.FireTime = t
		r.Completed = completed == 1
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate reminders", err)
	}
	return result, nil
}
