package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/stellarlinkco/jarvis/internal/store"
)

const (
	reminderLayout = "January 02 at 03:04 PM"
	noteListLimit  = 5
	notePreviewLen = 50
)

var ErrInvalidClock = errors.New("invalid time format")

// ParseClock reads "HH:MM" on a 24-hour clock.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, ErrInvalidClock
	}
	hour, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, ErrInvalidClock
	}
	minute, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, ErrInvalidClock
	}
	return hour, minute, nil
}

// NextFireTime is today at hour:minute, or tomorrow when that moment is not after now.
func NextFireTime(now time.Time, hour, minute int) time.Time {
	t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func (d *Dispatcher) listReminders(ctx context.Context) string {
	list, err := d.store.ListActive(ctx)
	if err != nil {
		d.log.Error().Err(err).Msg("list reminders failed")
		return storageApology("get your reminders")
	}
	if len(list) == 0 {
		return "You have no active reminders"
	}
	lines := make([]string, 0, len(list)+1)
	lines = append(lines, fmt.Sprintf("You have %d active reminders:", len(list)))
	for _, r := range list {
		lines = append(lines, fmt.Sprintf("%s on %s", r.Title, r.FireTime.Format(reminderLayout)))
	}
	return strings.Join(lines, "\n")
}

func (d *Dispatcher) createReminder(ctx context.Context) string {
	title, ok := d.ask(ctx, "Reminder title")
	if !ok {
		return noAnswer
	}
	if title == "" {
		return "A reminder needs a title."
	}
	description, ok := d.ask(ctx, "Description (optional)")
	if !ok {
		return noAnswer
	}
	when, ok := d.ask(ctx, "When? (HH:MM format)")
	if !ok {
		return noAnswer
	}
	hour, minute, err := ParseClock(when)
	if err != nil {
		return "Invalid time format. Please use HH:MM format."
	}

	now := d.clock.Now()
	fireTime := NextFireTime(now, hour, minute)
	id, err := d.store.CreateReminder(ctx, title, description, fireTime)
	if err != nil {
		d.log.Error().Err(err).Msg("create reminder failed")
		return storageApology("create the reminder")
	}
	if d.scheduler != nil {
		d.scheduler.Schedule(store.Reminder{ID: id, Title: title, Description: description, FireTime: fireTime})
	}
	d.log.Info().Int64("id", id).Time("fire_time", fireTime).Msg("reminder created")

	return fmt.Sprintf("Reminder set for %s (%s): %s",
		fireTime.Format(reminderLayout), humanize.RelTime(fireTime, now, "ago", "from now"), title)
}

func (d *Dispatcher) listNotes(ctx context.Context) string {
	notes, err := d.store.ListNotes(ctx, 0)
	if err != nil {
		d.log.Error().Err(err).Msg("list notes failed")
		return storageApology("get your notes")
	}
	if len(notes) == 0 {
		return "You have no notes"
	}
	lines := make([]string, 0, noteListLimit+1)
	lines = append(lines, fmt.Sprintf("You have %d notes:", len(notes)))
	for i, n := range notes {
		if i == noteListLimit {
			break
		}
		lines = append(lines, fmt.Sprintf("%s: %s...", n.Title, preview(n.Content, notePreviewLen)))
	}
	return strings.Join(lines, "\n")
}

func (d *Dispatcher) createNote(ctx context.Context) string {
	title, ok := d.ask(ctx, "Note title")
	if !ok {
		return noAnswer
	}
	if title == "" {
		return "A note needs a title."
	}
	content, ok := d.ask(ctx, "Note content")
	if !ok {
		return noAnswer
	}
	if _, err := d.store.CreateNote(ctx, title, content, d.clock.Now()); err != nil {
		d.log.Error().Err(err).Msg("create note failed")
		return storageApology("create the note")
	}
	return fmt.Sprintf("Note '%s' created successfully", title)
}

// preview cuts s to at most n runes.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
