package bus

import (
	"strings"
	"time"
)

// Announcement is a fired reminder waiting to be spoken.
type Announcement struct {
	ReminderID  int64
	Title       string
	Description string
	FiredAt     time.Time
	Urgent      bool
}

// Text renders the spoken form: "Reminder: <title>. <description>".
func (a Announcement) Text() string {
	var b strings.Builder
	b.WriteString("Reminder: ")
	b.WriteString(a.Title)
	if d := strings.TrimSpace(a.Description); d != "" {
		b.WriteString(". ")
		b.WriteString(d)
	}
	return b.String()
}
