// Package session tracks process-lifetime command history. A Tracker is owned by the
// main loop and is not safe for concurrent use.
package session

import (
	"strings"
	"time"

	"github.com/stellarlinkco/jarvis/internal/clock"
)

type Tracker struct {
	clock   clock.Clock
	history []string
	start   time.Time
}

func NewTracker(c clock.Clock) *Tracker {
	if c == nil {
		c = clock.System()
	}
	return &Tracker{clock: c, start: c.Now()}
}

// Record appends a normalized command. Empty commands are ignored.
func (t *Tracker) Record(cmd string) {
	if strings.TrimSpace(cmd) == "" {
		return
	}
	t.history = append(t.history, cmd)
}

// RepetitionCount is the number of times cmd appears anywhere in the history, not the
// length of a consecutive run.
func (t *Tracker) RepetitionCount(cmd string) int {
	n := 0
	for _, h := range t.history {
		if h == cmd {
			n++
		}
	}
	return n
}

func (t *Tracker) Elapsed() time.Duration {
	return t.clock.Now().Sub(t.start)
}

func (t *Tracker) StartTime() time.Time {
	return t.start
}

func (t *Tracker) Len() int {
	return len(t.history)
}

func (t *Tracker) History() []string {
	out := make([]string, len(t.history))
	copy(out, t.history)
	return out
}
