package session

import (
	"testing"
	"time"

	"github.com/stellarlinkco/jarvis/internal/clock"
)

func TestTracker_RecordCountsEveryNonEmptyCommand(t *testing.T) {
	tr := NewTracker(clock.NewManual(time.Now()))

	for i, cmd := range []string{"what time is it", "gibberish nobody understands", "what time is it"} {
		tr.Record(cmd)
		if tr.Len() != i+1 {
			t.Fatalf("after %d records len = %d", i+1, tr.Len())
		}
	}

	tr.Record("")
	tr.Record("   ")
	if tr.Len() != 3 {
		t.Errorf("empty commands should not be recorded, len = %d", tr.Len())
	}
}

func TestTracker_RepetitionCountIsTotalOccurrences(t *testing.T) {
	tr := NewTracker(clock.NewManual(time.Now()))
	tr.Record("a")
	tr.Record("b")
	tr.Record("a")

	if got := tr.RepetitionCount("a"); got != 2 {
		t.Errorf("RepetitionCount(a) = %d, want 2", got)
	}
	if got := tr.RepetitionCount("b"); got != 1 {
		t.Errorf("RepetitionCount(b) = %d, want 1", got)
	}
	if got := tr.RepetitionCount("c"); got != 0 {
		t.Errorf("RepetitionCount(c) = %d, want 0", got)
	}
}

func TestTracker_Elapsed(t *testing.T) {
	start := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	c := clock.NewManual(start)
	tr := NewTracker(c)

	c.Advance(2*time.Hour + time.Minute)
	if got := tr.Elapsed(); got != 2*time.Hour+time.Minute {
		t.Errorf("Elapsed = %v", got)
	}
	if !tr.StartTime().Equal(start) {
		t.Errorf("StartTime = %v", tr.StartTime())
	}
}

func TestTracker_HistoryIsACopy(t *testing.T) {
	tr := NewTracker(nil)
	tr.Record("x")
	h := tr.History()
	h[0] = "mutated"
	if tr.History()[0] != "x" {
		t.Error("History should return a copy")
	}
}
