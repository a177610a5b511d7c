package bus

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAnnouncementText(t *testing.T) {
	tests := []struct {
		a    Announcement
		want string
	}{
		{Announcement{Title: "Call mom", Description: "about the weekend"}, "Reminder: Call mom. about the weekend"},
		{Announcement{Title: "Stretch"}, "Reminder: Stretch"},
		{Announcement{Title: "Stretch", Description: "   "}, "Reminder: Stretch"},
	}
	for _, tt := range tests {
		if got := tt.a.Text(); got != tt.want {
			t.Errorf("Text() = %q, want %q", got, tt.want)
		}
	}
}

func TestQueue_ConsumeDrainsAfterClose(t *testing.T) {
	q := NewQueue(4)
	ctx := context.Background()
	for i := int64(1); i <= 3; i++ {
		if err := q.Publish(ctx, Announcement{ReminderID: i}); err != nil {
			t.Fatalf("Publish error: %v", err)
		}
	}
	q.Close()

	var got []int64
	q.Consume(func(a Announcement) { got = append(got, a.ReminderID) })
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("consumed = %v, want [1 2 3]", got)
	}
}

func TestQueue_PublishAfterClose(t *testing.T) {
	q := NewQueue(1)
	q.Close()
	q.Close()
	if err := q.Publish(context.Background(), Announcement{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestQueue_PublishHonoursContextWhenFull(t *testing.T) {
	q := NewQueue(1)
	if err := q.Publish(context.Background(), Announcement{ReminderID: 1}); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Publish(ctx, Announcement{ReminderID: 2}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if q.Len() != 1 {
		t.Fatalf("Len = %d, want 1", q.Len())
	}
}

func TestQueue_ConcurrentConsumer(t *testing.T) {
	q := NewQueue(2)
	got := make(chan int64, 10)
	done := make(chan struct{})
	go func() {
		q.Consume(func(a Announcement) { got <- a.ReminderID })
		close(done)
	}()

	for i := int64(1); i <= 10; i++ {
		if err := q.Publish(context.Background(), Announcement{ReminderID: i}); err != nil {
			t.Fatalf("Publish error: %v", err)
		}
	}
	q.Close()
	<-done
	if len(got) != 10 {
		t.Fatalf("delivered = %d, want 10", len(got))
	}
}
