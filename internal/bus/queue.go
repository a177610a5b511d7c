package bus

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("announcement queue closed")

const DefaultQueueSize = 64

// Queue hands announcements from the scheduler tick to the delivery worker. Publish
// blocks when the buffer is full rather than dropping.
type Queue struct {
	ch   chan Announcement
	done chan struct{}
	mu   sync.RWMutex
	once sync.Once
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		ch:   make(chan Announcement, size),
		done: make(chan struct{}),
	}
}

func (q *Queue) Publish(ctx context.Context, a Announcement) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	select {
	case <-q.done:
		return ErrClosed
	default:
	}

	select {
	case q.ch <- a:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting announcements. Consume still delivers what was buffered.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.done) })
}

// Consume calls fn for every announcement until the queue is closed and drained.
func (q *Queue) Consume(fn func(Announcement)) {
	for {
		select {
		case a := <-q.ch:
			fn(a)
		case <-q.done:
			// Wait out in-flight publishers, then flush the remainder.
			q.mu.Lock()
			defer q.mu.Unlock()
			for {
				select {
				case a := <-q.ch:
					fn(a)
				default:
					return
				}
			}
		}
	}
}

func (q *Queue) Len() int { return len(q.ch) }
