package scheduler

import (
	"container/heap"

	"github.com/stellarlinkco/jarvis/internal/store"
)

// reminderHeap orders pending reminders by fire time, then id.
type reminderHeap []store.Reminder

func (h reminderHeap) Len() int { return len(h) }

func (h reminderHeap) Less(i, j int) bool {
	if h[i].FireTime.Equal(h[j].FireTime) {
		return h[i].ID < h[j].ID
	}
	return h[i].FireTime.Before(h[j].FireTime)
}

func (h reminderHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *reminderHeap) Push(x any) { *h = append(*h, x.(store.Reminder)) }

func (h *reminderHeap) Pop() any {
	old := *h
	n := len(old)
	r := old[n-1]
	*h = old[:n-1]
	return r
}

// pending is the heap plus an id index so a reminder is queued at most once.
type pending struct {
	h   reminderHeap
	ids map[int64]struct{}
}

func newPending() *pending {
	return &pending{ids: make(map[int64]struct{})}
}

func (p *pending) push(r store.Reminder) bool {
	if _, ok := p.ids[r.ID]; ok {
		return false
	}
	p.ids[r.ID] = struct{}{}
	heap.Push(&p.h, r)
	return true
}

func (p *pending) peek() (store.Reminder, bool) {
	if len(p.h) == 0 {
		return store.Reminder{}, false
	}
	return p.h[0], true
}

func (p *pending) pop() store.Reminder {
	r := heap.Pop(&p.h).(store.Reminder)
	delete(p.ids, r.ID)
	return r
}

// merge queues every active reminder in list that is not already pending. Entries
// already queued stay, so a reminder scheduled while the list was being read survives.
func (p *pending) merge(list []store.Reminder) int {
	added := 0
	for _, r := range list {
		if r.Completed {
			continue
		}
		if p.push(r) {
			added++
		}
	}
	return added
}

func (p *pending) snapshot() []store.Reminder {
	out := make(reminderHeap, len(p.h))
	copy(out, p.h)
	sorted := make([]store.Reminder, 0, len(out))
	for out.Len() > 0 {
		sorted = append(sorted, heap.Pop(&out).(store.Reminder))
	}
	return sorted
}
