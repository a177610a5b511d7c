package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/stellarlinkco/jarvis/internal/bus"
	"github.com/stellarlinkco/jarvis/internal/clock"
	"github.com/stellarlinkco/jarvis/internal/store"
)

const (
	DefaultTickInterval   = time.Second
	DefaultResyncInterval = 30 * time.Second

	deliverTimeout = 10 * time.Second
	stopTimeout    = 5 * time.Second
)

var ErrAlreadyRunning = errors.New("scheduler already running")

// Store is the slice of the reminder store the scheduler needs.
type Store interface {
	ListActive(ctx context.Context) ([]store.Reminder, error)
	CompleteReminder(ctx context.Context, id int64) (bool, error)
}

type Speaker interface {
	Say(ctx context.Context, text string, urgent bool) error
}

type Options struct {
	Store          Store
	Speaker        Speaker
	Clock          clock.Clock
	Logger         zerolog.Logger
	TickInterval   time.Duration
	ResyncInterval time.Duration
	QueueSize      int
}

// Scheduler fires each pending reminder exactly once when its minute arrives. Ticks run
// on a robfig/cron driver; announcements go through a bus.Queue to a delivery worker so
// a slow speaker never delays the next tick.
type Scheduler struct {
	store       Store
	speaker     Speaker
	clock       clock.Clock
	log         zerolog.Logger
	tickEvery   time.Duration
	resyncEvery time.Duration
	queueSize   int

	mu         sync.Mutex
	pending    *pending
	running    bool
	starting   bool
	cron       *rcron.Cron
	queue      *bus.Queue
	cancel     context.CancelFunc
	stopCh     chan struct{}
	workerDone chan struct{}
	stopped    chan struct{}
}

func New(opts Options) *Scheduler {
	c := opts.Clock
	if c == nil {
		c = clock.System()
	}
	tick := opts.TickInterval
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	resync := opts.ResyncInterval
	if resync <= 0 {
		resync = DefaultResyncInterval
	}
	return &Scheduler{
		store:       opts.Store,
		speaker:     opts.Speaker,
		clock:       c,
		log:         opts.Logger,
		tickEvery:   tick,
		resyncEvery: resync,
		queueSize:   opts.QueueSize,
		pending:     newPending(),
	}
}

// Start loads every active reminder, then begins ticking. Reminders that came due while
// the process was down fire on the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running || s.starting {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.starting = true
	s.mu.Unlock()

	if err := s.Resync(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to load active reminders")
	}

	runCtx, cancel := context.WithCancel(ctx)
	queue := bus.NewQueue(s.queueSize)
	workerDone := make(chan struct{})
	stopCh := make(chan struct{})

	go func() {
		defer close(workerDone)
		queue.Consume(s.deliver)
	}()

	cl := cronLogger{log: s.log}
	c := rcron.New(
		rcron.WithSeconds(),
		rcron.WithLogger(cl),
		rcron.WithChain(rcron.Recover(cl), rcron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.tickEvery), func() {
		s.Tick(runCtx, s.clock.Now())
	}); err != nil {
		cancel()
		queue.Close()
		<-workerDone
		s.abortStart()
		return fmt.Errorf("register tick: %w", err)
	}
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.resyncEvery), func() {
		if err := s.Resync(runCtx); err != nil {
			s.log.Warn().Err(err).Msg("resync failed")
		}
	}); err != nil {
		cancel()
		queue.Close()
		<-workerDone
		s.abortStart()
		return fmt.Errorf("register resync: %w", err)
	}

	s.mu.Lock()
	s.starting = false
	s.running = true
	s.cron = c
	s.queue = queue
	s.cancel = cancel
	s.stopCh = stopCh
	s.workerDone = workerDone
	s.stopped = make(chan struct{})
	n := s.pending.h.Len()
	s.mu.Unlock()

	c.Start()
	s.log.Info().Int("pending", n).Dur("tick", s.tickEvery).Msg("started")

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-stopCh:
		}
	}()
	return nil
}

func (s *Scheduler) abortStart() {
	s.mu.Lock()
	s.starting = false
	s.mu.Unlock()
}

// Stop waits for a running tick, delivers queued announcements, then returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		stopped := s.stopped
		s.mu.Unlock()
		if stopped != nil {
			<-stopped
		}
		return
	}
	s.running = false
	c, cancel, stopCh, stopped := s.cron, s.cancel, s.stopCh, s.stopped
	queue, workerDone := s.queue, s.workerDone
	s.cron, s.cancel, s.stopCh, s.workerDone = nil, nil, nil, nil
	s.mu.Unlock()

	close(stopCh)

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(stopTimeout):
		s.log.Warn().Msg("stop timeout waiting for running tick")
	}
	cancel()

	queue.Close()
	<-workerDone

	s.mu.Lock()
	s.queue = nil
	s.mu.Unlock()
	close(stopped)
	s.log.Info().Msg("stopped")
}

// Schedule queues a newly created reminder. Completed or already queued reminders are
// ignored.
func (s *Scheduler) Schedule(r store.Reminder) {
	if r.Completed {
		return
	}
	s.mu.Lock()
	added := s.pending.push(r)
	s.mu.Unlock()
	if added {
		s.log.Debug().Int64("id", r.ID).Time("fire_time", r.FireTime).Msg("scheduled")
	}
}

// Tick fires every reminder whose minute has arrived and returns how many were
// announced. A storage failure puts the reminder back for the next tick.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) int {
	due := s.popDue(now)
	fired := 0
	for _, r := range due {
		ok, err := s.Fire(ctx, r)
		if err != nil {
			s.log.Warn().Err(err).Int64("id", r.ID).Msg("fire failed, will retry")
			s.mu.Lock()
			s.pending.push(r)
			s.mu.Unlock()
			continue
		}
		if ok {
			fired++
		}
	}
	return fired
}

// Fire completes r and announces it. Only the call that moves the reminder to
// completed announces; later calls return false.
func (s *Scheduler) Fire(ctx context.Context, r store.Reminder) (bool, error) {
	ok, err := s.store.CompleteReminder(ctx, r.ID)
	if err != nil {
		return false, err
	}
	if !ok {
		s.log.Debug().Int64("id", r.ID).Msg("already completed")
		return false, nil
	}

	a := bus.Announcement{
		ReminderID:  r.ID,
		Title:       r.Title,
		Description: r.Description,
		FiredAt:     s.clock.Now(),
		Urgent:      true,
	}
	s.log.Info().Int64("id", r.ID).Str("title", r.Title).Msg("reminder fired")

	s.mu.Lock()
	queue := s.queue
	s.mu.Unlock()
	if queue == nil {
		s.deliver(a)
		return true, nil
	}
	if err := queue.Publish(ctx, a); err != nil {
		// Completion is already durable; fall back to speaking inline.
		s.log.Warn().Err(err).Int64("id", r.ID).Msg("publish failed, delivering inline")
		s.deliver(a)
	}
	return true, nil
}

// Resync queues active reminders from the store that are not pending yet. Already
// queued entries are kept; a stale one is harmless because Fire only announces the
// call that completes it.
func (s *Scheduler) Resync(ctx context.Context) error {
	list, err := s.store.ListActive(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	added := s.pending.merge(list)
	s.mu.Unlock()
	if added > 0 {
		s.log.Debug().Int("added", added).Msg("resynced")
	}
	return nil
}

// Pending returns queued reminders in firing order.
func (s *Scheduler) Pending() []store.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.snapshot()
}

func (s *Scheduler) popDue(now time.Time) []store.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []store.Reminder
	for {
		r, ok := s.pending.peek()
		if !ok || !IsDue(r, now) {
			break
		}
		due = append(due, s.pending.pop())
	}
	return due
}

// IsDue compares at minute granularity: a reminder for 09:30 is due from 09:30:00.
func IsDue(r store.Reminder, now time.Time) bool {
	return !now.Truncate(time.Minute).Before(r.FireTime.Truncate(time.Minute))
}

func (s *Scheduler) deliver(a bus.Announcement) {
	if s.speaker == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()
	if err := s.speaker.Say(ctx, a.Text(), a.Urgent); err != nil {
		s.log.Error().Err(err).Int64("id", a.ReminderID).Msg("announce failed")
	}
}

// cronLogger routes robfig/cron's logging into zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
