package reminder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/hperssn/blastemst/internal/metrics"
)

// InactivityTag names the single unique inactivity job.
const InactivityTag = "blast_emst_inactivity_reminder"

var ErrInvalidDelay = errors.New("delay must be positive")

// Scheduler is what the state holder needs from the reminder system.
type Scheduler interface {
	// ScheduleInactivityCheck replaces any pending inactivity job with one
	// that runs after delayMinutes. Non-positive delays are rejected.
	ScheduleInactivityCheck(ctx context.Context, delayMinutes int64) error
	// CancelInactivityCheck removes the pending job, if any.
	CancelInactivityCheck(ctx context.Context)
}

// Worker runs when a job comes due.
type Worker interface {
	Run(ctx context.Context) error
}

// DueStore persists due times so pending jobs survive a restart.
type DueStore interface {
	SaveDue(ctx context.Context, tag string, due time.Time)
	ClearDue(ctx context.Context, tag string)
	LoadDue(ctx context.Context, tag string) (time.Time, bool)
}

type Job struct {
	ID  uuid.UUID
	Tag string
	Due time.Time
}

type pendingJob struct {
	job   Job
	timer clockwork.Timer
}

// WorkQueue is an in-process deferred job queue keyed by tag. Enqueueing a
// tag replaces the pending job for that tag. A job whose timer already
// fired still runs even if it was replaced or cancelled meanwhile. The
// persisted due time only changes under mu, so it always matches the
// pending job.
type WorkQueue struct {
	clock  clockwork.Clock
	worker Worker
	store  DueStore

	mu      sync.Mutex
	pending map[string]*pendingJob
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorkQueue creates a queue that runs worker for every due job. store may
// be nil, in which case pending jobs are lost on restart.
func NewWorkQueue(clock clockwork.Clock, worker Worker, store DueStore) *WorkQueue {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkQueue{
		clock:   clock,
		worker:  worker,
		store:   store,
		pending: make(map[string]*pendingJob),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (q *WorkQueue) ScheduleInactivityCheck(ctx context.Context, delayMinutes int64) error {
	if delayMinutes <= 0 {
		slog.Warn("Rejected reminder schedule", "delay_minutes", delayMinutes)
		metrics.RemindersScheduledTotal.WithLabelValues("rejected").Inc()
		return ErrInvalidDelay
	}

	job := q.enqueue(ctx, InactivityTag, time.Duration(delayMinutes)*time.Minute, true)

	slog.Info("Reminder scheduled", "tag", InactivityTag, "job_id", job.ID, "delay_minutes", delayMinutes)
	metrics.RemindersScheduledTotal.WithLabelValues("scheduled").Inc()
	return nil
}

func (q *WorkQueue) CancelInactivityCheck(ctx context.Context) {
	q.mu.Lock()
	if p, ok := q.pending[InactivityTag]; ok {
		p.timer.Stop()
		delete(q.pending, InactivityTag)
	}
	if q.store != nil {
		q.store.ClearDue(ctx, InactivityTag)
	}
	q.mu.Unlock()

	metrics.RemindersScheduledTotal.WithLabelValues("cancelled").Inc()
}

// Restore re-arms a job persisted by a previous process. Overdue jobs run
// immediately.
func (q *WorkQueue) Restore(ctx context.Context) {
	if q.store == nil {
		return
	}
	due, ok := q.store.LoadDue(ctx, InactivityTag)
	if !ok {
		return
	}

	delay := due.Sub(q.clock.Now())
	if delay < 0 {
		delay = 0
	}
	job := q.enqueue(ctx, InactivityTag, delay, false)
	slog.Info("Reminder restored", "tag", InactivityTag, "job_id", job.ID, "due", due)
	metrics.RemindersScheduledTotal.WithLabelValues("restored").Inc()
}

// Pending returns the job currently waiting for tag.
func (q *WorkQueue) Pending(tag string) (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	p, ok := q.pending[tag]
	if !ok {
		return Job{}, false
	}
	return p.job, true
}

// Stop disarms all timers and waits for running jobs. Persisted due times
// are kept so Restore can pick them up.
func (q *WorkQueue) Stop() {
	q.mu.Lock()
	q.stopped = true
	for tag, p := range q.pending {
		p.timer.Stop()
		delete(q.pending, tag)
	}
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
}

// enqueue arms the job for tag, and with persist also stores its due time.
func (q *WorkQueue) enqueue(ctx context.Context, tag string, delay time.Duration, persist bool) Job {
	job := Job{ID: uuid.New(), Tag: tag, Due: q.clock.Now().Add(delay)}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return job
	}
	if prev, ok := q.pending[tag]; ok {
		prev.timer.Stop()
	}
	q.pending[tag] = &pendingJob{
		job:   job,
		// fire takes q.mu, so never run it on the caller's stack
		timer: q.clock.AfterFunc(delay, func() { go q.fire(job) }),
	}
	if persist && q.store != nil {
		q.store.SaveDue(ctx, tag, job.Due)
	}
	return job
}

func (q *WorkQueue) fire(job Job) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	if p, ok := q.pending[job.Tag]; ok && p.job.ID == job.ID {
		delete(q.pending, job.Tag)
	}
	if q.store != nil {
		if due, ok := q.store.LoadDue(q.ctx, job.Tag); ok && due.Equal(job.Due) {
			q.store.ClearDue(q.ctx, job.Tag)
		}
	}
	q.wg.Add(1)
	q.mu.Unlock()

	defer q.wg.Done()

	slog.Debug("Reminder job running", "tag", job.Tag, "job_id", job.ID)
	if err := q.worker.Run(q.ctx); err != nil {
		slog.Error("Reminder job failed", "tag", job.Tag, "job_id", job.ID, "error", err)
	}
}
