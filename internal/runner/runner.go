package runner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hperssn/blastemst/internal/metrics"
)

// TaskRunner runs state holder operations as independent background tasks.
// Tasks are not ordered with respect to each other and are never cancelled
// once started.
type TaskRunner struct {
	clock clockwork.Clock
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewTaskRunner(clock clockwork.Clock) *TaskRunner {
	return &TaskRunner{clock: clock}
}

// Go starts fn in the background. It reports false once the runner is closed.
func (r *TaskRunner) Go(name string, fn func(ctx context.Context)) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		slog.Warn("Task dropped after shutdown", "task", name)
		return false
	}
	r.wg.Add(1)
	r.mu.Unlock()

	metrics.BackgroundTasksInFlight.Inc()
	go func() {
		defer r.wg.Done()
		defer metrics.BackgroundTasksInFlight.Dec()

		start := r.clock.Now()
		fn(context.Background())
		slog.Debug("Task finished", "task", name, "duration", r.clock.Since(start))
	}()
	return true
}

// Wait blocks until every task started so far has finished.
func (r *TaskRunner) Wait() {
	r.wg.Wait()
}

// Close rejects new tasks and waits for running ones, up to timeout.
// It reports whether everything finished in time.
func (r *TaskRunner) Close(timeout time.Duration) bool {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-r.clock.After(timeout):
		return false
	}
}
