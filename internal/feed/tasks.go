package feed

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pulsegram/feed-service/pkg/logging"
)

// Runner executes cache-maintenance work off the request path. A submitted
// task never fails its caller: panics are recovered and errors are logged by
// the runner itself. Shutdown drains in-flight tasks so fanout started just
// before a SIGTERM still completes.
type Runner struct {
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRunner creates a task runner with the given per-task timeout
func NewRunner(timeout time.Duration) *Runner {
	return &Runner{
		logger:  logging.WithComponent("feed-tasks"),
		timeout: timeout,
	}
}

// Submit schedules fn on its own goroutine and returns immediately. The task
// gets a fresh context detached from the caller's request, bounded by the
// runner timeout.
func (r *Runner) Submit(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("Background task panicked",
					zap.String("task", name),
					zap.Any("panic", rec))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			r.logger.Warn("Background task failed",
				zap.String("task", name),
				zap.Error(err))
		}
	}()
}

// Drain waits for in-flight tasks to finish or for ctx to expire
func (r *Runner) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
