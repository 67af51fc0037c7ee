// Package worker runs detached side-effect tasks with their own error
// boundary, so failures are logged but never unwind into the request
// path that spawned them.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Runner struct {
	logger  *zap.SugaredLogger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewRunner(logger *zap.SugaredLogger, timeout time.Duration) *Runner {
	return &Runner{logger: logger, timeout: timeout}
}

// Go runs fn on its own goroutine with a fresh context, detached from the
// caller. Panics are recovered and errors only logged.
func (r *Runner) Go(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Errorw("task panicked", "task", name, "panic", rec)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			r.logger.Errorw("task failed", "task", name, "error", err)
		}
	}()
}

// Wait blocks until all in-flight tasks finish.
func (r *Runner) Wait() {
	r.wg.Wait()
}
