package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/v01dsy/azurewrath/internal/usecase/update"
)

// Worker runs update cycles back to back forever. The sleep starts when a
// cycle ends, so slow cycles drift the schedule instead of overlapping;
// cycles never run concurrently. A failed cycle is logged and retried after
// the shorter FailWait. Cancellation is honored between cycles.
type Worker struct {
	Cycle *update.Cycle

	Interval time.Duration // between a cycle's end and the next start
	FailWait time.Duration // after a failed cycle
	Logger   *slog.Logger

	running int32
}

func (w *Worker) log() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

// Start launches the loop in the background. Calling Start twice is a no-op.
func (w *Worker) Start(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&w.running, 0, 1) {
		return
	}

	interval := w.Interval
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	failWait := w.FailWait
	if failWait <= 0 {
		failWait = 30 * time.Second
	}

	go func() {
		defer atomic.StoreInt32(&w.running, 0)
		w.log().Info("worker started", "interval", interval, "source", w.Cycle.Source.Name())

		for {
			wait := interval
			if err := w.runOnce(ctx); err != nil {
				if ctx.Err() != nil {
					w.log().Info("worker stopped")
					return
				}
				w.log().Error("cycle failed", "err", err)
				wait = failWait
			}

			select {
			case <-ctx.Done():
				w.log().Info("worker stopped")
				return
			case <-time.After(wait):
			}
		}
	}()
}

// runOnce shields the loop from anything a cycle can throw, including
// panics out of a misbehaving driver.
func (w *Worker) runOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()
	_, err = w.Cycle.Run(ctx)
	return err
}
