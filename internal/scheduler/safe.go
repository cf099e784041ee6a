package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"budgetwatch/internal/log"
)

// Task is a unit of background work. The context is cancelled when the
// scheduler is forced to stop.
type Task func(ctx context.Context) error

// Safe wraps task so that a returned error or a panic is logged and converted
// into a *WorkError instead of unwinding into the caller.
func Safe(logger *log.Logger, name string, task Task) Task {
	if logger == nil {
		logger = log.Default(log.ComponentScheduler)
	}
	h := newHandle(KindImmediate, WithName(name))
	return func(ctx context.Context) error {
		return runSafely(ctx, logger, h, task)
	}
}

func runSafely(ctx context.Context, logger *log.Logger, h *Handle, task Task) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = &WorkError{
				TaskID:   h.ID(),
				TaskName: h.name,
				Cause:    fmt.Errorf("panic: %v", r),
				Panic:    r,
				Stack:    debug.Stack(),
			}
		}
		if err == nil {
			logger.Debug("Task completed",
				log.FieldTaskName, h.name,
				log.FieldDuration, time.Since(start).Milliseconds())
			return
		}

		var we *WorkError
		if !errors.As(err, &we) {
			we = &WorkError{TaskID: h.ID(), TaskName: h.name, Cause: err}
			err = we
		}
		fields := log.NewFields().
			WithTask(h.ID(), h.name, h.kind.String()).
			WithError(we)
		if we.Panic != nil {
			fields[log.FieldPanic] = fmt.Sprint(we.Panic)
			fields[log.FieldStack] = string(we.Stack)
		}
		logger.Error("Task failed", fields.ToSlice()...)
	}()

	return task(ctx)
}
