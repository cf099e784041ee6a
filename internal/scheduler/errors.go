package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrSchedulerClosed is returned by every scheduling call made once
	// Shutdown has begun.
	ErrSchedulerClosed = errors.New("scheduler closed")

	// ErrTaskCancelled is reported by Handle.Wait for work that was
	// cancelled before it ran, or for a recurring handle that has stopped.
	ErrTaskCancelled = errors.New("task cancelled")

	// ErrInvalidPeriod is returned by ScheduleAtFixedRate for a non-positive period.
	ErrInvalidPeriod = errors.New("period must be greater than 0")
)

// ClosedError records which scheduling operation was refused.
type ClosedError struct {
	Op string
}

func (e *ClosedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, ErrSchedulerClosed)
}

func (e *ClosedError) Unwrap() error {
	return ErrSchedulerClosed
}

// WorkError wraps a failure raised by a task body. Panic holds the recovered
// value when the task panicked instead of returning an error.
type WorkError struct {
	TaskID   string
	TaskName string
	Cause    error
	Panic    any
	Stack    []byte
}

func (e *WorkError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("task %s panicked: %v", e.TaskName, e.Panic)
	}
	return fmt.Sprintf("task %s failed: %v", e.TaskName, e.Cause)
}

func (e *WorkError) Unwrap() error {
	return e.Cause
}
