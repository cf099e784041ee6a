package scheduler

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Kind identifies how a unit of work was scheduled.
type Kind int

const (
	KindImmediate Kind = iota
	KindDelayed
	KindFixedRate
)

func (k Kind) String() string {
	switch k {
	case KindImmediate:
		return "immediate"
	case KindDelayed:
		return "delayed"
	case KindFixedRate:
		return "fixed_rate"
	default:
		return "unknown"
	}
}

// Handle is the caller's reference to scheduled work.
//
// For immediate and delayed work the handle completes once the work has run
// or was cancelled. A fixed-rate handle completes after Cancel or Shutdown,
// once its last occurrence has finished or been discarded.
type Handle struct {
	id   uuid.UUID
	name string
	kind Kind

	cancelOnce sync.Once
	cancelled  atomic.Bool
	cancelCh   chan struct{}

	doneOnce sync.Once
	done     chan struct{}
	err      error

	pending  atomic.Bool    // fixed-rate occurrence queued or running
	inflight sync.WaitGroup // tracks the pending occurrence
	runs     atomic.Int64
	skipped  atomic.Int64
}

func newHandle(kind Kind, opts ...TaskOption) *Handle {
	h := &Handle{
		id:       uuid.New(),
		kind:     kind,
		cancelCh: make(chan struct{}),
		done:     make(chan struct{}),
	}
	h.name = kind.String() + "-" + h.id.String()[:8]
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handle) ID() string   { return h.id.String() }
func (h *Handle) Name() string { return h.name }
func (h *Handle) Kind() Kind   { return h.kind }

// Cancel prevents future executions. Work already running is left to finish.
// It reports whether this call cancelled the handle; it returns false when
// the handle was already cancelled or has completed.
func (h *Handle) Cancel() bool {
	select {
	case <-h.done:
		return false
	default:
	}
	cancelled := false
	h.cancelOnce.Do(func() {
		h.cancelled.Store(true)
		close(h.cancelCh)
		cancelled = true
	})
	return cancelled
}

// Cancelled reports whether Cancel has been called, directly or by Shutdown.
func (h *Handle) Cancelled() bool {
	return h.cancelled.Load()
}

// Done is closed when the handle completes.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the handle completes or ctx ends. For immediate work it
// returns the task's error wrapped in a *WorkError. Delayed and fixed-rate
// failures are logged and never reported here.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the completion error, or nil while the handle is still live.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Runs returns how many times the work has executed.
func (h *Handle) Runs() int64 {
	return h.runs.Load()
}

// Skipped returns how many fixed-rate ticks were dropped because the previous
// occurrence had not finished.
func (h *Handle) Skipped() int64 {
	return h.skipped.Load()
}

// settle releases the pending fixed-rate occurrence.
func (h *Handle) settle() {
	h.pending.Store(false)
	h.inflight.Done()
}

func (h *Handle) finish(err error) {
	h.doneOnce.Do(func() {
		h.err = err
		close(h.done)
	})
}
