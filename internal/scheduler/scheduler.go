package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"budgetwatch/internal/log"
)

// State is the lifecycle position of a Scheduler.
type State int32

const (
	StateRunning State = iota
	StateShuttingDown
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Config sizes the worker pool. CoreWorkers are started with the scheduler
// and live until shutdown. MaxWorkers caps the pool: extra workers are added
// only when the queue is full and exit after KeepAlive without work.
type Config struct {
	CoreWorkers int
	MaxWorkers  int
	QueueSize   int
	KeepAlive   time.Duration
}

// DefaultConfig returns the pool sizing used by the application.
func DefaultConfig() Config {
	return Config{
		CoreWorkers: 2,
		MaxWorkers:  4,
		QueueSize:   64,
		KeepAlive:   60 * time.Second,
	}
}

// Validate reports every sizing problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.CoreWorkers < 1 {
		errs = append(errs, fmt.Errorf("core workers must be at least 1, got %d", c.CoreWorkers))
	}
	if c.MaxWorkers < c.CoreWorkers {
		errs = append(errs, fmt.Errorf("max workers (%d) must be >= core workers (%d)", c.MaxWorkers, c.CoreWorkers))
	}
	if c.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("queue size must be at least 1, got %d", c.QueueSize))
	}
	if c.KeepAlive <= 0 {
		errs = append(errs, fmt.Errorf("keep alive must be positive, got %s", c.KeepAlive))
	}
	return errors.Join(errs...)
}

type job struct {
	handle *Handle
	task   Task
}

// Scheduler executes immediate, delayed and fixed-rate work on a bounded pool.
// Construct one with New and share it by reference.
type Scheduler struct {
	cfg    Config
	logger *log.Logger

	mu    sync.Mutex // orders admission against the start of Shutdown
	state atomic.Int32

	queue   chan *job
	closing chan struct{}
	force   chan struct{}
	drain   chan struct{}
	done    chan struct{}

	forceOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc

	slots   *semaphore.Weighted
	workers sync.WaitGroup
	timers  sync.WaitGroup
	submits sync.WaitGroup

	active atomic.Int32
}

// New starts a scheduler with cfg.CoreWorkers workers.
func New(cfg Config, opts ...Option) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scheduler config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cfg:     cfg,
		logger:  log.Default(log.ComponentScheduler),
		queue:   make(chan *job, cfg.QueueSize),
		closing: make(chan struct{}),
		force:   make(chan struct{}),
		drain:   make(chan struct{}),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		slots:   semaphore.NewWeighted(int64(cfg.MaxWorkers)),
	}
	for _, opt := range opts {
		opt(s)
	}

	for i := 0; i < cfg.CoreWorkers; i++ {
		s.slots.TryAcquire(1)
		s.workers.Add(1)
		go s.worker(false)
	}

	s.logger.Info("Scheduler started",
		"core_workers", cfg.CoreWorkers,
		"max_workers", cfg.MaxWorkers,
		"queue_size", cfg.QueueSize)
	return s, nil
}

// SubmitNow queues task for immediate execution. When the pool and queue are
// saturated the call blocks until capacity frees up or Shutdown begins.
// The task's error, if any, is delivered through Handle.Wait.
func (s *Scheduler) SubmitNow(task Task, opts ...TaskOption) (*Handle, error) {
	if err := s.admit(log.OpSubmit, &s.submits); err != nil {
		return nil, err
	}
	defer s.submits.Done()

	h := newHandle(KindImmediate, opts...)
	if !s.dispatch(&job{handle: h, task: task}, s.closing) {
		return nil, &ClosedError{Op: log.OpSubmit}
	}
	s.logger.Debug("Task submitted", log.NewFields().
		WithTask(h.ID(), h.name, h.kind.String()).ToSlice()...)
	return h, nil
}

// ScheduleOnce runs task once after delay. A negative delay is treated as zero.
// Failures are logged and swallowed. A graceful Shutdown still runs the task
// if it comes due before the shutdown timeout.
func (s *Scheduler) ScheduleOnce(task Task, delay time.Duration, opts ...TaskOption) (*Handle, error) {
	if delay < 0 {
		delay = 0
	}
	if err := s.admit(log.OpScheduleOnce, &s.timers); err != nil {
		return nil, err
	}

	h := newHandle(KindDelayed, opts...)
	go s.runOnce(h, task, delay)

	s.logger.Debug("Task scheduled", log.NewFields().
		WithTask(h.ID(), h.name, h.kind.String()).ToSlice()...)
	return h, nil
}

// ScheduleAtFixedRate runs task first after initialDelay and then every
// period, measured from start to start. Occurrences of one handle never
// overlap: a tick that arrives while the previous occurrence is still queued
// or running is skipped. A failing occurrence does not stop later ones.
func (s *Scheduler) ScheduleAtFixedRate(task Task, initialDelay, period time.Duration, opts ...TaskOption) (*Handle, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if initialDelay < 0 {
		initialDelay = 0
	}
	if err := s.admit(log.OpScheduleRate, &s.timers); err != nil {
		return nil, err
	}

	h := newHandle(KindFixedRate, opts...)
	go s.runFixedRate(h, task, initialDelay, period)

	s.logger.Info("Recurring task scheduled",
		log.FieldTaskID, h.ID(),
		log.FieldTaskName, h.name,
		"initial_delay", initialDelay.String(),
		"period", period.String())
	return h, nil
}

// Shutdown stops accepting work and cancels fixed-rate handles. Delayed
// one-shot work that comes due within timeout still runs, and queued and
// running work gets the same window to finish. Past the timeout the task
// context is cancelled, pending one-shots are cancelled and anything still
// queued is discarded. Only the first call has an effect.
func (s *Scheduler) Shutdown(timeout time.Duration) {
	s.mu.Lock()
	if State(s.state.Load()) != StateRunning {
		s.mu.Unlock()
		return
	}
	s.state.Store(int32(StateShuttingDown))
	close(s.closing)
	s.mu.Unlock()

	s.logger.Info("Shutting down scheduler",
		log.FieldOperation, log.OpShutdown,
		"timeout", timeout.String(),
		"active", s.ActiveWorkCount(),
		"queued", len(s.queue))

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	// Blocked submitters observe closing promptly. Timers may still be
	// waiting on one-shots, which count toward the same deadline.
	s.submits.Wait()
	forced := !waitUntil(&s.timers, deadline.C)
	if forced {
		s.forceStop()
		s.timers.Wait()
	}

	// Nothing writes to the queue any more, so workers may drain it and exit.
	close(s.drain)

	if !forced {
		forced = !waitUntil(&s.workers, deadline.C)
	}

	if forced {
		s.forceStop()
		discarded := s.discardQueued()
		s.logger.Warn("Scheduler did not drain in time, forcing shutdown",
			log.FieldOperation, log.OpShutdown,
			"still_active", s.ActiveWorkCount(),
			"discarded", discarded)
	} else {
		s.logger.Info("Scheduler drained", log.FieldOperation, log.OpShutdown)
	}

	s.cancel()
	s.state.Store(int32(StateTerminated))
	close(s.done)
}

// forceStop cancels the task context and releases every pending one-shot.
func (s *Scheduler) forceStop() {
	s.forceOnce.Do(func() {
		s.cancel()
		close(s.force)
	})
}

// waitUntil reports whether wg finished before expired fired.
func waitUntil(wg *sync.WaitGroup, expired <-chan time.Time) bool {
	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return true
	case <-expired:
		return false
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Done is closed once the scheduler reaches StateTerminated.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// ActiveWorkCount returns the number of tasks executing right now.
func (s *Scheduler) ActiveWorkCount() int {
	return int(s.active.Load())
}

// QueuedWorkCount returns the number of tasks waiting for a worker.
func (s *Scheduler) QueuedWorkCount() int {
	return len(s.queue)
}

func (s *Scheduler) admit(op string, wg *sync.WaitGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if State(s.state.Load()) != StateRunning {
		return &ClosedError{Op: op}
	}
	wg.Add(1)
	return nil
}

// dispatch hands j to the pool. It grows the pool when the queue is full and
// then blocks until there is room, the handle is cancelled or stop closes.
func (s *Scheduler) dispatch(j *job, stop <-chan struct{}) bool {
	select {
	case s.queue <- j:
		return true
	default:
	}

	s.grow()

	select {
	case s.queue <- j:
		return true
	case <-j.handle.cancelCh:
		return false
	case <-stop:
		return false
	}
}

func (s *Scheduler) grow() {
	if !s.slots.TryAcquire(1) {
		return
	}
	s.workers.Add(1)
	go s.worker(true)
	s.logger.Debug("Worker added", "max_workers", s.cfg.MaxWorkers)
}

func (s *Scheduler) worker(elastic bool) {
	defer s.workers.Done()
	defer s.slots.Release(1)

	var idle *time.Timer
	if elastic {
		idle = time.NewTimer(s.cfg.KeepAlive)
		defer idle.Stop()
	}

	for {
		var expired <-chan time.Time
		if idle != nil {
			idle.Reset(s.cfg.KeepAlive)
			expired = idle.C
		}

		select {
		case j := <-s.queue:
			s.execute(j)
		case <-expired:
			return
		case <-s.drain:
			for {
				select {
				case j := <-s.queue:
					s.execute(j)
				default:
					return
				}
			}
		}
	}
}

func (s *Scheduler) execute(j *job) {
	h := j.handle
	if h.kind == KindFixedRate {
		defer h.settle()
	}

	if h.Cancelled() || s.ctx.Err() != nil {
		if h.kind != KindFixedRate {
			h.finish(ErrTaskCancelled)
		}
		return
	}

	s.active.Add(1)
	err := runSafely(s.ctx, s.logger, h, j.task)
	s.active.Add(-1)
	h.runs.Add(1)

	switch h.kind {
	case KindImmediate:
		h.finish(err)
	case KindDelayed:
		h.finish(nil)
	}
}

func (s *Scheduler) discardQueued() int {
	n := 0
	for {
		select {
		case j := <-s.queue:
			if j.handle.kind == KindFixedRate {
				j.handle.settle()
			} else {
				j.handle.finish(ErrTaskCancelled)
			}
			n++
		default:
			return n
		}
	}
}

func (s *Scheduler) runOnce(h *Handle, task Task, delay time.Duration) {
	defer s.timers.Done()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		if !s.dispatch(&job{handle: h, task: task}, s.force) {
			h.Cancel()
			h.finish(ErrTaskCancelled)
		}
	case <-h.cancelCh:
		h.finish(ErrTaskCancelled)
	case <-s.force:
		h.Cancel()
		h.finish(ErrTaskCancelled)
	}
}

func (s *Scheduler) runFixedRate(h *Handle, task Task, initialDelay, period time.Duration) {
	defer s.timers.Done()
	// No tick fires after return; the handle completes once the last
	// occurrence has left the pool.
	defer func() {
		go func() {
			h.inflight.Wait()
			h.finish(ErrTaskCancelled)
		}()
	}()

	first := time.NewTimer(initialDelay)
	select {
	case <-first.C:
	case <-h.cancelCh:
		first.Stop()
		return
	case <-s.closing:
		first.Stop()
		h.Cancel()
		return
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	s.fire(h, task)
	for {
		select {
		case <-ticker.C:
			s.fire(h, task)
		case <-h.cancelCh:
			return
		case <-s.closing:
			h.Cancel()
			return
		}
	}
}

func (s *Scheduler) fire(h *Handle, task Task) {
	if !h.pending.CompareAndSwap(false, true) {
		h.skipped.Add(1)
		s.logger.Debug("Skipping tick, previous occurrence still pending",
			log.FieldTaskID, h.ID(),
			log.FieldTaskName, h.name)
		return
	}
	h.inflight.Add(1)
	if !s.dispatch(&job{handle: h, task: task}, s.closing) {
		h.settle()
	}
}
