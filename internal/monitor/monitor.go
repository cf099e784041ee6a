// Package monitor periodically compares month-to-date spend of every budgeted
// category with its monthly limit and raises alerts at the warning, critical
// and exceeded thresholds.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"budgetwatch/internal/core"
	"budgetwatch/internal/log"
	"budgetwatch/internal/scheduler"
)

const (
	recurringTaskName = "budget-monitor"
	checkNowTaskName  = "budget-check-now"
)

// Config controls how often the monitor runs and where severities start.
type Config struct {
	Interval   time.Duration
	Thresholds Thresholds
}

// DefaultConfig checks hourly with the default thresholds.
func DefaultConfig() Config {
	return Config{
		Interval:   time.Hour,
		Thresholds: DefaultThresholds(),
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("check interval must be positive, got %s", c.Interval))
	}
	if err := c.Thresholds.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Option configures a Monitor.
type Option func(m *Monitor)

func WithLogger(logger *log.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger.WithComponent(log.ComponentMonitor)
		}
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock Clock) Option {
	return func(m *Monitor) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// Report is the outcome of one evaluation. Failures holds categories whose
// spend could not be read, keyed by category ID.
type Report struct {
	Window      core.PeriodWindow
	GeneratedAt time.Time
	Snapshots   []core.CategorySpendSnapshot
	Alerts      []core.AlertEvent
	Failures    map[int64]error
}

// Monitor runs budget evaluation passes on an injected scheduler.
type Monitor struct {
	sched      Scheduler
	categories CategoryRepository
	expenses   ExpenseRepository
	notifier   Notifier
	cfg        Config
	clock      Clock
	logger     *log.Logger

	mu     sync.Mutex
	handle *scheduler.Handle

	passes atomic.Int64
}

func New(sched Scheduler, categories CategoryRepository, expenses ExpenseRepository, notifier Notifier, cfg Config, opts ...Option) (*Monitor, error) {
	if sched == nil || categories == nil || expenses == nil || notifier == nil {
		return nil, errors.New("monitor requires a scheduler, both repositories and a notifier")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid monitor config: %w", err)
	}

	m := &Monitor{
		sched:      sched,
		categories: categories,
		expenses:   expenses,
		notifier:   notifier,
		cfg:        cfg,
		clock:      ClockFunc(time.Now),
		logger:     log.Default(log.ComponentMonitor),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// StartMonitoring registers the recurring pass, first run immediately and
// then every Interval. Calling it while already monitoring does nothing.
func (m *Monitor) StartMonitoring() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle != nil && !m.handle.Cancelled() {
		return nil
	}
	h, err := m.sched.ScheduleAtFixedRate(m.pass, 0, m.cfg.Interval, scheduler.WithName(recurringTaskName))
	if err != nil {
		return fmt.Errorf("start budget monitoring: %w", err)
	}
	m.handle = h
	m.logger.Info("Budget monitoring started", "interval", m.cfg.Interval.String())
	return nil
}

// StopMonitoring cancels the recurring pass. A pass already running is left
// to finish.
func (m *Monitor) StopMonitoring() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle == nil || m.handle.Cancelled() {
		return
	}
	m.handle.Cancel()
	m.logger.Info("Budget monitoring stopped")
}

// IsMonitoring reports whether a live recurring pass is registered. It turns
// false after StopMonitoring or once the scheduler shuts down.
func (m *Monitor) IsMonitoring() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle != nil && !m.handle.Cancelled()
}

// CheckNow submits one extra pass for immediate execution, independent of
// the recurring schedule.
func (m *Monitor) CheckNow() (*scheduler.Handle, error) {
	h, err := m.sched.SubmitNow(m.pass, scheduler.WithName(checkNowTaskName))
	if err != nil {
		return nil, fmt.Errorf("budget check: %w", err)
	}
	return h, nil
}

// Passes returns how many evaluation passes have started.
func (m *Monitor) Passes() int64 {
	return m.passes.Load()
}

// Evaluate computes snapshots and alerts for the current month without
// notifying anyone. Only a failure to list categories is returned; a
// category whose spend cannot be read is recorded in Report.Failures and
// skipped.
func (m *Monitor) Evaluate(ctx context.Context) (Report, error) {
	now := m.clock.Now()
	report := Report{
		Window:      core.MonthWindow(now),
		GeneratedAt: now,
		Failures:    map[int64]error{},
	}

	categories, err := m.categories.ListBudgeted(ctx)
	if err != nil {
		return report, fmt.Errorf("list budgeted categories: %w", err)
	}

	for _, c := range categories {
		if !c.Budgeted() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		snapshot, err := m.snapshot(ctx, c, report.Window)
		if err != nil {
			report.Failures[c.ID] = err
			m.logger.ErrorContext(ctx, "Failed to check budget for category", log.NewFields().
				WithOperation(log.OpEvaluate).
				WithCategory(c.ID, c.Name).
				WithError(err).ToSlice()...)
			continue
		}
		report.Snapshots = append(report.Snapshots, snapshot)

		m.logger.DebugContext(ctx, "Category spend", log.NewFields().
			WithCategory(c.ID, c.Name).
			WithSpend(snapshot.Spent.String(), snapshot.Limit.String(), snapshot.Percent().StringFixed(1)).
			ToSlice()...)

		if alert, ok := NewAlert(snapshot, now); ok {
			report.Alerts = append(report.Alerts, alert)
		}
	}
	return report, nil
}

func (m *Monitor) snapshot(ctx context.Context, c core.Category, w core.PeriodWindow) (core.CategorySpendSnapshot, error) {
	spent, err := m.expenses.SumByCategoryAndWindow(ctx, c.ID, w.Start, w.End)
	if err != nil {
		return core.CategorySpendSnapshot{}, err
	}
	limit := *c.MonthlyLimit
	return core.CategorySpendSnapshot{
		Category: c,
		Window:   w,
		Spent:    spent,
		Limit:    limit,
		Ratio:    Ratio(spent, limit),
		Severity: Classify(spent, limit, m.cfg.Thresholds),
	}, nil
}

// pass is the scheduled unit of work: evaluate, then hand every alert to the
// notifier. Notifier failures are logged and never end the pass early.
func (m *Monitor) pass(ctx context.Context) error {
	m.passes.Add(1)
	start := time.Now()

	report, err := m.Evaluate(ctx)
	if err != nil {
		return err
	}

	delivered := 0
	for _, alert := range report.Alerts {
		if err := m.notifier.Notify(ctx, alert); err != nil {
			m.logger.ErrorContext(ctx, "Failed to deliver budget alert", log.NewFields().
				WithOperation(log.OpNotify).
				WithCategory(alert.Category.ID, alert.Category.Name).
				WithError(err).ToSlice()...)
			continue
		}
		delivered++
	}

	m.logger.InfoContext(ctx, "Budget check completed",
		log.FieldOperation, log.OpEvaluate,
		log.FieldWindowStart, report.Window.Start.String(),
		log.FieldWindowEnd, report.Window.End.String(),
		"categories", len(report.Snapshots),
		"failed", len(report.Failures),
		"alerts", len(report.Alerts),
		"delivered", delivered,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}
